// Package jmapcal provides a client implementation of the JMAP Calendars
// protocol.
//
// JMAP is defined in RFC 8620, the calendars extension in
// draft-ietf-jmap-calendars. Events use the JSCalendar format defined in
// RFC 8984, see the jscalendar sub-package.
package jmapcal

import (
	"encoding/json"
	"sort"
)

// Capability URNs advertised in the session object.
const (
	CapabilityCore      = "urn:ietf:params:jmap:core"
	CapabilityCalendars = "urn:ietf:params:jmap:calendars"
	CapabilityTasks     = "urn:ietf:params:jmap:tasks"
)

// WellKnownPath is the bootstrap path for the session object, see RFC 8620
// section 2.2.
const WellKnownPath = "/.well-known/jmap"

// Session is the server's capability document, see RFC 8620 section 2. It is
// fetched once per client and cached for the client's lifetime.
type Session struct {
	Capabilities    map[string]json.RawMessage `json:"capabilities"`
	Accounts        map[string]Account         `json:"accounts"`
	PrimaryAccounts map[string]string          `json:"primaryAccounts"`
	Username        string                     `json:"username"`
	APIURL          string                     `json:"apiUrl"`
	DownloadURL     string                     `json:"downloadUrl"`
	UploadURL       string                     `json:"uploadUrl"`
	State           string                     `json:"state"`
}

type Account struct {
	Name                string                     `json:"name"`
	IsPersonal          bool                       `json:"isPersonal"`
	IsReadOnly          bool                       `json:"isReadOnly"`
	AccountCapabilities map[string]json.RawMessage `json:"accountCapabilities"`
}

// AccountFor returns the ID of the primary account for the given capability
// URN. If the server doesn't advertise a primary account, all accessible
// accounts are scanned for the capability. A *CapabilityError is returned if
// no account supports it.
func (s *Session) AccountFor(capability string) (string, error) {
	if id, ok := s.PrimaryAccounts[capability]; ok && id != "" {
		return id, nil
	}

	ids := make([]string, 0, len(s.Accounts))
	for id, account := range s.Accounts {
		if _, ok := account.AccountCapabilities[capability]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", &CapabilityError{URN: capability}
	}
	sort.Strings(ids)
	return ids[0], nil
}

// Package calendar provides a client for the JMAP Calendars protocol
// (draft-ietf-jmap-calendars) and the companion JMAP Tasks methods.
//
// Events and tasks cross the client boundary as iCalendar objects, even
// though the wire format is JSCalendar: callers already producing iCalendar
// data need no adaptation. See the jscalendar package for the conversion
// rules and their documented fidelity loss.
package calendar

import (
	"fmt"

	"github.com/emersion/go-ical"
)

// Calendar is a calendar collection.
type Calendar struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	IsVisible   bool   `json:"isVisible,omitempty"`
	IsDefault   bool   `json:"isDefault,omitempty"`

	MayReadItems   bool `json:"mayReadItems,omitempty"`
	MayAddItems    bool `json:"mayAddItems,omitempty"`
	MayModifyItems bool `json:"mayModifyItems,omitempty"`
	MayRemoveItems bool `json:"mayRemoveItems,omitempty"`
}

// Object is a calendar object (an event or a task). ID is the server-assigned
// JMAP object ID: it is a protocol-specific handle, distinct from the UID
// carried inside Data, which is the object's format-independent identity.
type Object struct {
	ID         string
	CalendarID string
	Data       *ical.Calendar
}

// UID returns the UID of the first component carrying one, or an empty
// string.
func (o *Object) UID() string {
	if o.Data == nil {
		return ""
	}
	for _, child := range o.Data.Children {
		if prop := child.Props.Get(ical.PropUID); prop != nil {
			return prop.Value
		}
	}
	return ""
}

// SyncState is an opaque server-issued token representing a position in the
// server's change log. Clients must not parse or order tokens: only equality
// is meaningful.
//
// The token is caller-owned: the library never persists it, and concurrent
// delta fetches against the same token are a caller error.
type SyncState string

// SyncChanges is the delta between two sync states. Created and Updated carry
// full objects; destroyed objects no longer exist and are returned as bare
// server IDs.
type SyncChanges struct {
	// State is the new baseline token. Replace the previous token with it
	// atomically once the delta has been applied.
	State SyncState

	Created   []Object
	Updated   []Object
	Destroyed []string
}

// SyncTruncatedError is returned when the server's change log was too large
// to return in full. A partial delta is never exposed: accepting one and
// advancing the token would leave permanently missing objects with no way to
// detect the gap. The caller must re-baseline via Client.SyncToken and
// re-fetch.
type SyncTruncatedError struct {
	// Since is the token the truncated request was made with. It has not
	// been consumed.
	Since SyncState
}

func (err *SyncTruncatedError) Error() string {
	return fmt.Sprintf("calendar: change log truncated by server since state %q, re-baseline required", string(err.Since))
}

// Filter selects calendar objects in a query.
type Filter struct {
	// InCalendars restricts matches to the given calendar IDs.
	InCalendars []string `json:"inCalendars,omitempty"`
	// After and Before bound the object's time span, in UTC.
	After  string `json:"after,omitempty"`
	Before string `json:"before,omitempty"`
	// Text matches over the object's textual properties.
	Text string `json:"text,omitempty"`
	// UID matches the object's embedded UID.
	UID string `json:"uid,omitempty"`
}

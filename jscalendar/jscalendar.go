// Package jscalendar implements the JSCalendar data format and its
// conversion from and to iCalendar.
//
// JSCalendar is defined in RFC 8984, iCalendar in RFC 5545.
package jscalendar

// Object type names, see RFC 8984 section 1.4.1.
const (
	TypeEvent       = "Event"
	TypeTask        = "Task"
	TypeParticipant = "Participant"
	TypeLocation    = "Location"
	TypeAlert       = "Alert"
)

// Privacy values, see RFC 8984 section 4.4.3.
const (
	PrivacyPublic  = "public"
	PrivacyPrivate = "private"
	PrivacySecret  = "secret"
)

// FreeBusyStatus values, see RFC 8984 section 4.4.2.
const (
	FreeBusyFree = "free"
	FreeBusyBusy = "busy"
)

// Event is a JSCalendar Event object, see RFC 8984 section 2.1.
//
// Start never carries a UTC offset: the pair (Start, TimeZone) is the sole
// source of absolute time. If ShowWithoutTime is set, the time-of-day part of
// Start is a fixed T00:00:00 sentinel with no temporal meaning.
type Event struct {
	Type        string `json:"@type,omitempty"`
	UID         string `json:"uid,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	Start           LocalDateTime `json:"start,omitempty"`
	Duration        Duration      `json:"duration,omitempty"`
	TimeZone        string        `json:"timeZone,omitempty"`
	ShowWithoutTime bool          `json:"showWithoutTime,omitempty"`

	Sequence       int    `json:"sequence,omitempty"`
	Priority       int    `json:"priority,omitempty"`
	Privacy        string `json:"privacy,omitempty"`
	FreeBusyStatus string `json:"freeBusyStatus,omitempty"`
	Status         string `json:"status,omitempty"`
	Color          string `json:"color,omitempty"`

	Keywords     map[string]bool         `json:"keywords,omitempty"`
	Locations    map[string]*Location    `json:"locations,omitempty"`
	Participants map[string]*Participant `json:"participants,omitempty"`

	RecurrenceRules         []RecurrenceRule              `json:"recurrenceRules,omitempty"`
	ExcludedRecurrenceRules []RecurrenceRule              `json:"excludedRecurrenceRules,omitempty"`
	RecurrenceOverrides     map[LocalDateTime]PatchObject `json:"recurrenceOverrides,omitempty"`

	// RecurrenceID is set on an object representing a single instance of a
	// recurring event, and is mutually exclusive with RecurrenceRules.
	RecurrenceID LocalDateTime `json:"recurrenceId,omitempty"`
	Excluded     bool          `json:"excluded,omitempty"`

	Alerts map[string]*Alert `json:"alerts,omitempty"`
}

// Task is a JSCalendar Task object, see RFC 8984 section 2.2.
type Task struct {
	Type        string `json:"@type,omitempty"`
	UID         string `json:"uid,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	Start           LocalDateTime `json:"start,omitempty"`
	Due             LocalDateTime `json:"due,omitempty"`
	TimeZone        string        `json:"timeZone,omitempty"`
	ShowWithoutTime bool          `json:"showWithoutTime,omitempty"`

	Sequence        int    `json:"sequence,omitempty"`
	Priority        int    `json:"priority,omitempty"`
	Privacy         string `json:"privacy,omitempty"`
	PercentComplete int    `json:"percentComplete,omitempty"`
	Progress        string `json:"progress,omitempty"`

	Keywords     map[string]bool         `json:"keywords,omitempty"`
	Participants map[string]*Participant `json:"participants,omitempty"`

	Alerts map[string]*Alert `json:"alerts,omitempty"`
}

// Participant describes a participant of an event or task, see RFC 8984
// section 4.4.6.
type Participant struct {
	Type                string          `json:"@type,omitempty"`
	Name                string          `json:"name,omitempty"`
	Email               string          `json:"email,omitempty"`
	Kind                string          `json:"kind,omitempty"`
	Roles               map[string]bool `json:"roles,omitempty"`
	ParticipationStatus string          `json:"participationStatus,omitempty"`
	ExpectReply         bool            `json:"expectReply,omitempty"`
}

// Participant roles.
const (
	RoleOwner         = "owner"
	RoleAttendee      = "attendee"
	RoleOptional      = "optional"
	RoleInformational = "informational"
	RoleChair         = "chair"
)

// Location describes a physical location, see RFC 8984 section 4.2.5.
type Location struct {
	Type        string `json:"@type,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Alert describes a reminder, see RFC 8984 section 4.5.2.
type Alert struct {
	Type    string   `json:"@type,omitempty"`
	Trigger *Trigger `json:"trigger,omitempty"`
	Action  string   `json:"action,omitempty"`
}

// Trigger type names.
const (
	TypeOffsetTrigger   = "OffsetTrigger"
	TypeAbsoluteTrigger = "AbsoluteTrigger"
)

// Trigger describes when an alert fires. Its Type discriminates between an
// OffsetTrigger (Offset, RelativeTo) and an AbsoluteTrigger (When).
type Trigger struct {
	Type       string      `json:"@type,omitempty"`
	Offset     Duration    `json:"offset,omitempty"`
	RelativeTo string      `json:"relativeTo,omitempty"`
	When       UTCDateTime `json:"when,omitempty"`
}

// PatchObject is a partial object: a map from property name to new value,
// containing only the properties that differ from the object it patches. A
// value of nil removes the property. See RFC 8984 section 1.4.9.
type PatchObject map[string]interface{}

package jscalendar

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// timeNow is overridable so DTSTAMP emission stays deterministic in tests.
var timeNow = time.Now

const prodID = "-//emersion//go-jmapcal//EN"

// Properties and parameters not defined by go-ical.
const (
	propColor         = "COLOR"
	propExceptionRule = "EXRULE"
)

const (
	icalDateFormat        = "20060102"
	icalDateTimeFormat    = "20060102T150405"
	icalUTCDateTimeFormat = "20060102T150405Z"
)

// utcTimeZone is the time zone emitted for iCalendar date-times in the UTC
// form (trailing "Z").
const utcTimeZone = "Etc/UTC"

// FromICalendar converts the first VEVENT group of a calendar into a
// JSCalendar Event. Components carrying a RECURRENCE-ID become entries in the
// master's recurrenceOverrides map, as patches containing only the properties
// that differ from the master. The input calendar is not modified.
//
// The mapping is deliberately lossy for a documented set of properties:
// RDATE, COMMENT, GEO, X-* properties, and the server-managed DTSTAMP,
// CREATED and LAST-MODIFIED stamps are dropped.
func FromICalendar(cal *ical.Calendar) (*Event, error) {
	var master *ical.Component
	var detached []*ical.Component
	for _, child := range cal.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		if child.Props.Get(ical.PropRecurrenceID) != nil {
			detached = append(detached, child)
		} else if master == nil {
			master = child
		}
	}

	if master == nil {
		if len(detached) == 1 {
			// A lone detached instance of a recurring event.
			return eventFromComponent(detached[0])
		}
		return nil, fmt.Errorf("jscalendar: calendar has no VEVENT component")
	}

	event, err := eventFromComponent(master)
	if err != nil {
		return nil, err
	}

	overrides := make(map[LocalDateTime]PatchObject)

	for _, prop := range master.Props.Values(ical.PropExceptionDates) {
		prop := prop
		dates, err := exceptionDates(&prop)
		if err != nil {
			return nil, err
		}
		for _, dt := range dates {
			overrides[dt] = PatchObject{"excluded": true}
		}
	}

	if len(detached) > 0 {
		masterDoc, err := objectToMap(event)
		if err != nil {
			return nil, err
		}
		for _, comp := range detached {
			instance, err := eventFromComponent(comp)
			if err != nil {
				return nil, err
			}
			rid := instance.RecurrenceID
			if rid == "" {
				return nil, fmt.Errorf("jscalendar: override VEVENT has an invalid RECURRENCE-ID")
			}
			instanceDoc, err := objectToMap(instance)
			if err != nil {
				return nil, err
			}
			overrides[rid] = diffOverride(masterDoc, instanceDoc, rid)
		}
	}

	if len(overrides) > 0 {
		event.RecurrenceOverrides = overrides
	}
	return event, nil
}

// ToICalendar converts a JSCalendar Event back into an iCalendar object.
// Recurrence overrides whose patch is exactly {"excluded": true} become
// EXDATE properties; any other patch becomes a child VEVENT keyed by
// RECURRENCE-ID, produced by applying the patch on top of the master.
//
// DTSTAMP is regenerated at conversion time: repeated fetch-and-store cycles
// advance it even when nothing else changed. The input event is not modified.
func ToICalendar(event *Event) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)

	comp, err := componentFromEvent(event)
	if err != nil {
		return nil, err
	}
	cal.Children = append(cal.Children, comp)

	rids := make([]LocalDateTime, 0, len(event.RecurrenceOverrides))
	for rid := range event.RecurrenceOverrides {
		rids = append(rids, rid)
	}
	sort.Slice(rids, func(i, j int) bool { return rids[i] < rids[j] })

	for _, rid := range rids {
		patch := event.RecurrenceOverrides[rid]
		if isExcludedPatch(patch) {
			prop := ical.NewProp(ical.PropExceptionDates)
			if err := setDateTimeValue(prop, rid, event.TimeZone, event.ShowWithoutTime); err != nil {
				return nil, err
			}
			comp.Props.Add(prop)
			continue
		}

		instance, err := applyPatch(event, rid, patch)
		if err != nil {
			return nil, err
		}
		instanceComp, err := componentFromEvent(instance)
		if err != nil {
			return nil, err
		}
		cal.Children = append(cal.Children, instanceComp)
	}

	return cal, nil
}

func eventFromComponent(comp *ical.Component) (*Event, error) {
	event := &Event{Type: TypeEvent}

	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		event.UID = prop.Value
	}
	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		text, err := prop.Text()
		if err != nil {
			return nil, err
		}
		event.Title = text
	}
	if prop := comp.Props.Get(ical.PropDescription); prop != nil {
		text, err := prop.Text()
		if err != nil {
			return nil, err
		}
		event.Description = text
	}

	var start dateTimeValue
	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
		var err error
		start, err = parseDateTimeProp(prop)
		if err != nil {
			return nil, err
		}
		event.Start = start.local
		event.TimeZone = start.timeZone
		event.ShowWithoutTime = start.allDay
	}

	if prop := comp.Props.Get(ical.PropDuration); prop != nil {
		event.Duration = Duration(prop.Value)
	} else if prop := comp.Props.Get(ical.PropDateTimeEnd); prop != nil {
		end, err := parseDateTimeProp(prop)
		if err != nil {
			return nil, err
		}
		// Both instants are compared on their local clock values: if start
		// and end carry different unresolvable time zones there is nothing
		// better to do.
		if d := end.naive.Sub(start.naive); d > 0 {
			event.Duration = NewDuration(d)
		}
	}

	if prop := comp.Props.Get(ical.PropRecurrenceID); prop != nil {
		rid, err := parseDateTimeProp(prop)
		if err != nil {
			return nil, err
		}
		event.RecurrenceID = rid.local
	}

	if prop := comp.Props.Get(ical.PropSequence); prop != nil {
		seq, err := prop.Int()
		if err != nil {
			return nil, err
		}
		event.Sequence = seq
	}
	if prop := comp.Props.Get(ical.PropPriority); prop != nil {
		// PRIORITY:0 means "undefined" and is intentionally not mapped.
		prio, err := prop.Int()
		if err != nil {
			return nil, err
		}
		event.Priority = prio
	}

	if prop := comp.Props.Get(ical.PropClass); prop != nil {
		event.Privacy = privacyFromClass(prop.Value)
	}
	if prop := comp.Props.Get(ical.PropTransparency); prop != nil {
		// Only the non-default TRANSPARENT value maps; OPAQUE is JSCalendar's
		// implicit default.
		if strings.EqualFold(prop.Value, "TRANSPARENT") {
			event.FreeBusyStatus = FreeBusyFree
		}
	}
	if prop := comp.Props.Get(ical.PropStatus); prop != nil {
		event.Status = strings.ToLower(prop.Value)
	}
	if prop := comp.Props.Get(propColor); prop != nil {
		event.Color = prop.Value
	}

	keywords, err := keywordsFromComponent(comp)
	if err != nil {
		return nil, err
	}
	event.Keywords = keywords

	locationID := 0
	for _, prop := range comp.Props.Values(ical.PropLocation) {
		prop := prop
		name, err := prop.Text()
		if err != nil {
			return nil, err
		}
		if name == "" {
			continue
		}
		if event.Locations == nil {
			event.Locations = make(map[string]*Location)
		}
		locationID++
		event.Locations[strconv.Itoa(locationID)] = &Location{
			Type: TypeLocation,
			Name: name,
		}
	}

	participants, err := participantsFromComponent(comp)
	if err != nil {
		return nil, err
	}
	event.Participants = participants

	for _, prop := range comp.Props.Values(ical.PropRecurrenceRule) {
		rule, err := parseRecurrenceRule(prop.Value)
		if err != nil {
			return nil, err
		}
		event.RecurrenceRules = append(event.RecurrenceRules, rule)
	}
	for _, prop := range comp.Props.Values(propExceptionRule) {
		rule, err := parseRecurrenceRule(prop.Value)
		if err != nil {
			return nil, err
		}
		event.ExcludedRecurrenceRules = append(event.ExcludedRecurrenceRules, rule)
	}

	alerts, err := alertsFromComponent(comp)
	if err != nil {
		return nil, err
	}
	event.Alerts = alerts

	return event, nil
}

func componentFromEvent(event *Event) (*ical.Component, error) {
	comp := ical.NewComponent(ical.CompEvent)

	if event.UID != "" {
		comp.Props.SetText(ical.PropUID, event.UID)
	}
	comp.Props.SetDateTime(ical.PropDateTimeStamp, timeNow().UTC())

	var startNaive time.Time
	if event.Start != "" {
		prop := ical.NewProp(ical.PropDateTimeStart)
		if err := setDateTimeValue(prop, event.Start, event.TimeZone, event.ShowWithoutTime); err != nil {
			return nil, err
		}
		comp.Props.Set(prop)

		var err error
		startNaive, err = event.Start.Time(time.UTC)
		if err != nil {
			return nil, err
		}
	}

	if event.Duration != "" && event.Start != "" {
		d, err := event.Duration.TimeDuration()
		if err != nil {
			return nil, err
		}
		// Fractional seconds are truncated, not rounded.
		d = d.Truncate(time.Second)

		end := startNaive.Add(d)
		prop := ical.NewProp(ical.PropDateTimeEnd)
		if err := setDateTimeValue(prop, NewLocalDateTime(end), event.TimeZone, event.ShowWithoutTime); err != nil {
			return nil, err
		}
		comp.Props.Set(prop)
	}

	if event.RecurrenceID != "" {
		prop := ical.NewProp(ical.PropRecurrenceID)
		if err := setDateTimeValue(prop, event.RecurrenceID, event.TimeZone, event.ShowWithoutTime); err != nil {
			return nil, err
		}
		comp.Props.Set(prop)
	}

	if event.Title != "" {
		comp.Props.SetText(ical.PropSummary, event.Title)
	}
	if event.Description != "" {
		comp.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Sequence != 0 {
		setIntProp(comp, ical.PropSequence, event.Sequence)
	}
	if event.Priority != 0 {
		setIntProp(comp, ical.PropPriority, event.Priority)
	}
	if class := classFromPrivacy(event.Privacy); class != "" {
		comp.Props.SetText(ical.PropClass, class)
	}
	if event.FreeBusyStatus == FreeBusyFree {
		comp.Props.SetText(ical.PropTransparency, "TRANSPARENT")
	}
	if event.Status != "" {
		comp.Props.SetText(ical.PropStatus, strings.ToUpper(event.Status))
	}
	if event.Color != "" {
		comp.Props.SetText(propColor, event.Color)
	}

	setKeywords(comp, event.Keywords)
	if loc := firstLocation(event.Locations); loc != nil {
		comp.Props.SetText(ical.PropLocation, loc.Name)
	}
	if err := setParticipants(comp, event.Participants); err != nil {
		return nil, err
	}

	for _, rule := range event.RecurrenceRules {
		rule := rule
		value, err := rule.iCalString()
		if err != nil {
			return nil, err
		}
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = value
		comp.Props.Add(prop)
	}
	for _, rule := range event.ExcludedRecurrenceRules {
		rule := rule
		value, err := rule.iCalString()
		if err != nil {
			return nil, err
		}
		prop := ical.NewProp(propExceptionRule)
		prop.Value = value
		comp.Props.Add(prop)
	}

	if err := setAlerts(comp, event.Alerts); err != nil {
		return nil, err
	}

	return comp, nil
}

// dateTimeValue is a decomposed iCalendar date or date-time property value.
type dateTimeValue struct {
	local    LocalDateTime
	timeZone string
	allDay   bool
	naive    time.Time
}

// parseDateTimeProp decomposes a DTSTART-like property. A TZID that is not a
// known IANA zone is passed through unchanged: silently remapping (e.g.
// Windows-style names) would be worse than an opaque value a downstream
// consumer can still resolve itself.
func parseDateTimeProp(prop *ical.Prop) (dateTimeValue, error) {
	raw := prop.Value

	if prop.ValueType() == ical.ValueDate {
		t, err := time.ParseInLocation(icalDateFormat, raw, time.UTC)
		if err != nil {
			return dateTimeValue{}, fmt.Errorf("jscalendar: invalid %v date %q", prop.Name, raw)
		}
		return dateTimeValue{
			local:  NewLocalDateTime(t),
			allDay: true,
			naive:  t,
		}, nil
	}

	if strings.HasSuffix(raw, "Z") {
		t, err := time.ParseInLocation(icalUTCDateTimeFormat, raw, time.UTC)
		if err != nil {
			return dateTimeValue{}, fmt.Errorf("jscalendar: invalid %v date-time %q", prop.Name, raw)
		}
		return dateTimeValue{
			local:    NewLocalDateTime(t),
			timeZone: utcTimeZone,
			naive:    t,
		}, nil
	}

	t, err := time.ParseInLocation(icalDateTimeFormat, raw, time.UTC)
	if err != nil {
		return dateTimeValue{}, fmt.Errorf("jscalendar: invalid %v date-time %q", prop.Name, raw)
	}
	return dateTimeValue{
		local:    NewLocalDateTime(t),
		timeZone: prop.Params.Get(ical.ParamTimezoneID),
		naive:    t,
	}, nil
}

// setDateTimeValue emits a DTSTART-like property value. UTC maps back to the
// trailing-"Z" form; any other time zone identifier, resolvable or not, is
// emitted verbatim as a TZID parameter.
func setDateTimeValue(prop *ical.Prop, dt LocalDateTime, timeZone string, allDay bool) error {
	t, err := dt.Time(time.UTC)
	if err != nil {
		return err
	}

	switch {
	case allDay:
		prop.SetValueType(ical.ValueDate)
		prop.Value = t.Format(icalDateFormat)
	case timeZone == utcTimeZone || timeZone == "UTC":
		prop.Value = t.Format(icalUTCDateTimeFormat)
	case timeZone != "":
		prop.Params.Set(ical.ParamTimezoneID, timeZone)
		prop.Value = t.Format(icalDateTimeFormat)
	default:
		prop.Value = t.Format(icalDateTimeFormat)
	}
	return nil
}

func exceptionDates(prop *ical.Prop) ([]LocalDateTime, error) {
	var out []LocalDateTime
	for _, raw := range strings.Split(prop.Value, ",") {
		if raw == "" {
			continue
		}
		single := *prop
		single.Value = raw
		dt, err := parseDateTimeProp(&single)
		if err != nil {
			return nil, err
		}
		out = append(out, dt.local)
	}
	return out, nil
}

func privacyFromClass(class string) string {
	switch strings.ToUpper(class) {
	case "PUBLIC":
		return PrivacyPublic
	case "PRIVATE":
		return PrivacyPrivate
	case "CONFIDENTIAL":
		return PrivacySecret
	}
	return ""
}

func classFromPrivacy(privacy string) string {
	switch privacy {
	case PrivacyPublic:
		return "PUBLIC"
	case PrivacyPrivate:
		return "PRIVATE"
	case PrivacySecret:
		return "CONFIDENTIAL"
	}
	return ""
}

func keywordsFromComponent(comp *ical.Component) (map[string]bool, error) {
	var keywords map[string]bool
	for _, prop := range comp.Props.Values(ical.PropCategories) {
		prop := prop
		list, err := prop.TextList()
		if err != nil {
			return nil, err
		}
		for _, kw := range list {
			if kw == "" {
				continue
			}
			if keywords == nil {
				keywords = make(map[string]bool)
			}
			keywords[kw] = true
		}
	}
	return keywords, nil
}

func setKeywords(comp *ical.Component, keywords map[string]bool) {
	if len(keywords) == 0 {
		return
	}
	list := make([]string, 0, len(keywords))
	for kw := range keywords {
		list = append(list, kw)
	}
	sort.Strings(list)
	prop := ical.NewProp(ical.PropCategories)
	prop.SetTextList(list)
	comp.Props.Set(prop)
}

func firstLocation(locations map[string]*Location) *Location {
	// Multiple locations collapse to the first one: LOCATION is a
	// single-occurrence property.
	ids := make([]string, 0, len(locations))
	for id := range locations {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)
	return locations[ids[0]]
}

func mailtoEmail(value string) string {
	if len(value) >= len("mailto:") && strings.EqualFold(value[:len("mailto:")], "mailto:") {
		return value[len("mailto:"):]
	}
	return value
}

func participantsFromComponent(comp *ical.Component) (map[string]*Participant, error) {
	var participants map[string]*Participant
	var order []string
	nextID := 0

	add := func(p *Participant) {
		if participants == nil {
			participants = make(map[string]*Participant)
		}
		nextID++
		id := strconv.Itoa(nextID)
		participants[id] = p
		order = append(order, id)
	}

	for _, prop := range comp.Props.Values(ical.PropAttendee) {
		prop := prop
		p := &Participant{
			Type:  TypeParticipant,
			Email: mailtoEmail(prop.Value),
			Name:  prop.Params.Get(ical.ParamCommonName),
			Roles: make(map[string]bool),
		}

		switch strings.ToUpper(prop.Params.Get(ical.ParamRole)) {
		case "CHAIR":
			p.Roles[RoleAttendee] = true
			p.Roles[RoleChair] = true
		case "OPT-PARTICIPANT":
			p.Roles[RoleAttendee] = true
			p.Roles[RoleOptional] = true
		case "NON-PARTICIPANT":
			p.Roles[RoleInformational] = true
		default:
			p.Roles[RoleAttendee] = true
		}

		if partStat := prop.Params.Get(ical.ParamParticipationStatus); partStat != "" {
			p.ParticipationStatus = strings.ToLower(partStat)
		}
		if strings.EqualFold(prop.Params.Get(ical.ParamRSVP), "TRUE") {
			p.ExpectReply = true
		}
		switch strings.ToUpper(prop.Params.Get(ical.ParamCalendarUserType)) {
		case "INDIVIDUAL":
			p.Kind = "individual"
		case "GROUP":
			p.Kind = "group"
		case "RESOURCE":
			p.Kind = "resource"
		case "ROOM":
			p.Kind = "location"
		}

		add(p)
	}

	if prop := comp.Props.Get(ical.PropOrganizer); prop != nil {
		email := mailtoEmail(prop.Value)
		merged := false
		for _, id := range order {
			if p := participants[id]; p.Email == email {
				p.Roles[RoleOwner] = true
				merged = true
				break
			}
		}
		if !merged {
			add(&Participant{
				Type:  TypeParticipant,
				Email: email,
				Name:  prop.Params.Get(ical.ParamCommonName),
				Roles: map[string]bool{RoleOwner: true},
			})
		}
	}

	return participants, nil
}

func setParticipants(comp *ical.Component, participants map[string]*Participant) error {
	ids := make([]string, 0, len(participants))
	for id := range participants {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		p := participants[id]
		if p.Email == "" {
			return fmt.Errorf("jscalendar: participant %q has no email", id)
		}
		addr := "mailto:" + p.Email

		if p.Roles[RoleOwner] {
			prop := ical.NewProp(ical.PropOrganizer)
			prop.Value = addr
			if p.Name != "" {
				prop.Params.Set(ical.ParamCommonName, p.Name)
			}
			comp.Props.Set(prop)
			if len(p.Roles) == 1 {
				continue
			}
		}

		prop := ical.NewProp(ical.PropAttendee)
		prop.Value = addr
		if p.Name != "" {
			prop.Params.Set(ical.ParamCommonName, p.Name)
		}
		switch {
		case p.Roles[RoleChair]:
			prop.Params.Set(ical.ParamRole, "CHAIR")
		case p.Roles[RoleOptional]:
			prop.Params.Set(ical.ParamRole, "OPT-PARTICIPANT")
		case p.Roles[RoleInformational] && !p.Roles[RoleAttendee]:
			prop.Params.Set(ical.ParamRole, "NON-PARTICIPANT")
		}
		if p.ParticipationStatus != "" {
			prop.Params.Set(ical.ParamParticipationStatus, strings.ToUpper(p.ParticipationStatus))
		}
		if p.ExpectReply {
			prop.Params.Set(ical.ParamRSVP, "TRUE")
		}
		switch p.Kind {
		case "individual":
			prop.Params.Set(ical.ParamCalendarUserType, "INDIVIDUAL")
		case "group":
			prop.Params.Set(ical.ParamCalendarUserType, "GROUP")
		case "resource":
			prop.Params.Set(ical.ParamCalendarUserType, "RESOURCE")
		case "location":
			prop.Params.Set(ical.ParamCalendarUserType, "ROOM")
		}
		comp.Props.Add(prop)
	}

	return nil
}

func alertsFromComponent(comp *ical.Component) (map[string]*Alert, error) {
	var alerts map[string]*Alert
	alertID := 0
	for _, child := range comp.Children {
		if child.Name != ical.CompAlarm {
			continue
		}

		alert := &Alert{Type: TypeAlert, Action: "display"}
		if prop := child.Props.Get(ical.PropAction); prop != nil {
			if strings.EqualFold(prop.Value, "EMAIL") {
				alert.Action = "email"
			}
		}

		prop := child.Props.Get(ical.PropTrigger)
		if prop == nil {
			continue
		}
		if prop.ValueType() == ical.ValueDateTime || strings.HasSuffix(prop.Value, "Z") {
			t, err := time.ParseInLocation(icalUTCDateTimeFormat, prop.Value, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("jscalendar: invalid absolute TRIGGER %q", prop.Value)
			}
			alert.Trigger = &Trigger{
				Type: TypeAbsoluteTrigger,
				When: NewUTCDateTime(t),
			}
		} else {
			trigger := &Trigger{
				Type:   TypeOffsetTrigger,
				Offset: Duration(prop.Value),
			}
			if strings.EqualFold(prop.Params.Get(ical.ParamRelated), "END") {
				trigger.RelativeTo = "end"
			}
			alert.Trigger = trigger
		}

		if alerts == nil {
			alerts = make(map[string]*Alert)
		}
		alertID++
		alerts[strconv.Itoa(alertID)] = alert
	}
	return alerts, nil
}

func setAlerts(comp *ical.Component, alerts map[string]*Alert) error {
	ids := make([]string, 0, len(alerts))
	for id := range alerts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		alert := alerts[id]
		child := ical.NewComponent(ical.CompAlarm)

		action := "DISPLAY"
		if alert.Action == "email" {
			action = "EMAIL"
		}
		child.Props.SetText(ical.PropAction, action)

		if alert.Trigger == nil {
			return fmt.Errorf("jscalendar: alert %q has no trigger", id)
		}
		prop := ical.NewProp(ical.PropTrigger)
		switch alert.Trigger.Type {
		case TypeAbsoluteTrigger:
			t, err := alert.Trigger.When.Time()
			if err != nil {
				return err
			}
			prop.SetValueType(ical.ValueDateTime)
			prop.Value = t.Format(icalUTCDateTimeFormat)
		default:
			d, err := alert.Trigger.Offset.TimeDuration()
			if err != nil {
				return err
			}
			prop.Value = string(NewDuration(d))
			if alert.Trigger.RelativeTo == "end" {
				prop.Params.Set(ical.ParamRelated, "END")
			}
		}
		child.Props.Set(prop)

		comp.Children = append(comp.Children, child)
	}
	return nil
}

func setIntProp(comp *ical.Component, name string, value int) {
	prop := ical.NewProp(name)
	prop.Value = strconv.Itoa(value)
	comp.Props.Set(prop)
}

func objectToMap(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// patchSkipKeys are properties that never belong in a recurrence override
// patch: identity and the recurrence machinery itself.
var patchSkipKeys = map[string]bool{
	"@type":                   true,
	"uid":                     true,
	"recurrenceRules":         true,
	"excludedRecurrenceRules": true,
	"recurrenceOverrides":     true,
	"recurrenceId":            true,
}

// diffOverride computes the patch between the master event and a detached
// instance: only the properties that differ are included. A property the
// instance dropped is patched to nil. The instance's start only counts as a
// change when it differs from the recurrence ID, i.e. when the occurrence
// was actually moved.
func diffOverride(master, instance map[string]interface{}, rid LocalDateTime) PatchObject {
	patch := PatchObject{}
	for k, v := range instance {
		if patchSkipKeys[k] {
			continue
		}
		if k == "start" {
			if s, ok := v.(string); ok && LocalDateTime(s) == rid {
				continue
			}
			patch[k] = v
			continue
		}
		if mv, ok := master[k]; !ok || !reflect.DeepEqual(mv, v) {
			patch[k] = v
		}
	}
	for k := range master {
		if patchSkipKeys[k] || k == "start" {
			continue
		}
		if _, ok := instance[k]; !ok {
			patch[k] = nil
		}
	}
	return patch
}

// applyPatch produces the detached instance described by a recurrence
// override patch, without touching the master event.
func applyPatch(master *Event, rid LocalDateTime, patch PatchObject) (*Event, error) {
	doc, err := objectToMap(master)
	if err != nil {
		return nil, err
	}
	for k := range patchSkipKeys {
		delete(doc, k)
	}
	for k, v := range patch {
		if v == nil {
			delete(doc, k)
		} else {
			doc[k] = v
		}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var instance Event
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("jscalendar: invalid recurrence override for %v: %v", rid, err)
	}
	instance.Type = TypeEvent
	instance.UID = master.UID
	instance.RecurrenceID = rid
	if _, ok := patch["start"]; !ok {
		instance.Start = rid
	}
	return &instance, nil
}

func isExcludedPatch(patch PatchObject) bool {
	if len(patch) != 1 {
		return false
	}
	excluded, ok := patch["excluded"].(bool)
	return ok && excluded
}

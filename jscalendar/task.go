package jscalendar

import (
	"fmt"
	"strings"

	"github.com/emersion/go-ical"
)

// TaskFromICalendar converts the first VTODO component of a calendar into a
// JSCalendar Task. The same mapping rules as FromICalendar apply, with the
// VTODO-specific DUE, PERCENT-COMPLETE and STATUS properties added.
func TaskFromICalendar(cal *ical.Calendar) (*Task, error) {
	var comp *ical.Component
	for _, child := range cal.Children {
		if child.Name == ical.CompToDo {
			comp = child
			break
		}
	}
	if comp == nil {
		return nil, fmt.Errorf("jscalendar: calendar has no VTODO component")
	}

	task := &Task{Type: TypeTask}

	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		task.UID = prop.Value
	}
	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		text, err := prop.Text()
		if err != nil {
			return nil, err
		}
		task.Title = text
	}
	if prop := comp.Props.Get(ical.PropDescription); prop != nil {
		text, err := prop.Text()
		if err != nil {
			return nil, err
		}
		task.Description = text
	}

	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
		start, err := parseDateTimeProp(prop)
		if err != nil {
			return nil, err
		}
		task.Start = start.local
		task.TimeZone = start.timeZone
		task.ShowWithoutTime = start.allDay
	}
	if prop := comp.Props.Get(ical.PropDue); prop != nil {
		due, err := parseDateTimeProp(prop)
		if err != nil {
			return nil, err
		}
		task.Due = due.local
		if task.TimeZone == "" {
			task.TimeZone = due.timeZone
		}
		if task.Start == "" {
			task.ShowWithoutTime = due.allDay
		}
	}

	if prop := comp.Props.Get(ical.PropSequence); prop != nil {
		seq, err := prop.Int()
		if err != nil {
			return nil, err
		}
		task.Sequence = seq
	}
	if prop := comp.Props.Get(ical.PropPriority); prop != nil {
		prio, err := prop.Int()
		if err != nil {
			return nil, err
		}
		task.Priority = prio
	}
	if prop := comp.Props.Get(ical.PropClass); prop != nil {
		task.Privacy = privacyFromClass(prop.Value)
	}
	if prop := comp.Props.Get(ical.PropPercentComplete); prop != nil {
		pct, err := prop.Int()
		if err != nil {
			return nil, err
		}
		task.PercentComplete = pct
	}
	if prop := comp.Props.Get(ical.PropStatus); prop != nil {
		task.Progress = progressFromStatus(prop.Value)
	}

	keywords, err := keywordsFromComponent(comp)
	if err != nil {
		return nil, err
	}
	task.Keywords = keywords

	participants, err := participantsFromComponent(comp)
	if err != nil {
		return nil, err
	}
	task.Participants = participants

	alerts, err := alertsFromComponent(comp)
	if err != nil {
		return nil, err
	}
	task.Alerts = alerts

	return task, nil
}

// TaskToICalendar converts a JSCalendar Task back into an iCalendar object
// with a single VTODO component.
func TaskToICalendar(task *Task) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)

	comp := ical.NewComponent(ical.CompToDo)

	if task.UID != "" {
		comp.Props.SetText(ical.PropUID, task.UID)
	}
	comp.Props.SetDateTime(ical.PropDateTimeStamp, timeNow().UTC())

	if task.Start != "" {
		prop := ical.NewProp(ical.PropDateTimeStart)
		if err := setDateTimeValue(prop, task.Start, task.TimeZone, task.ShowWithoutTime); err != nil {
			return nil, err
		}
		comp.Props.Set(prop)
	}
	if task.Due != "" {
		prop := ical.NewProp(ical.PropDue)
		if err := setDateTimeValue(prop, task.Due, task.TimeZone, task.ShowWithoutTime); err != nil {
			return nil, err
		}
		comp.Props.Set(prop)
	}

	if task.Title != "" {
		comp.Props.SetText(ical.PropSummary, task.Title)
	}
	if task.Description != "" {
		comp.Props.SetText(ical.PropDescription, task.Description)
	}
	if task.Sequence != 0 {
		setIntProp(comp, ical.PropSequence, task.Sequence)
	}
	if task.Priority != 0 {
		setIntProp(comp, ical.PropPriority, task.Priority)
	}
	if class := classFromPrivacy(task.Privacy); class != "" {
		comp.Props.SetText(ical.PropClass, class)
	}
	if task.PercentComplete != 0 {
		setIntProp(comp, ical.PropPercentComplete, task.PercentComplete)
	}
	if status := statusFromProgress(task.Progress); status != "" {
		comp.Props.SetText(ical.PropStatus, status)
	}

	setKeywords(comp, task.Keywords)
	if err := setParticipants(comp, task.Participants); err != nil {
		return nil, err
	}
	if err := setAlerts(comp, task.Alerts); err != nil {
		return nil, err
	}

	cal.Children = append(cal.Children, comp)
	return cal, nil
}

func progressFromStatus(status string) string {
	switch strings.ToUpper(status) {
	case "NEEDS-ACTION":
		return "needs-action"
	case "IN-PROCESS":
		return "in-process"
	case "COMPLETED":
		return "completed"
	case "CANCELLED":
		return "cancelled"
	}
	return ""
}

func statusFromProgress(progress string) string {
	switch progress {
	case "needs-action", "in-process", "completed", "cancelled":
		return strings.ToUpper(progress)
	}
	return ""
}

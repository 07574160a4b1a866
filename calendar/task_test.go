package calendar

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/emersion/go-ical"

	"github.com/emersion/go-jmapcal/internal"
)

const testTaskRecord = `{
	"id": "task-1",
	"calendarIds": {"cal-1": true},
	"@type": "Task",
	"uid": "todo-abc",
	"title": "File expense report",
	"due": "2026-01-20T17:00:00",
	"timeZone": "Etc/UTC",
	"progress": "in-process"
}`

func TestGetTask(t *testing.T) {
	c, _ := newTestClient(t, func(t *testing.T, inv internal.Invocation) internal.Invocation {
		if inv.Name != methodTaskGet {
			t.Errorf("unexpected method %v", inv.Name)
		}
		return mustInvocation(t, inv.Name, map[string]interface{}{
			"accountId": "u1",
			"state":     "st-1",
			"list":      []json.RawMessage{json.RawMessage(testTaskRecord)},
		}, inv.CallID)
	})

	obj, err := c.GetTask(context.Background(), "task-1")
	if err != nil {
		t.Fatalf("GetTask() = %v", err)
	}
	if obj.ID != "task-1" {
		t.Errorf("ID = %v", obj.ID)
	}
	if obj.UID() != "todo-abc" {
		t.Errorf("UID() = %v", obj.UID())
	}

	var todo *ical.Component
	for _, child := range obj.Data.Children {
		if child.Name == ical.CompToDo {
			todo = child
		}
	}
	if todo == nil {
		t.Fatal("no VTODO in object data")
	}
	if got := todo.Props.Get(ical.PropDue).Value; got != "20260120T170000Z" {
		t.Errorf("DUE = %v", got)
	}
	if got := todo.Props.Get(ical.PropStatus).Value; got != "IN-PROCESS" {
		t.Errorf("STATUS = %v", got)
	}
}

func TestQueryTasks(t *testing.T) {
	c, _ := newTestClient(t, func(t *testing.T, inv internal.Invocation) internal.Invocation {
		switch inv.Name {
		case methodTaskQuery:
			return mustInvocation(t, inv.Name, map[string]interface{}{
				"accountId":  "u1",
				"queryState": "q-1",
				"ids":        []string{"task-1"},
			}, inv.CallID)
		case methodTaskGet:
			return mustInvocation(t, inv.Name, map[string]interface{}{
				"accountId": "u1",
				"state":     "st-1",
				"list":      []json.RawMessage{json.RawMessage(testTaskRecord)},
			}, inv.CallID)
		default:
			t.Errorf("unexpected method %v", inv.Name)
			return mustInvocation(t, "error", &internal.MethodError{Type: "unknownMethod"}, inv.CallID)
		}
	})

	objects, err := c.QueryTasks(context.Background(), &Filter{InCalendars: []string{"cal-1"}})
	if err != nil {
		t.Fatalf("QueryTasks() = %v", err)
	}
	if len(objects) != 1 || objects[0].ID != "task-1" {
		t.Errorf("objects = %+v", objects)
	}
}

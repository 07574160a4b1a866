package calendar

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/emersion/go-jmapcal"
	"github.com/emersion/go-jmapcal/internal"
	"github.com/emersion/go-jmapcal/jscalendar"
)

// GetTask fetches one task by its server-assigned ID.
func (c *Client) GetTask(ctx context.Context, id string) (*Object, error) {
	accountID, err := c.accountFor(ctx, jmapcal.CapabilityTasks)
	if err != nil {
		return nil, err
	}

	call, err := newGetCall(methodTaskGet, accountID, []string{id}, "0")
	if err != nil {
		return nil, err
	}
	resp, err := c.c.Do(ctx, taskUsing, call)
	if err != nil {
		return nil, err
	}
	inv, err := resp.Get("0")
	if err != nil {
		return nil, err
	}

	var result getResult
	if err := inv.DecodeArgs(&result); err != nil {
		return nil, err
	}
	if len(result.List) == 0 {
		return nil, &internal.MethodError{Type: "notFound", Description: fmt.Sprintf("no task with ID %q", id)}
	}

	var record taskRecord
	if err := json.Unmarshal(result.List[0], &record); err != nil {
		return nil, err
	}
	return taskRecordToObject(&record)
}

// PutTask creates a task in the given calendar from iCalendar data (a VTODO
// component). If the data has no UID, one is generated.
func (c *Client) PutTask(ctx context.Context, calendarID string, cal *ical.Calendar) (*Object, error) {
	task, err := jscalendar.TaskFromICalendar(cal)
	if err != nil {
		return nil, err
	}
	if task.UID == "" {
		task.UID = uuid.NewString()
	}

	record := taskRecord{
		CalendarIDs: map[string]bool{calendarID: true},
		Task:        *task,
	}
	clientID := uuid.NewString()

	result, err := c.doSet(ctx, methodTaskSet, taskUsing, jmapcal.CapabilityTasks, setArgs{
		Create: map[string]interface{}{clientID: &record},
	})
	if err != nil {
		return nil, err
	}
	if setErr, ok := result.NotCreated[clientID]; ok {
		return nil, setErr
	}
	created, ok := result.Created[clientID]
	if !ok {
		return nil, fmt.Errorf("calendar: server didn't acknowledge task creation")
	}

	data, err := jscalendar.TaskToICalendar(task)
	if err != nil {
		return nil, err
	}
	return &Object{ID: created.ID, CalendarID: calendarID, Data: data}, nil
}

// UpdateTask replaces the task with the given server-assigned ID with the
// provided iCalendar data, stripping server-immutable properties from the
// outgoing patch.
func (c *Client) UpdateTask(ctx context.Context, id string, cal *ical.Calendar) error {
	task, err := jscalendar.TaskFromICalendar(cal)
	if err != nil {
		return err
	}
	patch, err := updatePatch(task)
	if err != nil {
		return err
	}

	result, err := c.doSet(ctx, methodTaskSet, taskUsing, jmapcal.CapabilityTasks, setArgs{
		Update: map[string]jscalendar.PatchObject{id: patch},
	})
	if err != nil {
		return err
	}
	if setErr, ok := result.NotUpdated[id]; ok {
		return setErr
	}
	return nil
}

// RemoveTask deletes the task with the given server-assigned ID.
func (c *Client) RemoveTask(ctx context.Context, id string) error {
	result, err := c.doSet(ctx, methodTaskSet, taskUsing, jmapcal.CapabilityTasks, setArgs{
		Destroy: []string{id},
	})
	if err != nil {
		return err
	}
	if setErr, ok := result.NotDestroyed[id]; ok {
		return setErr
	}
	return nil
}

// QueryTasks searches tasks matching the filter, as a single HTTP round
// trip.
func (c *Client) QueryTasks(ctx context.Context, filter *Filter) ([]Object, error) {
	accountID, err := c.accountFor(ctx, jmapcal.CapabilityTasks)
	if err != nil {
		return nil, err
	}

	calls, err := newSearchCalls(methodTaskQuery, methodTaskGet, accountID, filter)
	if err != nil {
		return nil, err
	}
	resp, err := c.c.Do(ctx, taskUsing, calls...)
	if err != nil {
		return nil, err
	}

	inv, err := resp.Get("1")
	if err != nil {
		return nil, err
	}
	var result getResult
	if err := inv.DecodeArgs(&result); err != nil {
		return nil, err
	}

	objects := make([]Object, 0, len(result.List))
	for _, item := range result.List {
		var record taskRecord
		if err := json.Unmarshal(item, &record); err != nil {
			return nil, err
		}
		obj, err := taskRecordToObject(&record)
		if err != nil {
			return nil, err
		}
		objects = append(objects, *obj)
	}
	return objects, nil
}

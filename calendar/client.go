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

var (
	eventUsing = []string{jmapcal.CapabilityCore, jmapcal.CapabilityCalendars}
	taskUsing  = []string{jmapcal.CapabilityCore, jmapcal.CapabilityTasks}
)

// Client provides access to a remote JMAP Calendars server. Each method is a
// single logical operation and performs exactly one HTTP round trip, plus the
// one-time session bootstrap on first use.
type Client struct {
	c *jmapcal.Client
}

func NewClient(c jmapcal.HTTPClient, endpoint string) (*Client, error) {
	jc, err := jmapcal.NewClient(c, endpoint)
	if err != nil {
		return nil, err
	}
	return &Client{jc}, nil
}

// accountFor resolves the account to use for a capability. A missing
// capability URN is a hard error raised here, before any method call using
// it is attempted.
func (c *Client) accountFor(ctx context.Context, capability string) (string, error) {
	return c.c.AccountFor(ctx, capability)
}

// FindCalendars lists the calendars of the primary calendars account.
func (c *Client) FindCalendars(ctx context.Context) ([]Calendar, error) {
	accountID, err := c.accountFor(ctx, jmapcal.CapabilityCalendars)
	if err != nil {
		return nil, err
	}

	call, err := newGetAllCall(methodCalendarGet, accountID, "0")
	if err != nil {
		return nil, err
	}
	resp, err := c.c.Do(ctx, eventUsing, call)
	if err != nil {
		return nil, err
	}
	inv, err := resp.Get("0")
	if err != nil {
		return nil, err
	}

	var result struct {
		State string     `json:"state"`
		List  []Calendar `json:"list"`
	}
	if err := inv.DecodeArgs(&result); err != nil {
		return nil, err
	}
	return result.List, nil
}

// GetObject fetches one event by its server-assigned ID.
func (c *Client) GetObject(ctx context.Context, id string) (*Object, error) {
	accountID, err := c.accountFor(ctx, jmapcal.CapabilityCalendars)
	if err != nil {
		return nil, err
	}

	call, err := newGetCall(methodEventGet, accountID, []string{id}, "0")
	if err != nil {
		return nil, err
	}
	resp, err := c.c.Do(ctx, eventUsing, call)
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
		return nil, &internal.MethodError{Type: "notFound", Description: fmt.Sprintf("no event with ID %q", id)}
	}

	var record eventRecord
	if err := json.Unmarshal(result.List[0], &record); err != nil {
		return nil, err
	}
	return eventRecordToObject(&record)
}

// PutObject creates an event in the given calendar from iCalendar data. If
// the data has no UID, one is generated. The returned object carries the
// server-assigned ID and the normalized iCalendar representation.
func (c *Client) PutObject(ctx context.Context, calendarID string, cal *ical.Calendar) (*Object, error) {
	event, err := jscalendar.FromICalendar(cal)
	if err != nil {
		return nil, err
	}
	if event.UID == "" {
		event.UID = uuid.NewString()
	}

	record := eventRecord{
		CalendarIDs: map[string]bool{calendarID: true},
		Event:       *event,
	}
	clientID := uuid.NewString()

	result, err := c.doSet(ctx, methodEventSet, eventUsing, jmapcal.CapabilityCalendars, setArgs{
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
		return nil, fmt.Errorf("calendar: server didn't acknowledge event creation")
	}

	data, err := jscalendar.ToICalendar(event)
	if err != nil {
		return nil, err
	}
	return &Object{ID: created.ID, CalendarID: calendarID, Data: data}, nil
}

// UpdateObject replaces the event with the given server-assigned ID with the
// provided iCalendar data. Server-immutable properties (the UID and the
// object type) are stripped from the outgoing patch instead of triggering a
// server rejection.
func (c *Client) UpdateObject(ctx context.Context, id string, cal *ical.Calendar) error {
	event, err := jscalendar.FromICalendar(cal)
	if err != nil {
		return err
	}
	patch, err := updatePatch(event)
	if err != nil {
		return err
	}

	result, err := c.doSet(ctx, methodEventSet, eventUsing, jmapcal.CapabilityCalendars, setArgs{
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

// RemoveObject deletes the event with the given server-assigned ID.
func (c *Client) RemoveObject(ctx context.Context, id string) error {
	result, err := c.doSet(ctx, methodEventSet, eventUsing, jmapcal.CapabilityCalendars, setArgs{
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

// QueryObjects searches events matching the filter. The query and the fetch
// of the matched objects travel in a single request: a search is one HTTP
// round trip.
func (c *Client) QueryObjects(ctx context.Context, filter *Filter) ([]Object, error) {
	accountID, err := c.accountFor(ctx, jmapcal.CapabilityCalendars)
	if err != nil {
		return nil, err
	}

	calls, err := newSearchCalls(methodEventQuery, methodEventGet, accountID, filter)
	if err != nil {
		return nil, err
	}
	resp, err := c.c.Do(ctx, eventUsing, calls...)
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
	return decodeEventList(result.List)
}

func (c *Client) doSet(ctx context.Context, method string, using []string, capability string, args setArgs) (*setResult, error) {
	accountID, err := c.accountFor(ctx, capability)
	if err != nil {
		return nil, err
	}

	call, err := newSetCall(method, accountID, args, "0")
	if err != nil {
		return nil, err
	}
	resp, err := c.c.Do(ctx, using, call)
	if err != nil {
		return nil, err
	}
	inv, err := resp.Get("0")
	if err != nil {
		return nil, err
	}

	var result setResult
	if err := inv.DecodeArgs(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// updatePatch turns an object into a full-replacement patch, stripping the
// properties the server owns.
func updatePatch(v interface{}) (jscalendar.PatchObject, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var patch jscalendar.PatchObject
	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, err
	}
	delete(patch, "@type")
	delete(patch, "uid")
	delete(patch, "id")
	return patch, nil
}

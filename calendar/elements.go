package calendar

import (
	"encoding/json"

	"github.com/emersion/go-jmapcal/internal"
	"github.com/emersion/go-jmapcal/jscalendar"
)

// JMAP method names.
const (
	methodCalendarGet = "Calendar/get"

	methodEventGet     = "CalendarEvent/get"
	methodEventSet     = "CalendarEvent/set"
	methodEventQuery   = "CalendarEvent/query"
	methodEventChanges = "CalendarEvent/changes"

	methodTaskGet     = "Task/get"
	methodTaskSet     = "Task/set"
	methodTaskQuery   = "Task/query"
	methodTaskChanges = "Task/changes"
)

// eventRecord is a CalendarEvent as it appears on the wire: a JSCalendar
// Event plus the JMAP bookkeeping properties.
type eventRecord struct {
	ID          string          `json:"id,omitempty"`
	CalendarIDs map[string]bool `json:"calendarIds,omitempty"`
	jscalendar.Event
}

// taskRecord is the Task equivalent of eventRecord.
type taskRecord struct {
	ID          string          `json:"id,omitempty"`
	CalendarIDs map[string]bool `json:"calendarIds,omitempty"`
	jscalendar.Task
}

type getArgs struct {
	AccountID  string    `json:"accountId"`
	IDs        *[]string `json:"ids,omitempty"`
	Properties []string  `json:"properties,omitempty"`
}

type getBackRefArgs struct {
	AccountID string                    `json:"accountId"`
	IDsRef    *internal.ResultReference `json:"#ids"`
}

type getResult struct {
	AccountID string            `json:"accountId"`
	State     string            `json:"state"`
	List      []json.RawMessage `json:"list"`
	NotFound  []string          `json:"notFound"`
}

type setArgs struct {
	AccountID string                            `json:"accountId"`
	IfInState string                            `json:"ifInState,omitempty"`
	Create    map[string]interface{}            `json:"create,omitempty"`
	Update    map[string]jscalendar.PatchObject `json:"update,omitempty"`
	Destroy   []string                          `json:"destroy,omitempty"`
}

type idRecord struct {
	ID string `json:"id"`
}

type setResult struct {
	AccountID    string                           `json:"accountId"`
	OldState     string                           `json:"oldState"`
	NewState     string                           `json:"newState"`
	Created      map[string]idRecord              `json:"created"`
	Updated      map[string]json.RawMessage       `json:"updated"`
	Destroyed    []string                         `json:"destroyed"`
	NotCreated   map[string]*internal.MethodError `json:"notCreated"`
	NotUpdated   map[string]*internal.MethodError `json:"notUpdated"`
	NotDestroyed map[string]*internal.MethodError `json:"notDestroyed"`
}

type queryArgs struct {
	AccountID string  `json:"accountId"`
	Filter    *Filter `json:"filter,omitempty"`
	Limit     uint    `json:"limit,omitempty"`
}

type queryResult struct {
	AccountID  string   `json:"accountId"`
	QueryState string   `json:"queryState"`
	IDs        []string `json:"ids"`
}

type changesArgs struct {
	AccountID  string `json:"accountId"`
	SinceState string `json:"sinceState"`
	MaxChanges uint   `json:"maxChanges,omitempty"`
}

type changesResult struct {
	AccountID      string   `json:"accountId"`
	OldState       string   `json:"oldState"`
	NewState       string   `json:"newState"`
	HasMoreChanges bool     `json:"hasMoreChanges"`
	Created        []string `json:"created"`
	Updated        []string `json:"updated"`
	Destroyed      []string `json:"destroyed"`
}

func newGetCall(method, accountID string, ids []string, callID string) (internal.Invocation, error) {
	return internal.NewInvocation(method, &getArgs{
		AccountID: accountID,
		IDs:       &ids,
	}, callID)
}

// newStateCall requests the current state without transferring any object
// data, by asking for an empty ID set.
func newStateCall(method, accountID, callID string) (internal.Invocation, error) {
	empty := []string{}
	return internal.NewInvocation(method, &getArgs{
		AccountID: accountID,
		IDs:       &empty,
	}, callID)
}

func newGetAllCall(method, accountID, callID string) (internal.Invocation, error) {
	return internal.NewInvocation(method, &getArgs{AccountID: accountID}, callID)
}

func newSetCall(method, accountID string, args setArgs, callID string) (internal.Invocation, error) {
	args.AccountID = accountID
	return internal.NewInvocation(method, &args, callID)
}

func newChangesCall(method, accountID string, since SyncState, callID string) (internal.Invocation, error) {
	return internal.NewInvocation(method, &changesArgs{
		AccountID:  accountID,
		SinceState: string(since),
	}, callID)
}

// newSearchCalls builds a query call plus a fetch call consuming the query's
// matched IDs through a result reference. Both calls travel in the same
// request: a search is exactly one HTTP round trip.
func newSearchCalls(queryMethod, getMethod, accountID string, filter *Filter) ([]internal.Invocation, error) {
	queryCall, err := internal.NewInvocation(queryMethod, &queryArgs{
		AccountID: accountID,
		Filter:    filter,
	}, "0")
	if err != nil {
		return nil, err
	}

	getCall, err := internal.NewInvocation(getMethod, &getBackRefArgs{
		AccountID: accountID,
		IDsRef: &internal.ResultReference{
			ResultOf: "0",
			Name:     queryMethod,
			Path:     "/ids",
		},
	}, "1")
	if err != nil {
		return nil, err
	}

	return []internal.Invocation{queryCall, getCall}, nil
}

// newSyncCalls builds a changes call plus two fetch calls consuming the
// created and updated ID lists through result references, so an incremental
// sync is a single HTTP round trip. Destroyed objects can't be fetched: they
// no longer exist.
func newSyncCalls(changesMethod, getMethod, accountID string, since SyncState) ([]internal.Invocation, error) {
	changesCall, err := newChangesCall(changesMethod, accountID, since, "0")
	if err != nil {
		return nil, err
	}

	createdCall, err := internal.NewInvocation(getMethod, &getBackRefArgs{
		AccountID: accountID,
		IDsRef: &internal.ResultReference{
			ResultOf: "0",
			Name:     changesMethod,
			Path:     "/created",
		},
	}, "1")
	if err != nil {
		return nil, err
	}

	updatedCall, err := internal.NewInvocation(getMethod, &getBackRefArgs{
		AccountID: accountID,
		IDsRef: &internal.ResultReference{
			ResultOf: "0",
			Name:     changesMethod,
			Path:     "/updated",
		},
	}, "2")
	if err != nil {
		return nil, err
	}

	return []internal.Invocation{changesCall, createdCall, updatedCall}, nil
}

func decodeEventList(raw []json.RawMessage) ([]Object, error) {
	objects := make([]Object, 0, len(raw))
	for _, item := range raw {
		var record eventRecord
		if err := json.Unmarshal(item, &record); err != nil {
			return nil, err
		}
		obj, err := eventRecordToObject(&record)
		if err != nil {
			return nil, err
		}
		objects = append(objects, *obj)
	}
	return objects, nil
}

func eventRecordToObject(record *eventRecord) (*Object, error) {
	cal, err := jscalendar.ToICalendar(&record.Event)
	if err != nil {
		return nil, err
	}
	return &Object{
		ID:         record.ID,
		CalendarID: firstCalendarID(record.CalendarIDs),
		Data:       cal,
	}, nil
}

func taskRecordToObject(record *taskRecord) (*Object, error) {
	cal, err := jscalendar.TaskToICalendar(&record.Task)
	if err != nil {
		return nil, err
	}
	return &Object{
		ID:         record.ID,
		CalendarID: firstCalendarID(record.CalendarIDs),
		Data:       cal,
	}, nil
}

func firstCalendarID(ids map[string]bool) string {
	first := ""
	for id, ok := range ids {
		if !ok {
			continue
		}
		if first == "" || id < first {
			first = id
		}
	}
	return first
}

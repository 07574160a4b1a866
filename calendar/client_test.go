package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/emersion/go-ical"

	"github.com/emersion/go-jmapcal/internal"
)

const testSession = `{
	"capabilities": {"urn:ietf:params:jmap:core": {}},
	"accounts": {"u1": {
		"name": "user@example.org",
		"accountCapabilities": {
			"urn:ietf:params:jmap:calendars": {},
			"urn:ietf:params:jmap:tasks": {}
		}
	}},
	"primaryAccounts": {
		"urn:ietf:params:jmap:calendars": "u1",
		"urn:ietf:params:jmap:tasks": "u1"
	},
	"username": "user@example.org",
	"apiUrl": "/jmap/api/",
	"state": "st-1"
}`

// newTestClient starts a fake JMAP server answering each method call through
// handle, one response invocation per call. apiRequests counts API POSTs, so
// tests can assert how many HTTP round trips an operation took.
func newTestClient(t *testing.T, handle func(t *testing.T, inv internal.Invocation) internal.Invocation) (*Client, *int32) {
	t.Helper()

	apiRequests := new(int32)
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jmap", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testSession))
	})
	mux.HandleFunc("/jmap/api/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(apiRequests, 1)

		var req internal.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := internal.Response{SessionState: "st-1"}
		for _, inv := range req.MethodCalls {
			resp.MethodResponses = append(resp.MethodResponses, handle(t, inv))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&resp)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}
	return c, apiRequests
}

func mustInvocation(t *testing.T, name string, args interface{}, callID string) internal.Invocation {
	t.Helper()
	inv, err := internal.NewInvocation(name, args, callID)
	if err != nil {
		t.Fatalf("NewInvocation() = %v", err)
	}
	return inv
}

func TestFindCalendars(t *testing.T) {
	c, apiRequests := newTestClient(t, func(t *testing.T, inv internal.Invocation) internal.Invocation {
		if inv.Name != methodCalendarGet {
			t.Errorf("unexpected method %v", inv.Name)
		}
		return mustInvocation(t, inv.Name, map[string]interface{}{
			"accountId": "u1",
			"state":     "st-1",
			"list": []map[string]interface{}{
				{"id": "cal-1", "name": "Personal", "color": "#3a429c", "isVisible": true, "mayAddItems": true},
				{"id": "cal-2", "name": "Work", "isDefault": true},
			},
		}, inv.CallID)
	})

	ctx := context.Background()
	calendars, err := c.FindCalendars(ctx)
	if err != nil {
		t.Fatalf("FindCalendars() = %v", err)
	}
	if len(calendars) != 2 {
		t.Fatalf("len(calendars) = %v, want 2", len(calendars))
	}
	if calendars[0].Name != "Personal" || calendars[0].Color != "#3a429c" || !calendars[0].IsVisible {
		t.Errorf("calendars[0] = %+v", calendars[0])
	}
	if !calendars[1].IsDefault {
		t.Errorf("calendars[1] = %+v", calendars[1])
	}

	// The session is cached: a second listing is one more API request, not a
	// second bootstrap.
	if _, err := c.FindCalendars(ctx); err != nil {
		t.Fatalf("FindCalendars() = %v", err)
	}
	if n := atomic.LoadInt32(apiRequests); n != 2 {
		t.Errorf("API requests = %v, want 2", n)
	}
}

const testEventRecord = `{
	"id": "ev-1",
	"calendarIds": {"cal-1": true},
	"@type": "Event",
	"uid": "abc-123",
	"title": "Team sync",
	"start": "2026-01-15T10:00:00",
	"timeZone": "Etc/UTC",
	"duration": "PT1H"
}`

func TestGetObject(t *testing.T) {
	c, _ := newTestClient(t, func(t *testing.T, inv internal.Invocation) internal.Invocation {
		var args getArgs
		if err := inv.DecodeArgs(&args); err != nil {
			t.Fatalf("DecodeArgs() = %v", err)
		}
		if args.IDs == nil || len(*args.IDs) != 1 || (*args.IDs)[0] != "ev-1" {
			t.Errorf("ids = %v", args.IDs)
		}
		return mustInvocation(t, inv.Name, map[string]interface{}{
			"accountId": "u1",
			"state":     "st-1",
			"list":      []json.RawMessage{json.RawMessage(testEventRecord)},
		}, inv.CallID)
	})

	obj, err := c.GetObject(context.Background(), "ev-1")
	if err != nil {
		t.Fatalf("GetObject() = %v", err)
	}
	if obj.ID != "ev-1" {
		t.Errorf("ID = %v", obj.ID)
	}
	if obj.CalendarID != "cal-1" {
		t.Errorf("CalendarID = %v", obj.CalendarID)
	}
	if obj.UID() != "abc-123" {
		t.Errorf("UID() = %v", obj.UID())
	}

	var event *ical.Component
	for _, child := range obj.Data.Children {
		if child.Name == ical.CompEvent {
			event = child
		}
	}
	if event == nil {
		t.Fatal("no VEVENT in object data")
	}
	if got := event.Props.Get(ical.PropSummary).Value; got != "Team sync" {
		t.Errorf("SUMMARY = %v", got)
	}
	if got := event.Props.Get(ical.PropDateTimeStart).Value; got != "20260115T100000Z" {
		t.Errorf("DTSTART = %v", got)
	}
}

func TestGetObject_NotFound(t *testing.T) {
	c, _ := newTestClient(t, func(t *testing.T, inv internal.Invocation) internal.Invocation {
		return mustInvocation(t, inv.Name, map[string]interface{}{
			"accountId": "u1",
			"state":     "st-1",
			"list":      []json.RawMessage{},
			"notFound":  []string{"ev-nope"},
		}, inv.CallID)
	})

	_, err := c.GetObject(context.Background(), "ev-nope")
	var methodErr *internal.MethodError
	if !errors.As(err, &methodErr) {
		t.Fatalf("GetObject() = %v, want *MethodError", err)
	}
	if methodErr.Type != "notFound" {
		t.Errorf("Type = %v", methodErr.Type)
	}
}

func TestPutObject(t *testing.T) {
	c, _ := newTestClient(t, func(t *testing.T, inv internal.Invocation) internal.Invocation {
		if inv.Name != methodEventSet {
			t.Errorf("unexpected method %v", inv.Name)
		}
		var args struct {
			AccountID string                     `json:"accountId"`
			Create    map[string]json.RawMessage `json:"create"`
		}
		if err := inv.DecodeArgs(&args); err != nil {
			t.Fatalf("DecodeArgs() = %v", err)
		}
		if len(args.Create) != 1 {
			t.Fatalf("len(create) = %v, want 1", len(args.Create))
		}

		created := map[string]idRecord{}
		for clientID, raw := range args.Create {
			var record eventRecord
			if err := json.Unmarshal(raw, &record); err != nil {
				t.Fatalf("Unmarshal() = %v", err)
			}
			if !record.CalendarIDs["cal-1"] {
				t.Errorf("calendarIds = %v", record.CalendarIDs)
			}
			if record.Title != "Team sync" {
				t.Errorf("title = %v", record.Title)
			}
			if record.UID == "" {
				t.Error("a missing UID should have been generated")
			}
			created[clientID] = idRecord{ID: "ev-9"}
		}
		return mustInvocation(t, inv.Name, map[string]interface{}{
			"accountId": "u1",
			"oldState":  "st-1",
			"newState":  "st-2",
			"created":   created,
		}, inv.CallID)
	})

	cal, err := ical.NewDecoder(strings.NewReader(`BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
DTSTAMP:20260101T000000Z
DTSTART:20260115T100000Z
DTEND:20260115T110000Z
SUMMARY:Team sync
END:VEVENT
END:VCALENDAR
`)).Decode()
	if err != nil {
		t.Fatal(err)
	}

	obj, err := c.PutObject(context.Background(), "cal-1", cal)
	if err != nil {
		t.Fatalf("PutObject() = %v", err)
	}
	if obj.ID != "ev-9" {
		t.Errorf("ID = %v, want ev-9", obj.ID)
	}
	if obj.CalendarID != "cal-1" {
		t.Errorf("CalendarID = %v", obj.CalendarID)
	}
	if obj.UID() == "" {
		t.Error("returned object has no UID")
	}
}

func TestUpdateObject_StripsImmutableProps(t *testing.T) {
	c, _ := newTestClient(t, func(t *testing.T, inv internal.Invocation) internal.Invocation {
		var args struct {
			Update map[string]map[string]interface{} `json:"update"`
		}
		if err := inv.DecodeArgs(&args); err != nil {
			t.Fatalf("DecodeArgs() = %v", err)
		}
		patch := args.Update["ev-1"]
		if patch == nil {
			t.Fatalf("update = %v", args.Update)
		}
		for _, key := range []string{"@type", "uid", "id"} {
			if _, ok := patch[key]; ok {
				t.Errorf("patch contains server-owned property %q", key)
			}
		}
		if patch["title"] != "Renamed" {
			t.Errorf("title = %v", patch["title"])
		}
		return mustInvocation(t, inv.Name, map[string]interface{}{
			"accountId": "u1",
			"oldState":  "st-1",
			"newState":  "st-2",
			"updated":   map[string]interface{}{"ev-1": nil},
		}, inv.CallID)
	})

	cal, err := ical.NewDecoder(strings.NewReader(`BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:abc-123
DTSTAMP:20260101T000000Z
DTSTART:20260115T100000Z
SUMMARY:Renamed
END:VEVENT
END:VCALENDAR
`)).Decode()
	if err != nil {
		t.Fatal(err)
	}

	if err := c.UpdateObject(context.Background(), "ev-1", cal); err != nil {
		t.Fatalf("UpdateObject() = %v", err)
	}
}

func TestRemoveObject_Rejected(t *testing.T) {
	c, _ := newTestClient(t, func(t *testing.T, inv internal.Invocation) internal.Invocation {
		return mustInvocation(t, inv.Name, map[string]interface{}{
			"accountId": "u1",
			"oldState":  "st-1",
			"newState":  "st-1",
			"notDestroyed": map[string]*internal.MethodError{
				"ev-1": {Type: "forbidden"},
			},
		}, inv.CallID)
	})

	err := c.RemoveObject(context.Background(), "ev-1")
	var methodErr *internal.MethodError
	if !errors.As(err, &methodErr) {
		t.Fatalf("RemoveObject() = %v, want *MethodError", err)
	}
	if methodErr.Type != "forbidden" {
		t.Errorf("Type = %v", methodErr.Type)
	}
}

func TestQueryObjects_SingleRoundTrip(t *testing.T) {
	c, apiRequests := newTestClient(t, func(t *testing.T, inv internal.Invocation) internal.Invocation {
		switch inv.Name {
		case methodEventQuery:
			var args queryArgs
			if err := inv.DecodeArgs(&args); err != nil {
				t.Fatalf("DecodeArgs() = %v", err)
			}
			if args.Filter == nil || args.Filter.Text != "sync" {
				t.Errorf("filter = %+v", args.Filter)
			}
			return mustInvocation(t, inv.Name, map[string]interface{}{
				"accountId":  "u1",
				"queryState": "q-1",
				"ids":        []string{"ev-1"},
			}, inv.CallID)
		case methodEventGet:
			return mustInvocation(t, inv.Name, map[string]interface{}{
				"accountId": "u1",
				"state":     "st-1",
				"list":      []json.RawMessage{json.RawMessage(testEventRecord)},
			}, inv.CallID)
		default:
			t.Errorf("unexpected method %v", inv.Name)
			return mustInvocation(t, "error", &internal.MethodError{Type: "unknownMethod"}, inv.CallID)
		}
	})

	objects, err := c.QueryObjects(context.Background(), &Filter{Text: "sync"})
	if err != nil {
		t.Fatalf("QueryObjects() = %v", err)
	}
	if len(objects) != 1 {
		t.Fatalf("len(objects) = %v, want 1", len(objects))
	}
	if objects[0].ID != "ev-1" {
		t.Errorf("ID = %v", objects[0].ID)
	}
	if n := atomic.LoadInt32(apiRequests); n != 1 {
		t.Errorf("API requests = %v, want 1", n)
	}
}

package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/emersion/go-jmapcal/internal"
)

func TestSyncToken(t *testing.T) {
	c, _ := newTestClient(t, func(t *testing.T, inv internal.Invocation) internal.Invocation {
		var args getArgs
		if err := inv.DecodeArgs(&args); err != nil {
			t.Fatalf("DecodeArgs() = %v", err)
		}
		// The token fetch must not transfer any object data.
		if args.IDs == nil || len(*args.IDs) != 0 {
			t.Errorf("ids = %v, want an explicit empty list", args.IDs)
		}
		return mustInvocation(t, inv.Name, map[string]interface{}{
			"accountId": "u1",
			"state":     "tok-1",
			"list":      []json.RawMessage{},
		}, inv.CallID)
	})

	tok, err := c.SyncToken(context.Background())
	if err != nil {
		t.Fatalf("SyncToken() = %v", err)
	}
	if tok != "tok-1" {
		t.Errorf("SyncToken() = %v, want tok-1", tok)
	}
}

func TestSyncObjects(t *testing.T) {
	c, apiRequests := newTestClient(t, func(t *testing.T, inv internal.Invocation) internal.Invocation {
		switch inv.Name {
		case methodEventChanges:
			var args changesArgs
			if err := inv.DecodeArgs(&args); err != nil {
				t.Fatalf("DecodeArgs() = %v", err)
			}
			if args.SinceState != "tok-1" {
				t.Errorf("sinceState = %v", args.SinceState)
			}
			return mustInvocation(t, inv.Name, map[string]interface{}{
				"accountId":      "u1",
				"oldState":       "tok-1",
				"newState":       "tok-2",
				"hasMoreChanges": false,
				"created":        []string{"ev-1"},
				"updated":        []string{},
				"destroyed":      []string{"ev-2"},
			}, inv.CallID)
		case methodEventGet:
			list := []json.RawMessage{}
			if inv.CallID == "1" {
				list = append(list, json.RawMessage(testEventRecord))
			}
			return mustInvocation(t, inv.Name, map[string]interface{}{
				"accountId": "u1",
				"state":     "tok-2",
				"list":      list,
			}, inv.CallID)
		default:
			t.Errorf("unexpected method %v", inv.Name)
			return mustInvocation(t, "error", &internal.MethodError{Type: "unknownMethod"}, inv.CallID)
		}
	})

	changes, err := c.SyncObjects(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("SyncObjects() = %v", err)
	}
	if changes.State != "tok-2" {
		t.Errorf("State = %v, want tok-2", changes.State)
	}
	if len(changes.Created) != 1 || changes.Created[0].ID != "ev-1" {
		t.Errorf("Created = %+v", changes.Created)
	}
	if len(changes.Updated) != 0 {
		t.Errorf("Updated = %+v", changes.Updated)
	}
	if len(changes.Destroyed) != 1 || changes.Destroyed[0] != "ev-2" {
		t.Errorf("Destroyed = %v", changes.Destroyed)
	}

	// Changes plus both fetches travel in one request.
	if n := atomic.LoadInt32(apiRequests); n != 1 {
		t.Errorf("API requests = %v, want 1", n)
	}
}

func TestSyncObjects_Truncated(t *testing.T) {
	c, _ := newTestClient(t, func(t *testing.T, inv internal.Invocation) internal.Invocation {
		switch inv.Name {
		case methodEventChanges:
			return mustInvocation(t, inv.Name, map[string]interface{}{
				"accountId":      "u1",
				"oldState":       "tok-1",
				"newState":       "tok-1b",
				"hasMoreChanges": true,
				"created":        []string{"ev-1"},
				"updated":        []string{},
				"destroyed":      []string{},
			}, inv.CallID)
		default:
			return mustInvocation(t, inv.Name, map[string]interface{}{
				"accountId": "u1",
				"state":     "tok-1b",
				"list":      []json.RawMessage{json.RawMessage(testEventRecord)},
			}, inv.CallID)
		}
	})

	// A partial delta is never exposed: no objects, no intermediate token.
	changes, err := c.SyncObjects(context.Background(), "tok-1")
	var truncErr *SyncTruncatedError
	if !errors.As(err, &truncErr) {
		t.Fatalf("SyncObjects() = %v, want *SyncTruncatedError", err)
	}
	if truncErr.Since != "tok-1" {
		t.Errorf("Since = %v, want tok-1", truncErr.Since)
	}
	if changes != nil {
		t.Errorf("changes = %+v, want nil", changes)
	}
}

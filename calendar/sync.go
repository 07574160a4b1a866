package calendar

import (
	"context"

	"github.com/emersion/go-jmapcal"
)

// SyncToken fetches the current sync state of the events account without
// transferring any object data. It is the entry point of incremental sync
// and the only recovery path after a SyncTruncatedError.
func (c *Client) SyncToken(ctx context.Context) (SyncState, error) {
	accountID, err := c.accountFor(ctx, jmapcal.CapabilityCalendars)
	if err != nil {
		return "", err
	}

	call, err := newStateCall(methodEventGet, accountID, "0")
	if err != nil {
		return "", err
	}
	resp, err := c.c.Do(ctx, eventUsing, call)
	if err != nil {
		return "", err
	}
	inv, err := resp.Get("0")
	if err != nil {
		return "", err
	}

	var result getResult
	if err := inv.DecodeArgs(&result); err != nil {
		return "", err
	}
	return SyncState(result.State), nil
}

// SyncObjects fetches the changes since the given token, in a single HTTP
// round trip: the changes call plus back-referenced fetches of the created
// and updated objects.
//
// If the server reports that the change log was too large to return in full,
// SyncObjects returns a *SyncTruncatedError and nothing else: no objects, no
// new token. The since token has not been consumed, but it is not a safe
// resumption point either; the caller must re-baseline with SyncToken.
func (c *Client) SyncObjects(ctx context.Context, since SyncState) (*SyncChanges, error) {
	accountID, err := c.accountFor(ctx, jmapcal.CapabilityCalendars)
	if err != nil {
		return nil, err
	}

	calls, err := newSyncCalls(methodEventChanges, methodEventGet, accountID, since)
	if err != nil {
		return nil, err
	}
	resp, err := c.c.Do(ctx, eventUsing, calls...)
	if err != nil {
		return nil, err
	}

	inv, err := resp.Get("0")
	if err != nil {
		return nil, err
	}
	var changes changesResult
	if err := inv.DecodeArgs(&changes); err != nil {
		return nil, err
	}
	if changes.HasMoreChanges {
		return nil, &SyncTruncatedError{Since: since}
	}

	createdInv, err := resp.Get("1")
	if err != nil {
		return nil, err
	}
	var createdResult getResult
	if err := createdInv.DecodeArgs(&createdResult); err != nil {
		return nil, err
	}
	created, err := decodeEventList(createdResult.List)
	if err != nil {
		return nil, err
	}

	updatedInv, err := resp.Get("2")
	if err != nil {
		return nil, err
	}
	var updatedResult getResult
	if err := updatedInv.DecodeArgs(&updatedResult); err != nil {
		return nil, err
	}
	updated, err := decodeEventList(updatedResult.List)
	if err != nil {
		return nil, err
	}

	return &SyncChanges{
		State:     SyncState(changes.NewState),
		Created:   created,
		Updated:   updated,
		Destroyed: changes.Destroyed,
	}, nil
}

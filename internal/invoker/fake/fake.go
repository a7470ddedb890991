// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package fake

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/mia-platform/erpsync/internal/invoker"
)

var _ invoker.Invoker = &Invoker{}

// Call is a sync request received by the fake.
type Call struct {
	ConnectorID string
	Target      string
	Limit       int
}

// Invoker records every sync request. Errors returns the error to use for a connector
// and target pair, keyed as "connectorID/target".
type Invoker struct {
	tb testing.TB

	Errors map[string]error
	// Block, when set, holds every call until it is closed.
	Block chan struct{}
	// Started receives a value when a call begins, if set.
	Started chan Call

	lock  sync.Mutex
	calls []Call
}

func NewInvoker(tb testing.TB) *Invoker {
	tb.Helper()
	return &Invoker{
		tb:     tb,
		Errors: make(map[string]error),
	}
}

func (f *Invoker) Sync(ctx context.Context, connectorID, target string, limit int) (*invoker.Result, error) {
	f.tb.Helper()

	call := Call{ConnectorID: connectorID, Target: target, Limit: limit}
	f.lock.Lock()
	f.calls = append(f.calls, call)
	err := f.Errors[Key(connectorID, target)]
	f.lock.Unlock()

	if f.Started != nil {
		f.Started <- call
	}

	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	return &invoker.Result{StatusCode: http.StatusAccepted}, nil
}

// Calls returns a copy of the requests received so far, in arrival order.
func (f *Invoker) Calls() []Call {
	f.lock.Lock()
	defer f.lock.Unlock()

	calls := make([]Call, len(f.calls))
	copy(calls, f.calls)
	return calls
}

// Fail sets the error returned for connectorID and target.
func (f *Invoker) Fail(connectorID, target string, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Errors[Key(connectorID, target)] = err
}

func Key(connectorID, target string) string {
	return connectorID + "/" + target
}

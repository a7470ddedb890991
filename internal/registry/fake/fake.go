// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package fake

import (
	"context"
	"sync"
	"testing"

	"github.com/mia-platform/erpsync/internal/registry"
)

var _ registry.Registry = &Registry{}

// Registry is an in-memory registry.Registry that records how many times it has been queried.
type Registry struct {
	tb testing.TB

	Connectors []registry.Connector
	// ListError is returned by ListConnectors when set.
	ListError error
	// FallbackError is returned by ListConnectorsWithoutAutoSync when set.
	FallbackError error

	lock          sync.Mutex
	listCalls     int
	fallbackCalls int
}

// NewRegistry returns a Registry serving connectors.
func NewRegistry(tb testing.TB, connectors ...registry.Connector) *Registry {
	tb.Helper()
	return &Registry{
		tb:         tb,
		Connectors: connectors,
	}
}

// ListConnectors implements registry.Registry.
func (r *Registry) ListConnectors(_ context.Context) ([]registry.Connector, error) {
	r.tb.Helper()

	r.lock.Lock()
	defer r.lock.Unlock()
	r.listCalls++
	if r.ListError != nil {
		return nil, r.ListError
	}

	return append([]registry.Connector(nil), r.Connectors...), nil
}

// ListConnectorsWithoutAutoSync implements registry.Registry.
func (r *Registry) ListConnectorsWithoutAutoSync(_ context.Context) ([]registry.Connector, error) {
	r.tb.Helper()

	r.lock.Lock()
	defer r.lock.Unlock()
	r.fallbackCalls++
	if r.FallbackError != nil {
		return nil, r.FallbackError
	}

	connectors := make([]registry.Connector, 0, len(r.Connectors))
	for _, connector := range r.Connectors {
		connectors = append(connectors, registry.Connector{ID: connector.ID, Status: connector.Status})
	}
	return connectors, nil
}

// ListCalls returns how many times ListConnectors has been called.
func (r *Registry) ListCalls() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.listCalls
}

// FallbackCalls returns how many times ListConnectorsWithoutAutoSync has been called.
func (r *Registry) FallbackCalls() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.fallbackCalls
}

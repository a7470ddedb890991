// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package invoker

import (
	"context"
)

// Invoker starts the sync of one connector against one target.
type Invoker interface {
	// Sync blocks until the sync endpoint answers or the request times out. A nil error
	// always comes with a non nil Result holding a 2xx status code.
	Sync(ctx context.Context, connectorID, target string, limit int) (*Result, error)
}

// Result is the answer of a successful sync request.
type Result struct {
	StatusCode int
	Body       []byte
}

// SyncRequest is the JSON body sent to the sync endpoint.
type SyncRequest struct {
	Limit int `json:"limit"`
}

// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package invoker

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrTimeout is matched by sync errors caused by the request deadline.
	ErrTimeout = errors.New("sync request timed out")
	// ErrUnexpectedStatus is matched by sync errors caused by a non 2xx answer.
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// SyncError describes a failed sync request for a connector target.
type SyncError struct {
	ConnectorID string
	Target      string
	// StatusCode and Body are set only when the endpoint answered.
	StatusCode int
	Body       string

	err error
}

func (e *SyncError) Error() string {
	message := fmt.Sprintf("sync connector %q target %q", e.ConnectorID, e.Target)
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", message, e.StatusCode, e.Body)
	}

	return message + ": " + e.err.Error()
}

func (e *SyncError) Unwrap() error {
	return e.err
}

// statusError builds the error for an endpoint answer outside the 2xx range.
func statusError(connectorID, target string, statusCode int, body []byte) error {
	return &SyncError{
		ConnectorID: connectorID,
		Target:      target,
		StatusCode:  statusCode,
		Body:        string(body),
		err:         ErrUnexpectedStatus,
	}
}

// requestError wraps transport level failures, marking timeouts with ErrTimeout.
func requestError(connectorID, target string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return &SyncError{
		ConnectorID: connectorID,
		Target:      target,
		err:         err,
	}
}

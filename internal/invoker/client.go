// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/mia-platform/erpsync/internal/info"
	"github.com/mia-platform/erpsync/internal/logger"
)

const (
	loggerName = "erpsync:invoker"

	// DefaultTimeout bounds a whole sync request, response body included.
	DefaultTimeout = 60 * time.Second

	maxResponseBodySize = 1 << 20
)

var _ Invoker = &Client{}

// Client calls POST /erp/connectors/{id}/sync on the warehouse application.
type Client struct {
	config

	timeout time.Duration
	client  atomic.Pointer[http.Client]
}

// NewClient returns a Client configured from the environment.
func NewClient() (*Client, error) {
	config, err := loadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	return &Client{
		config:  *config,
		timeout: DefaultTimeout,
	}, nil
}

// Sync implements Invoker. It performs exactly one request, without retries.
func (c *Client) Sync(ctx context.Context, connectorID, target string, limit int) (*Result, error) {
	log := logger.FromContext(ctx).WithName(loggerName)

	body, err := json.Marshal(SyncRequest{Limit: limit})
	if err != nil {
		return nil, requestError(connectorID, target, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.syncURL(connectorID, target), bytes.NewReader(body))
	if err != nil {
		return nil, requestError(connectorID, target, err)
	}

	request.Header.Set("User-Agent", info.UserAgent())
	request.Header.Set("Accept", "application/json")
	request.Header.Set("Content-Type", "application/json")

	log.Trace("sending sync request", "connectorId", connectorID, "target", target, "url", request.URL.String())

	//nolint:contextcheck // need a new context because it will be used in token requests
	resp, err := c.getClient(context.Background()).Do(request)
	if err != nil {
		return nil, requestError(connectorID, target, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, requestError(connectorID, target, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, statusError(connectorID, target, resp.StatusCode, respBody)
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Body:       respBody,
	}, nil
}

// syncURL returns the endpoint for connectorID with the escaped target query parameter.
func (c *Client) syncURL(connectorID, target string) string {
	query := url.Values{}
	query.Set("target", target)
	return c.baseURL + "/erp/connectors/" + url.PathEscape(connectorID) + "/sync?" + query.Encode()
}

func (c *Client) getClient(ctx context.Context) *http.Client {
	client := c.client.Load()
	if client != nil {
		return client
	}

	client = &http.Client{
		Timeout:   c.timeout,
		Transport: newTransport(context.WithoutCancel(ctx), c.AuthEndpoint, c.ClientID, c.ClientSecret),
	}
	// concurrent first calls share the client, and its token source, that got stored first
	if !c.client.CompareAndSwap(nil, client) {
		return c.client.Load()
	}
	return client
}

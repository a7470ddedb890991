// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package invoker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/erpsync/internal/info"
)

func testClient(tb testing.TB, baseURL string, timeout time.Duration) *Client {
	tb.Helper()

	return &Client{
		config: config{
			baseURL: baseURL,
		},
		timeout: timeout,
	}
}

func TestNewClient(t *testing.T) {
	t.Setenv("APP_PORT", "4000")

	client, err := NewClient()
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, client.timeout)
	assert.Equal(t, "http://localhost:4000", client.baseURL)
	assert.Equal(t, http.DefaultTransport, client.getClient(t.Context()).Transport)
	assert.Same(t, client.getClient(t.Context()), client.getClient(t.Context()))
}

func TestSyncURL(t *testing.T) {
	t.Parallel()

	client := testClient(t, "http://localhost:3000", DefaultTimeout)
	assert.Equal(t, "http://localhost:3000/erp/connectors/sap-main/sync?target=products", client.syncURL("sap-main", "products"))
	assert.Equal(t, "http://localhost:3000/erp/connectors/a%2Fb%20c/sync?target=price+lists%26more", client.syncURL("a/b c", "price lists&more"))
}

func TestSync(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		statusCode      int
		responseBody    string
		expectedResult  *Result
		expectedError   error
		expectedMessage string
	}{
		"accepted": {
			statusCode:     http.StatusAccepted,
			responseBody:   `{"synced":12}`,
			expectedResult: &Result{StatusCode: http.StatusAccepted, Body: []byte(`{"synced":12}`)},
		},
		"ok without body": {
			statusCode:     http.StatusOK,
			expectedResult: &Result{StatusCode: http.StatusOK, Body: []byte{}},
		},
		"server error": {
			statusCode:      http.StatusInternalServerError,
			responseBody:    `{"message":"erp unreachable"}`,
			expectedError:   ErrUnexpectedStatus,
			expectedMessage: `sync connector "sap-main" target "products": status 500: {"message":"erp unreachable"}`,
		},
		"conflict": {
			statusCode:      http.StatusConflict,
			responseBody:    "already syncing",
			expectedError:   ErrUnexpectedStatus,
			expectedMessage: `sync connector "sap-main" target "products": status 409: already syncing`,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/erp/connectors/sap-main/sync", r.URL.Path)
				assert.Equal(t, "products", r.URL.Query().Get("target"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, info.UserAgent(), r.Header.Get("User-Agent"))

				body, err := io.ReadAll(r.Body)
				assert.NoError(t, err)
				assert.JSONEq(t, `{"limit":50}`, string(body))

				w.WriteHeader(test.statusCode)
				_, _ = w.Write([]byte(test.responseBody))
			}))
			defer server.Close()

			client := testClient(t, server.URL, time.Second)
			result, err := client.Sync(t.Context(), "sap-main", "products", 50)
			if test.expectedError != nil {
				require.ErrorIs(t, err, test.expectedError)
				assert.Equal(t, test.expectedMessage, err.Error())
				assert.Nil(t, result)

				var syncErr *SyncError
				require.ErrorAs(t, err, &syncErr)
				assert.Equal(t, "sap-main", syncErr.ConnectorID)
				assert.Equal(t, "products", syncErr.Target)
				assert.Equal(t, test.statusCode, syncErr.StatusCode)
				assert.Equal(t, test.responseBody, syncErr.Body)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expectedResult, result)
		})
	}
}

func TestSyncTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 50*time.Millisecond)
	result, err := client.Sync(t.Context(), "sap-main", "prices", 10)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Nil(t, result)

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, "sap-main", syncErr.ConnectorID)
	assert.Equal(t, "prices", syncErr.Target)
	assert.Zero(t, syncErr.StatusCode)
}

func TestSyncConnectionError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	serverURL := server.URL
	server.Close()

	client := testClient(t, serverURL, time.Second)
	result, err := client.Sync(t.Context(), "sap-main", "products", 50)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrUnexpectedStatus)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), `sync connector "sap-main" target "products": `)
}

func TestSyncWithClientCredentials(t *testing.T) {
	t.Parallel()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID, clientSecret, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", clientID)
		assert.Equal(t, "client-secret", clientSecret)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "service-token",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenServer.Close()

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer service-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer apiServer.Close()

	client := &Client{
		config: config{
			baseURL:      apiServer.URL,
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			AuthEndpoint: tokenServer.URL,
		},
		timeout: time.Second,
	}

	result, err := client.Sync(t.Context(), "sap-main", "products", 50)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, result.StatusCode)
}

func TestConcurrentSyncsShareToken(t *testing.T) {
	t.Parallel()

	var tokenRequests atomic.Int32
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		tokenRequests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "service-token",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenServer.Close()

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer service-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer apiServer.Close()

	client := &Client{
		config: config{
			baseURL:      apiServer.URL,
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			AuthEndpoint: tokenServer.URL,
		},
		timeout: time.Second,
	}

	const workers = 8
	start := make(chan struct{})
	clients := make([]*http.Client, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Go(func() {
			<-start
			clients[i] = client.getClient(t.Context())
			_, err := client.Sync(t.Context(), "sap-main", "products", 50)
			assert.NoError(t, err)
		})
	}
	close(start)
	wg.Wait()

	for _, c := range clients {
		assert.Same(t, clients[0], c)
	}
	assert.Equal(t, int32(1), tokenRequests.Load())
}

func TestClientOutlivesFirstContext(t *testing.T) {
	t.Parallel()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "service-token", "token_type": "bearer"})
	}))
	defer tokenServer.Close()

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer apiServer.Close()

	client := &Client{
		config: config{
			baseURL:      apiServer.URL,
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			AuthEndpoint: tokenServer.URL,
		},
		timeout: time.Second,
	}

	ctx, cancel := context.WithCancel(t.Context())
	client.getClient(ctx)
	cancel()

	result, err := client.Sync(t.Context(), "sap-main", "products", 50)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, result.StatusCode)
}

// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package registry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func boolPtr(value bool) *bool {
	return &value
}

func TestConnectorEligible(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		connector Connector
		expected  bool
	}{
		"idle with auto sync": {
			connector: Connector{ID: "a", Status: "idle", AutoSync: boolPtr(true)},
			expected:  true,
		},
		"syncing with auto sync": {
			connector: Connector{ID: "b", Status: "syncing", AutoSync: boolPtr(true)},
		},
		"syncing in upper case": {
			connector: Connector{ID: "b", Status: "SYNCING", AutoSync: boolPtr(true)},
		},
		"idle without auto sync": {
			connector: Connector{ID: "c", Status: "idle", AutoSync: boolPtr(false)},
		},
		"auto sync unknown": {
			connector: Connector{ID: "d", Status: "idle"},
		},
		"empty status with auto sync": {
			connector: Connector{ID: "e", AutoSync: boolPtr(true)},
			expected:  true,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.expected, test.connector.Eligible())
		})
	}
}

func TestIsAutoSyncUnavailable(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		err      error
		expected bool
	}{
		"nil error": {},
		"sentinel": {
			err:      ErrAutoSyncUnavailable,
			expected: true,
		},
		"wrapped sentinel": {
			err:      fmt.Errorf("listing: %w", ErrAutoSyncUnavailable),
			expected: true,
		},
		"postgres undefined column": {
			err:      &pgconn.PgError{Code: "42703", Message: `column "auto_sync" does not exist`},
			expected: true,
		},
		"postgres undefined column on another column": {
			err: &pgconn.PgError{Code: "42703", Message: `column "status" does not exist`},
		},
		"postgres other error": {
			err: &pgconn.PgError{Code: "42P01", Message: `relation "erp_connectors" does not exist`},
		},
		"driver message matching": {
			err:      errors.New("column erp_connectors.auto_sync does not exist"),
			expected: true,
		},
		"driver message in different case": {
			err:      errors.New("ERROR: COLUMN erp_connectors.AUTO_SYNC DOES NOT EXIST"),
			expected: true,
		},
		"unrelated error": {
			err: errors.New("connection refused"),
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.expected, IsAutoSyncUnavailable(test.err))
		})
	}
}

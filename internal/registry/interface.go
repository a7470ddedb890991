// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package registry

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	// StatusSyncing is the connector status set by the sync endpoint while a sync is outstanding.
	StatusSyncing = "syncing"

	autoSyncColumn = "auto_sync"

	// undefinedColumnCode is the Postgres SQLSTATE for undefined_column.
	undefinedColumnCode = "42703"
)

var (
	// ErrAutoSyncUnavailable reports that the registry cannot tell which connectors opted in to auto sync.
	ErrAutoSyncUnavailable = errors.New("auto_sync column not available")

	missingAutoSyncPattern = regexp.MustCompile(`(?i)auto_sync.*does not exist|column.*auto_sync`)
)

// Connector is the subset of an ERP connector needed to decide if it must be synced.
type Connector struct {
	ID     string
	Status string
	// AutoSync is nil when the registry has no auto_sync information.
	AutoSync *bool
}

// Eligible reports whether the connector must be synced automatically.
func (c Connector) Eligible() bool {
	if strings.ToLower(c.Status) == StatusSyncing {
		return false
	}

	return c.AutoSync != nil && *c.AutoSync
}

// Registry lists connectors.
type Registry interface {
	// ListConnectors returns id, status and auto_sync of every connector. It returns an error
	// matching ErrAutoSyncUnavailable when the auto_sync information does not exist.
	ListConnectors(ctx context.Context) ([]Connector, error)

	// ListConnectorsWithoutAutoSync returns id and status of every connector, AutoSync is always nil.
	ListConnectorsWithoutAutoSync(ctx context.Context) ([]Connector, error)
}

// IsAutoSyncUnavailable reports whether err means that the auto_sync column is missing.
func IsAutoSyncUnavailable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrAutoSyncUnavailable) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == undefinedColumnCode && strings.Contains(pgErr.Message, autoSyncColumn)
	}

	return missingAutoSyncPattern.MatchString(err.Error())
}

// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mia-platform/erpsync/internal/logger"
)

const (
	loggerName = "erpsync:registry"

	connectorsTable = "erp_connectors"

	listConnectorsQuery              = "SELECT id::text, coalesce(status, ''), auto_sync FROM " + connectorsTable
	listConnectorsWithoutAutoSyncSQL = "SELECT id::text, coalesce(status, '') FROM " + connectorsTable
	autoSyncColumnExistsQuery        = `SELECT EXISTS (
	SELECT 1 FROM information_schema.columns
	WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2
)`
)

var (
	ErrDatabaseConfig     = errors.New("database configuration not valid")
	ErrDatabaseConnection = errors.New("database connection error")
)

// postgresConfig holds the environment-driven connection settings.
type postgresConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	MaxConns    int32  `env:"DATABASE_MAX_CONNS" envDefault:"4"`
}

// querier is the subset of pgxpool.Pool used by the registry.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Registry = &Postgres{}

// Postgres reads connectors from the erp_connectors table.
type Postgres struct {
	db              querier
	hasAutoSyncFlag bool
}

// Connect opens a pgx pool configured from the environment and verifies it can reach the database.
func Connect(ctx context.Context) (*pgxpool.Pool, error) {
	config, err := env.ParseAs[postgresConfig]()
	if err != nil {
		var parseErr env.AggregateError
		if errors.As(err, &parseErr) {
			err = parseErr.Errors[0]
		}
		return nil, fmt.Errorf("%w: %s", ErrDatabaseConfig, err.Error())
	}

	poolConfig, err := pgxpool.ParseConfig(config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDatabaseConfig, err.Error())
	}
	if config.MaxConns > 0 {
		poolConfig.MaxConns = config.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseConnection, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", ErrDatabaseConnection, err)
	}

	logger.FromContext(ctx).WithName(loggerName).Debug("database connection established", "maxConns", poolConfig.MaxConns)
	return pool, nil
}

// NewPostgres returns a Registry backed by db. The presence of the auto_sync column is
// checked once here instead of on every listing.
func NewPostgres(ctx context.Context, db querier) (*Postgres, error) {
	log := logger.FromContext(ctx).WithName(loggerName)

	var exists bool
	if err := db.QueryRow(ctx, autoSyncColumnExistsQuery, connectorsTable, autoSyncColumn).Scan(&exists); err != nil {
		return nil, fmt.Errorf("%w: checking %s.%s: %w", ErrDatabaseConnection, connectorsTable, autoSyncColumn, err)
	}

	if !exists {
		log.Warn("auto_sync column not found, no connector will be synced automatically", "table", connectorsTable)
	}

	return &Postgres{
		db:              db,
		hasAutoSyncFlag: exists,
	}, nil
}

// ListConnectors implements Registry.
func (p *Postgres) ListConnectors(ctx context.Context) ([]Connector, error) {
	if !p.hasAutoSyncFlag {
		return nil, fmt.Errorf("%w: %s", ErrAutoSyncUnavailable, connectorsTable)
	}

	rows, err := p.db.Query(ctx, listConnectorsQuery)
	if err != nil {
		return nil, wrapQueryError(err)
	}

	connectors := make([]Connector, 0)
	var connector Connector
	_, err = pgx.ForEachRow(rows, []any{&connector.ID, &connector.Status, &connector.AutoSync}, func() error {
		connectors = append(connectors, connector)
		return nil
	})
	if err != nil {
		return nil, wrapQueryError(err)
	}

	return connectors, nil
}

// ListConnectorsWithoutAutoSync implements Registry.
func (p *Postgres) ListConnectorsWithoutAutoSync(ctx context.Context) ([]Connector, error) {
	rows, err := p.db.Query(ctx, listConnectorsWithoutAutoSyncSQL)
	if err != nil {
		return nil, err
	}

	connectors := make([]Connector, 0)
	var id, status string
	_, err = pgx.ForEachRow(rows, []any{&id, &status}, func() error {
		connectors = append(connectors, Connector{ID: id, Status: status})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return connectors, nil
}

// wrapQueryError marks errors caused by a column dropped after startup.
func wrapQueryError(err error) error {
	if IsAutoSyncUnavailable(err) {
		return fmt.Errorf("%w: %w", ErrAutoSyncUnavailable, err)
	}

	return err
}

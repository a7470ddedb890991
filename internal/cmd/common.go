// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mia-platform/erpsync/internal/registry"
	"github.com/mia-platform/erpsync/internal/server"
)

var (
	errSyncCycle = errors.New("sync cycle failed")
)

// handleError prints err on the command error output and returns it, so that the
// command exits with a non zero code.
func handleError(cmd *cobra.Command, err error) error {
	cmd.PrintErrln(err)
	return err
}

// noArgs rejects positional arguments printing the usage.
func noArgs(cmd *cobra.Command, args []string) error {
	err := cobra.NoArgs(cmd, args)
	if err != nil {
		cmd.PrintErrln(err)
		_ = cmd.Usage() // do not check error as we cannot do much about it
	}

	return err
}

// registryFromFlags returns the connectors file registry if connectorsFile is set, the
// Postgres one configured from the environment otherwise. The returned function releases
// the registry resources and is never nil when the error is nil.
func registryFromFlags(ctx context.Context, connectorsFile string) (registry.Registry, func(), error) {
	if connectorsFile != "" {
		fileRegistry, err := registry.NewFile(connectorsFile)
		if err != nil {
			return nil, nil, err
		}
		return fileRegistry, func() {}, nil
	}

	pool, err := registry.Connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	postgresRegistry, err := registry.NewPostgres(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	return postgresRegistry, pool.Close, nil
}

// newStatusServer returns the status server configured from the environment.
func newStatusServer(ctx context.Context, controller server.Controller, metricsHandler http.Handler) (server.Server, error) {
	return server.NewServer(ctx, controller, metricsHandler)
}

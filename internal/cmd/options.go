// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/mia-platform/erpsync/internal/autosync"
	"github.com/mia-platform/erpsync/internal/invoker"
	"github.com/mia-platform/erpsync/internal/logger"
	"github.com/mia-platform/erpsync/internal/registry"
	"github.com/mia-platform/erpsync/internal/server"
	"github.com/mia-platform/erpsync/internal/telemetry"
)

const (
	loggerName = "erpsync:cmd"
)

// options configures the runner for scheduled and single sync runs.
type options struct {
	config         *autosync.Config
	connectorsFile string
	invoker        invoker.Invoker
	registryGetter func(context.Context, string) (registry.Registry, func(), error)
	serverGetter   func(context.Context, server.Controller, http.Handler) (server.Server, error)

	lock sync.Mutex
}

// executeSync runs a single cycle, regardless of the enabled setting.
func (o *options) executeSync(ctx context.Context) error {
	if !o.lock.TryLock() {
		return nil
	}
	defer o.lock.Unlock()

	reg, closeRegistry, err := o.registryGetter(ctx, o.connectorsFile)
	if err != nil {
		return err
	}
	defer closeRegistry()

	runner := autosync.NewRunner(reg, o.invoker, o.config)
	runner.RunOnce(ctx)

	if summary := runner.LastCycle(); summary != nil && summary.Error != "" {
		return fmt.Errorf("%w: %s", errSyncCycle, summary.Error)
	}
	return nil
}

// executeRun schedules the cycles and serves the status routes until ctx is cancelled
// or the status server fails.
func (o *options) executeRun(ctx context.Context) error {
	if !o.lock.TryLock() {
		return nil
	}
	defer o.lock.Unlock()

	log := logger.FromContext(ctx).WithName(loggerName)

	reg, closeRegistry, err := o.registryGetter(ctx, o.connectorsFile)
	if err != nil {
		return err
	}
	defer closeRegistry()

	provider, metricsHandler, err := telemetry.NewPrometheusProvider(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn("error shutting down meter provider", "error", err.Error())
		}
	}()

	metrics, err := telemetry.NewSyncMetrics(provider)
	if err != nil {
		return err
	}

	runner := autosync.NewRunner(reg, o.invoker, o.config, autosync.WithMetrics(metrics))
	statusServer, err := o.serverGetter(ctx, runner, metricsHandler)
	if err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- statusServer.Start()
	}()

	scheduler := autosync.NewScheduler(runner, o.config)
	scheduler.Start(ctx)

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		err = nil
	case err = <-serverErr:
		if err != nil {
			log.Error("status server stopped unexpectedly", "error", err.Error())
		}
	}

	scheduler.Stop()
	log.Debug("auto sync scheduler stopped")

	if stopErr := statusServer.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}

	runner.Wait()
	log.Debug("in flight sync cycles completed")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

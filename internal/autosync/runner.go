// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package autosync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mia-platform/erpsync/internal/invoker"
	"github.com/mia-platform/erpsync/internal/logger"
	"github.com/mia-platform/erpsync/internal/registry"
	"github.com/mia-platform/erpsync/internal/telemetry"
)

const (
	loggerName = "erpsync:autosync"
)

// CycleSummary reports the outcome of a completed cycle.
type CycleSummary struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Eligible   int       `json:"eligible"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	// FellBack is true when the connectors were read without the auto_sync column.
	FellBack bool   `json:"fellBack"`
	Error    string `json:"error,omitempty"`
}

// Option customizes a Runner.
type Option func(*Runner)

// WithMetrics records cycle and request metrics on metrics.
func WithMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(r *Runner) {
		r.metrics = metrics
	}
}

// Runner executes sync cycles: it reads the connectors from the registry and asks the
// invoker to sync every eligible one, for every target. At most one cycle runs at a time.
type Runner struct {
	registry registry.Registry
	invoker  invoker.Invoker
	metrics  *telemetry.SyncMetrics

	targets     []string
	limit       int
	concurrency int

	cycleLock sync.Mutex
	running   atomic.Bool
	triggered sync.WaitGroup

	summaryLock sync.RWMutex
	lastCycle   *CycleSummary
}

// NewRunner returns a Runner syncing the targets listed in config.
func NewRunner(reg registry.Registry, inv invoker.Invoker, config *Config, opts ...Option) *Runner {
	runner := &Runner{
		registry:    reg,
		invoker:     inv,
		targets:     config.TargetList(),
		limit:       config.Limit,
		concurrency: max(config.Concurrency, 1),
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// RunOnce runs a full cycle and returns when it is over. If another cycle is in flight
// it returns immediately without doing anything.
func (r *Runner) RunOnce(ctx context.Context) {
	log := logger.FromContext(ctx).WithName(loggerName)
	if !r.cycleLock.TryLock() {
		log.Debug("sync cycle already running, skipping")
		r.metrics.RecordSkippedCycle(ctx)
		return
	}
	defer r.cycleLock.Unlock()

	r.cycle(ctx)
}

// Trigger starts a cycle in background and reports whether it has been started.
func (r *Runner) Trigger(ctx context.Context) bool {
	if !r.cycleLock.TryLock() {
		r.metrics.RecordSkippedCycle(ctx)
		return false
	}

	r.running.Store(true)
	r.triggered.Go(func() {
		defer r.cycleLock.Unlock()
		r.cycle(ctx)
	})

	return true
}

// Wait blocks until the cycles started with Trigger, and any cycle in flight, are over.
func (r *Runner) Wait() {
	r.triggered.Wait()
	r.cycleLock.Lock()
	defer r.cycleLock.Unlock()
}

// Running reports whether a cycle is in flight.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// LastCycle returns the summary of the last completed cycle, nil if none has completed yet.
func (r *Runner) LastCycle() *CycleSummary {
	r.summaryLock.RLock()
	defer r.summaryLock.RUnlock()

	if r.lastCycle == nil {
		return nil
	}
	summary := *r.lastCycle
	return &summary
}

// Targets returns the targets synced for every eligible connector.
func (r *Runner) Targets() []string {
	return append([]string(nil), r.targets...)
}

// Limit returns the limit sent with every sync request.
func (r *Runner) Limit() int {
	return r.limit
}

// cycle must be called with cycleLock held.
func (r *Runner) cycle(ctx context.Context) {
	r.running.Store(true)
	defer r.running.Store(false)

	summary := &CycleSummary{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}

	ctx = logger.WithFields(ctx, "cycleId", summary.ID)
	log := logger.FromContext(ctx).WithName(loggerName)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("sync cycle aborted by unexpected failure", "panic", rec)
			summary.Error = "unexpected failure"
		}

		summary.FinishedAt = time.Now()
		r.metrics.RecordCycle(ctx, summary.FinishedAt.Sub(summary.StartedAt), summary.FellBack)
		r.setLastCycle(summary)
	}()

	log.Debug("sync cycle started", "targets", r.targets, "limit", r.limit)
	connectors, fellBack, err := r.eligibleConnectors(ctx, log)
	summary.FellBack = fellBack
	if err != nil {
		log.Warn("error reading connectors, skipping cycle", "error", err.Error())
		summary.Error = err.Error()
		return
	}

	summary.Eligible = len(connectors)
	if len(connectors) == 0 {
		log.Debug("no connector eligible for auto sync")
		return
	}

	summary.Succeeded, summary.Failed = r.syncConnectors(ctx, log, connectors)
	log.Info("sync cycle completed",
		"eligible", summary.Eligible,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"duration", time.Since(summary.StartedAt).String(),
	)
}

// eligibleConnectors returns the connectors to sync in registry order. The boolean is true
// when the registry has no auto_sync information; no connector is eligible in that case.
func (r *Runner) eligibleConnectors(ctx context.Context, log logger.Logger) ([]registry.Connector, bool, error) {
	connectors, err := r.registry.ListConnectors(ctx)
	if err != nil {
		if !registry.IsAutoSyncUnavailable(err) {
			return nil, false, err
		}

		log.Warn("auto_sync column missing on erp_connectors, no connector will be synced until it is added", "error", err.Error())
		connectors, err = r.registry.ListConnectorsWithoutAutoSync(ctx)
		if err != nil {
			return nil, true, err
		}

		log.Debug("connectors read without auto_sync", "count", len(connectors))
		return nil, true, nil
	}

	eligible := make([]registry.Connector, 0, len(connectors))
	for _, connector := range connectors {
		if !connector.Eligible() {
			log.Trace("connector not eligible", "connectorId", connector.ID, "status", connector.Status)
			continue
		}
		eligible = append(eligible, connector)
	}

	return eligible, false, nil
}

// syncConnectors calls the invoker for every connector and target pair. With a concurrency
// of one the calls are made in connector then target order, one after the other.
func (r *Runner) syncConnectors(ctx context.Context, log logger.Logger, connectors []registry.Connector) (int, int) {
	var succeeded, failed atomic.Int64

	group := new(errgroup.Group)
	group.SetLimit(r.concurrency)
	for _, connector := range connectors {
		for _, target := range r.targets {
			group.Go(func() error {
				if r.syncTarget(ctx, log, connector.ID, target) {
					succeeded.Add(1)
				} else {
					failed.Add(1)
				}
				return nil
			})
		}
	}
	_ = group.Wait()

	return int(succeeded.Load()), int(failed.Load())
}

func (r *Runner) syncTarget(ctx context.Context, log logger.Logger, connectorID, target string) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("unexpected failure during auto sync", "connectorId", connectorID, "target", target, "panic", rec)
			ok = false
		}
		r.metrics.RecordSyncRequest(ctx, target, ok)
	}()

	result, err := r.invoker.Sync(ctx, connectorID, target, r.limit)
	if err != nil {
		log.Warn("auto sync failed", "connectorId", connectorID, "target", target, "error", err.Error())
		return false
	}

	log.Info("auto sync started", "connectorId", connectorID, "target", target, "statusCode", result.StatusCode)
	return true
}

func (r *Runner) setLastCycle(summary *CycleSummary) {
	r.summaryLock.Lock()
	defer r.summaryLock.Unlock()
	r.lastCycle = summary
}

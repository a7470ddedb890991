// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the auto sync meter
	SyncMetricsMeterName = "github.com/mia-platform/erpsync/autosync"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// SyncMetrics holds the instruments recorded by every auto sync cycle. A nil *SyncMetrics
// is valid and records nothing.
type SyncMetrics struct {
	cycles        metric.Int64Counter
	skippedCycles metric.Int64Counter
	syncRequests  metric.Int64Counter
	cycleDuration metric.Float64Histogram
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	cycles, err := meter.Int64Counter(
		"erpsync.cycles",
		metric.WithDescription("Number of completed auto sync cycles"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, err
	}

	skippedCycles, err := meter.Int64Counter(
		"erpsync.cycles.skipped",
		metric.WithDescription("Number of cycles skipped because another one was still running"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, err
	}

	syncRequests, err := meter.Int64Counter(
		"erpsync.sync.requests",
		metric.WithDescription("Number of sync requests sent, by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cycleDuration, err := meter.Float64Histogram(
		"erpsync.cycle.duration",
		metric.WithDescription("Duration of auto sync cycles in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600, 1800),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		cycles:        cycles,
		skippedCycles: skippedCycles,
		syncRequests:  syncRequests,
		cycleDuration: cycleDuration,
	}, nil
}

// RecordCycle records a completed cycle and its duration. fallback is true when the
// connectors were read without the auto sync column.
func (m *SyncMetrics) RecordCycle(ctx context.Context, duration time.Duration, fallback bool) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("fallback", fallback))
	m.cycles.Add(ctx, 1, attrs)
	m.cycleDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordSkippedCycle records a cycle that was not started because another one was running.
func (m *SyncMetrics) RecordSkippedCycle(ctx context.Context) {
	if m == nil {
		return
	}

	m.skippedCycles.Add(ctx, 1)
}

// RecordSyncRequest records the outcome of a single sync request for target.
func (m *SyncMetrics) RecordSyncRequest(ctx context.Context, target string, success bool) {
	if m == nil {
		return
	}

	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}

	m.syncRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("target", target),
		attribute.String("outcome", outcome),
	))
}

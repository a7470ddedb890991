// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package autosync

import (
	"context"
	"sync"
	"time"

	"github.com/mia-platform/erpsync/internal/logger"
)

const (
	// DefaultWarmupDelay is the delay of the first cycle after Start.
	DefaultWarmupDelay = 5 * time.Second
)

type cycleRunner interface {
	RunOnce(ctx context.Context)
}

// SchedulerOption customizes a Scheduler.
type SchedulerOption func(*Scheduler)

// WithWarmupDelay overrides DefaultWarmupDelay.
func WithWarmupDelay(delay time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.warmupDelay = delay
	}
}

// WithInterval overrides the interval read from the configuration, without the one minute floor.
func WithInterval(interval time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.interval = interval
	}
}

// Scheduler runs a cycle every interval, plus a warm-up cycle shortly after Start.
// Every cycle runs in its own goroutine, so a tick firing while a cycle is still running
// is dropped by the runner.
type Scheduler struct {
	runner      cycleRunner
	enabled     bool
	interval    time.Duration
	warmupDelay time.Duration

	lock   sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	cycles sync.WaitGroup
}

// NewScheduler returns a stopped Scheduler for runner.
func NewScheduler(runner cycleRunner, config *Config, opts ...SchedulerOption) *Scheduler {
	scheduler := &Scheduler{
		runner:      runner,
		enabled:     config.IsEnabled(),
		interval:    config.Interval(),
		warmupDelay: DefaultWarmupDelay,
	}

	for _, opt := range opts {
		opt(scheduler)
	}

	return scheduler
}

// Start schedules the cycles. It does nothing if auto sync is disabled or the scheduler
// is already started. Cancelling ctx stops scheduling new cycles like Stop, but without
// waiting for the running one.
func (s *Scheduler) Start(ctx context.Context) {
	log := logger.FromContext(ctx).WithName(loggerName)
	if !s.enabled {
		log.Info("auto sync disabled")
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	if s.cancel != nil {
		log.Debug("auto sync scheduler already started")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	log.Info("auto sync scheduled", "interval", s.interval.String(), "warmupDelay", s.warmupDelay.String())
	go s.loop(loopCtx, s.done)
}

// Stop stops the timers and waits for the in-flight cycle, if any, to finish.
func (s *Scheduler) Stop() {
	s.lock.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.lock.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	s.cycles.Wait()
}

func (s *Scheduler) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	log := logger.FromContext(ctx).WithName(loggerName)

	warmup := time.NewTimer(s.warmupDelay)
	defer warmup.Stop()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("auto sync scheduler stopped")
			return
		case <-warmup.C:
			log.Trace("warm-up cycle fired")
			s.runCycle(ctx)
		case <-ticker.C:
			log.Trace("scheduled cycle fired")
			s.runCycle(ctx)
		}
	}
}

// runCycle starts a cycle that is not cancelled when the scheduler stops.
func (s *Scheduler) runCycle(ctx context.Context) {
	cycleCtx := context.WithoutCancel(ctx)
	s.cycles.Go(func() {
		s.runner.RunOnce(cycleCtx)
	})
}

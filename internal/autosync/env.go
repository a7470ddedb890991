// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package autosync

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultTarget = "products"
	minInterval   = time.Minute

	// maxIntervalMinutes is the longest interval a time.Duration can hold.
	maxIntervalMinutes = math.MaxInt64 / int64(time.Minute)
)

var (
	ErrEnvVariablesNotValid = errors.New("auto sync environment variables not valid")
)

// Config holds the environment-driven auto sync settings.
type Config struct {
	Enabled         string `env:"ERP_AUTO_SYNC_ENABLED" envDefault:"true"`
	IntervalMinutes int    `env:"ERP_AUTO_SYNC_INTERVAL_MINUTES" envDefault:"60"`
	Limit           int    `env:"ERP_AUTO_SYNC_LIMIT" envDefault:"50"`
	Targets         string `env:"ERP_AUTO_SYNC_TARGETS"`
	Target          string `env:"ERP_AUTO_SYNC_TARGET"`
	Concurrency     int    `env:"ERP_AUTO_SYNC_CONCURRENCY" envDefault:"1"`
}

// LoadConfig reads the auto sync configuration from the environment.
func LoadConfig() (*Config, error) {
	config, err := env.ParseAs[Config]()
	if err != nil {
		var parseErr env.AggregateError
		if errors.As(err, &parseErr) {
			err = parseErr.Errors[0]
		}
		return nil, fmt.Errorf("%w: %s", ErrEnvVariablesNotValid, err.Error())
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	envError := make([]string, 0)
	if c.Limit < 0 {
		envError = append(envError, "ERP_AUTO_SYNC_LIMIT must not be negative")
	}
	if c.Concurrency < 1 {
		envError = append(envError, "ERP_AUTO_SYNC_CONCURRENCY must be at least 1")
	}

	if len(envError) > 0 {
		return fmt.Errorf("%w: %s", ErrEnvVariablesNotValid, strings.Join(envError, ", "))
	}
	return nil
}

// IsEnabled reports whether scheduling is enabled. Only an explicit "false",
// in any case, disables it.
func (c *Config) IsEnabled() bool {
	return strings.ToLower(c.Enabled) != "false"
}

// Interval returns the tick interval, never shorter than one minute. Values too large
// for a time.Duration are clamped to the longest representable interval.
func (c *Config) Interval() time.Duration {
	minutes := min(int64(c.IntervalMinutes), maxIntervalMinutes)
	return max(time.Duration(minutes)*time.Minute, minInterval)
}

// TargetList returns the configured sync targets in order.
func (c *Config) TargetList() []string {
	if targets := parseTargets(c.Targets); len(targets) > 0 {
		return targets
	}

	if targets := parseTargets(c.Target); len(targets) > 0 {
		return targets
	}

	return []string{defaultTarget}
}

func parseTargets(value string) []string {
	targets := make([]string, 0)
	for target := range strings.SplitSeq(value, ",") {
		if target = strings.TrimSpace(target); target != "" {
			targets = append(targets, target)
		}
	}

	return targets
}

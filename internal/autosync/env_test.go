// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package autosync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config, err := LoadConfig()
		require.NoError(t, err)

		assert.True(t, config.IsEnabled())
		assert.Equal(t, 60*time.Minute, config.Interval())
		assert.Equal(t, 50, config.Limit)
		assert.Equal(t, 1, config.Concurrency)
		assert.Equal(t, []string{"products"}, config.TargetList())
	})

	t.Run("all variables set", func(t *testing.T) {
		t.Setenv("ERP_AUTO_SYNC_ENABLED", "yes")
		t.Setenv("ERP_AUTO_SYNC_INTERVAL_MINUTES", "15")
		t.Setenv("ERP_AUTO_SYNC_LIMIT", "200")
		t.Setenv("ERP_AUTO_SYNC_TARGETS", "products,prices")
		t.Setenv("ERP_AUTO_SYNC_CONCURRENCY", "3")

		config, err := LoadConfig()
		require.NoError(t, err)

		assert.True(t, config.IsEnabled())
		assert.Equal(t, 15*time.Minute, config.Interval())
		assert.Equal(t, 200, config.Limit)
		assert.Equal(t, 3, config.Concurrency)
		assert.Equal(t, []string{"products", "prices"}, config.TargetList())
	})

	t.Run("disabled with any case", func(t *testing.T) {
		t.Setenv("ERP_AUTO_SYNC_ENABLED", "FaLsE")

		config, err := LoadConfig()
		require.NoError(t, err)
		assert.False(t, config.IsEnabled())
	})

	t.Run("interval zero is floored to one minute", func(t *testing.T) {
		t.Setenv("ERP_AUTO_SYNC_INTERVAL_MINUTES", "0")

		config, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, int64(60_000), config.Interval().Milliseconds())
	})

	t.Run("invalid interval", func(t *testing.T) {
		t.Setenv("ERP_AUTO_SYNC_INTERVAL_MINUTES", "often")

		config, err := LoadConfig()
		require.ErrorIs(t, err, ErrEnvVariablesNotValid)
		assert.Nil(t, config)
	})

	t.Run("negative limit", func(t *testing.T) {
		t.Setenv("ERP_AUTO_SYNC_LIMIT", "-1")

		config, err := LoadConfig()
		require.ErrorIs(t, err, ErrEnvVariablesNotValid)
		assert.ErrorContains(t, err, "ERP_AUTO_SYNC_LIMIT")
		assert.Nil(t, config)
	})

	t.Run("zero concurrency", func(t *testing.T) {
		t.Setenv("ERP_AUTO_SYNC_CONCURRENCY", "0")

		config, err := LoadConfig()
		require.ErrorIs(t, err, ErrEnvVariablesNotValid)
		assert.ErrorContains(t, err, "ERP_AUTO_SYNC_CONCURRENCY")
		assert.Nil(t, config)
	})
}

func TestInterval(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		minutes  int
		expected time.Duration
	}{
		"zero":     {minutes: 0, expected: time.Minute},
		"negative": {minutes: -5, expected: time.Minute},
		"one":      {minutes: 1, expected: time.Minute},
		"hourly":   {minutes: 60, expected: time.Hour},
		"largest representable": {
			minutes:  153722867,
			expected: 153722867 * time.Minute,
		},
		"overflowing values are clamped": {
			minutes:  153722868,
			expected: 153722867 * time.Minute,
		},
		"far beyond overflow": {
			minutes:  300000000,
			expected: 153722867 * time.Minute,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			config := &Config{IntervalMinutes: test.minutes}
			assert.Equal(t, test.expected, config.Interval())
		})
	}
}

func TestTargetList(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		targets  string
		target   string
		expected []string
	}{
		"trimmed and empty entries dropped": {
			targets:  " products , prices ,",
			expected: []string{"products", "prices"},
		},
		"single target fallback": {
			target:   "stock",
			expected: []string{"stock"},
		},
		"targets win over single target": {
			targets:  "prices",
			target:   "stock",
			expected: []string{"prices"},
		},
		"only separators fall back": {
			targets:  " , ,",
			target:   " stock ",
			expected: []string{"stock"},
		},
		"nothing configured": {
			expected: []string{"products"},
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			config := &Config{Targets: test.targets, Target: test.target}
			assert.Equal(t, test.expected, config.TargetList())
		})
	}
}

// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package server contains the status server of the erpsync application.
// It sets up the HTTP server using the Fiber framework, configures middleware for logging,
// and defines routes for health checks, the auto sync status, the Prometheus metrics and
// for triggering a sync cycle on demand.
package server

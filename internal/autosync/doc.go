// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package autosync periodically asks the application to sync every ERP connector that
// opted in to automatic synchronization.
//
// A Runner executes a single cycle: it lists the connectors from a registry.Registry,
// keeps the ones with auto_sync enabled that are not already syncing, and calls the
// invoker.Invoker once per connector and configured target. Cycles never overlap.
// A Scheduler drives a Runner on a fixed interval, with a warm-up cycle shortly after start.
package autosync

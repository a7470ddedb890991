// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package writer implements an invoker that prints every sync request to the given io.Writer
// instead of sending it.
// It is used by the dry run mode to inspect which connectors and targets a cycle would sync.
package writer

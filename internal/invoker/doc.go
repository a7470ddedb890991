// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package invoker triggers the sync of a single ERP connector target through the
// warehouse application HTTP API.
package invoker

// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package logger wraps hclog behind a small interface shared by every erpsync component.
// Loggers travel through context.Context so that commands, the scheduler and the
// status server all write to the same JSON stream.
package logger

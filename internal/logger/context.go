// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"context"
)

type contextKey struct{}

// WithContext stores logger in ctx; later calls to FromContext on the derived context return it.
func WithContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// WithFields derives a logger from the one carried by ctx that always emits args, and returns a
// context carrying it. Everything logged downstream, like a single sync cycle, shares the fields.
func WithFields(ctx context.Context, args ...any) context.Context {
	if len(args) == 0 {
		return ctx
	}
	return WithContext(ctx, FromContext(ctx).With(args...))
}

// FromContext returns the logger carried by ctx, or a logger that discards everything.
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return nullLogger
	}

	if logger, ok := ctx.Value(contextKey{}).(Logger); ok {
		return logger
	}
	return nullLogger
}

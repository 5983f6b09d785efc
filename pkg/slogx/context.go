// Package slogx configures log/slog and carries loggers through contexts
// and outbound HTTP calls.
package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithLogger returns ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// WithAttrs extends the logger in ctx (or fallback when there is none) with
// args, e.g. the CLI command being run.
func WithAttrs(ctx context.Context, fallback *slog.Logger, args ...any) context.Context {
	return WithLogger(ctx, Logger(ctx, fallback).With(args...))
}

// Logger returns the logger carried by ctx, then fallback, then
// slog.Default.
func Logger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}

// Package logger provides the process-wide structured logger used by
// lsparse. Logs never go to stdout by default so parse output stays clean.
package logger

import (
	"context"
	"fmt"
	"sync"
)

var (
	defaultLogger Logger
	mu            sync.RWMutex
	initialized   bool
)

// Init 初始化全域 logger
func Init(config Config) error {
	mu.Lock()
	defer mu.Unlock()

	if initialized {
		return fmt.Errorf("logger already initialized; call Shutdown() before re-initializing")
	}

	l, err := NewSlogLogger(config)
	if err != nil {
		return fmt.Errorf("failed to create slog logger: %w", err)
	}

	defaultLogger = l
	initialized = true
	return nil
}

// Get returns the global logger, or a NullLogger before Init
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()

	if !initialized {
		return NullLogger{}
	}
	return defaultLogger
}

// With 建立帶 context 的子 logger
func With(args ...any) Logger {
	return Get().With(args...)
}

// Shutdown flushes and closes the global logger; Init may be called again afterwards
func Shutdown() error {
	mu.Lock()
	if !initialized {
		mu.Unlock()
		return nil
	}

	l := defaultLogger
	defaultLogger = nil
	initialized = false
	mu.Unlock() // release before closing writers

	return l.Shutdown()
}

type ctxKey struct{}

// IntoContext attaches l to ctx so code further down a listing request
// logs with the same host and target attributes
func IntoContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger attached by IntoContext, or the global logger
func FromContext(ctx context.Context) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(Logger); ok {
			return l
		}
	}
	return Get()
}

// NullLogger discards everything
type NullLogger struct{}

func (NullLogger) Debug(msg string, args ...any) {}
func (NullLogger) Info(msg string, args ...any)  {}
func (NullLogger) Warn(msg string, args ...any)  {}
func (NullLogger) Error(msg string, args ...any) {}
func (n NullLogger) With(args ...any) Logger     { return n }
func (NullLogger) Sync() error                   { return nil }
func (NullLogger) Shutdown() error               { return nil }

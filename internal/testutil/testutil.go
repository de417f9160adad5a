// Package testutil provides shared helpers for tests: a context with a
// test logger attached, HCL fixture writing, and small block doubles
// for assembling diagrams without the full block library.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/gridloop/gridloop/internal/ctxlog"
)

// Context returns a background context carrying a debug-level logger.
// Log output goes to the test log under -v and is discarded otherwise.
func Context(t *testing.T) context.Context {
	t.Helper()
	return ctxlog.WithLogger(context.Background(), Logger(t))
}

// Logger returns a debug-level logger for tests.
func Logger(t *testing.T) *slog.Logger {
	t.Helper()
	var w io.Writer = io.Discard
	if testing.Verbose() {
		w = &testWriter{t: t}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct {
	t *testing.T
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}

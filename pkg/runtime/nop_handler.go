package runtime

import (
	"context"
	"log/slog"
)

// nopLogHandler discards every record; it backs the default logger so
// callers that never attach one pay nothing.
type nopLogHandler struct{}

func (nopLogHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopLogHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopLogHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopLogHandler{} }
func (nopLogHandler) WithGroup(string) slog.Handler             { return nopLogHandler{} }

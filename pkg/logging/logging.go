// Package logging holds the process-wide structured logger shared by the
// scene loader and the render backends.
package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers skip
// formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger installs l as the logger for every sceneview package.
// By default nothing is logged; passing nil restores that.
//
// Levels used:
//   - [slog.LevelDebug]: renderer statistics, buffer uploads, GL error codes
//   - [slog.LevelInfo]: scene loaded, backend selected, window opened,
//     frame saved, scene exported
//   - [slog.LevelWarn]: lights dropped beyond GL_MAX_LIGHTS
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

package pipeline

import (
	"io"
	"log/slog"
	"sync/atomic"
)

// loggerPtr stores the active logger. Accessed atomically so SetLogger can be
// called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// SetLogger configures the logger used by the pipeline and the packages it
// drives. By default nothing is logged. Pass nil to restore the silent
// default.
//
// Levels used: Debug for per-command diagnostics (texture size scan notices),
// Info for stage summaries.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	loggerPtr.Store(l)
}

// Logger returns the current pipeline logger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

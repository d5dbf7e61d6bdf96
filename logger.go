package ftgs

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with ftgs-specific context helpers so pass
// and worker log lines carry consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. A nil handler
// falls back to a text handler on stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithStream adds the output stream index.
func (l *Logger) WithStream(index int) *Logger {
	return &Logger{Logger: l.Logger.With("stream", index)}
}

// WithField adds the field name driving the current passes.
func (l *Logger) WithField(name string) *Logger {
	return &Logger{Logger: l.Logger.With("field", name)}
}

// WithGroups adds the session group count.
func (l *Logger) WithGroups(n int) *Logger {
	return &Logger{Logger: l.Logger.With("groups", n)}
}

// WithShards adds the shard count of the current pass.
func (l *Logger) WithShards(n int) *Logger {
	return &Logger{Logger: l.Logger.With("shards", n)}
}

// Package events emits structured, log-based notices for turn-level
// occurrences an operator needs visibility into, but that don't belong on
// conversation.State: a duplicate send suppressed, a routing loop that hit
// its cap, a score that didn't move. There is no broadcast transport here —
// streaming live updates to a dashboard is out of scope for this service;
// these are observability events, read from log aggregation.
package events

import "log/slog"

// Kind identifies the category of a turn-level event.
type Kind string

// Event kinds the graph runtime and its stages can report.
const (
	KindScoreUnchanged      Kind = "score_unchanged"
	KindDuplicateSuppressed Kind = "duplicate_suppressed"
	KindRoutingLoop         Kind = "routing_loop"
)

// Recorder emits turn-level events. The default Logger implementation
// writes structured log lines; tests can substitute a Recorder that
// collects events for assertions.
type Recorder interface {
	Record(kind Kind, threadID string, attrs ...slog.Attr)
}

// Logger is the process-default Recorder.
type Logger struct {
	logger *slog.Logger
}

// NewLogger builds a Logger backed by the default slog handler.
func NewLogger() *Logger {
	return &Logger{logger: slog.Default().With("component", "events")}
}

// Record logs kind at Info level with threadID and any extra attrs.
func (l *Logger) Record(kind Kind, threadID string, attrs ...slog.Attr) {
	args := make([]any, 0, len(attrs)*2+4)
	args = append(args, "event", kind, "thread_id", threadID)
	for _, a := range attrs {
		args = append(args, a.Key, a.Value)
	}
	l.logger.Info("turn event", args...)
}

package notify

import (
	"context"

	"github.com/samvad-hq/library-client/internal/domain"
	"github.com/samvad-hq/library-client/internal/logger"
)

// Fanout forwards every notification to all configured sinks.
type Fanout struct {
	sinks []Sink
}

// NewFanout builds a sink that fans out across sinks, skipping nils.
func NewFanout(sinks ...Sink) *Fanout {
	cp := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s == nil {
			continue
		}
		cp = append(cp, s)
	}
	return &Fanout{sinks: cp}
}

// Notify forwards the message to every registered sink.
func (f *Fanout) Notify(ctx context.Context, message string, severity domain.Severity) {
	if f == nil {
		return
	}
	for _, s := range f.sinks {
		s.Notify(ctx, message, severity)
	}
}

// Size returns the number of active sinks.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.sinks)
}

// LogSink records notifications in the structured log.
type LogSink struct {
	log logger.Logger
}

// NewLogSink writes notifications to log.
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: logger.Ensure(log)}
}

func (l *LogSink) Notify(_ context.Context, message string, severity domain.Severity) {
	entry := map[string]any{
		"message":  message,
		"severity": string(severity),
	}
	switch severity {
	case domain.SeverityError:
		l.log.ErrorObj("user notification", "notification", entry)
	case domain.SeverityWarning:
		l.log.WarnObj("user notification", "notification", entry)
	default:
		l.log.InfoObj("user notification", "notification", entry)
	}
}

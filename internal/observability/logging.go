// Package observability provides structured logging, metrics, and
// tracing for the agent core, grounded on the teacher's
// internal/observability package.
package observability

import (
	"context"
	"log/slog"
	"os"
	"regexp"
)

// LogConfig controls Logger construction.
type LogConfig struct {
	Level     slog.Level
	JSON      bool
	Redactors []*regexp.Regexp
}

// DefaultLogConfig mirrors the teacher's production logging defaults:
// JSON output at info level, with the teacher's secret-shaped redaction
// patterns applied to each record's message and string attributes (see
// redactingHandler for what is not scrubbed).
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level: slog.LevelInfo,
		JSON:  true,
		Redactors: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(api[_-]?key|authorization|bearer|password|secret|token)\s*[:=]\s*\S+`),
		},
	}
}

// Logger wraps slog.Logger with the redaction handler the teacher
// applies before messages leave the process.
type Logger struct {
	*slog.Logger
	redactors []*regexp.Regexp
}

// NewLogger builds a Logger writing to os.Stderr per cfg.
func NewLogger(cfg LogConfig) *Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.Level}
	var base slog.Handler
	if cfg.JSON {
		base = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		base = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	redacted := &redactingHandler{next: base, redactors: cfg.Redactors}
	return &Logger{Logger: slog.New(redacted), redactors: cfg.Redactors}
}

// redactingHandler wraps a slog.Handler and scrubs secret-shaped
// substrings out of the message and the top-level string attribute
// values of each record before they are written. Attributes attached
// through WithAttrs, attributes nested inside groups, and non-string
// values (errors included) are passed on unscrubbed.
type redactingHandler struct {
	next      slog.Handler
	redactors []*regexp.Regexp
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, record slog.Record) error {
	var attrs []slog.Attr
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.scrub(a))
		return true
	})
	scrubbed := slog.NewRecord(record.Time, record.Level, h.scrubString(record.Message), record.PC)
	scrubbed.AddAttrs(attrs...)
	return h.next.Handle(ctx, scrubbed)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &redactingHandler{next: h.next.WithAttrs(attrs), redactors: h.redactors}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{next: h.next.WithGroup(name), redactors: h.redactors}
}

func (h *redactingHandler) scrub(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		a.Value = slog.StringValue(h.scrubString(a.Value.String()))
	}
	return a
}

func (h *redactingHandler) scrubString(s string) string {
	for _, re := range h.redactors {
		s = re.ReplaceAllString(s, "[REDACTED]")
	}
	return s
}

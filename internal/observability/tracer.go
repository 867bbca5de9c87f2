// Package observability provides a lightweight secondary tracer over
// the LLM calls (via llm.TracedClient), using zerolog for structured
// span events alongside the slog-based internal/logger the rest of
// the pipeline logs through.
package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Tracer emits one structured event per traced call.
type Tracer struct {
	log     zerolog.Logger
	enabled bool
}

// NewTracer builds a Tracer writing JSON events to w. Passing a nil w
// defaults to os.Stdout. Tracing can be disabled entirely via enabled,
// in which case Span is a no-op.
func NewTracer(w io.Writer, enabled bool) *Tracer {
	if w == nil {
		w = os.Stdout
	}
	return &Tracer{log: zerolog.New(w).With().Timestamp().Logger(), enabled: enabled}
}

// IsEnabled reports whether this tracer emits events.
func (t *Tracer) IsEnabled() bool {
	return t != nil && t.enabled
}

// Span runs fn, recording its name, duration, and any error as one
// zerolog event, and returns fn's result unchanged.
func (t *Tracer) Span(ctx context.Context, name string, attrs map[string]string, fn func(context.Context) (string, error)) (string, error) {
	if !t.IsEnabled() {
		return fn(ctx)
	}
	start := time.Now()
	result, err := fn(ctx)
	event := t.log.Info()
	if err != nil {
		event = t.log.Error().Err(err)
	}
	event = event.Str("span", name).Dur("elapsed", time.Since(start)).Int("result_len", len(result))
	for k, v := range attrs {
		event = event.Str(k, v)
	}
	event.Msg("span completed")
	return result, err
}

package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// EventSink receives a record of every request made through a
// LoggingProvider. The store package implements it on SQLite.
type EventSink interface {
	AppendLLMEvent(ctx context.Context, ev Event) error
}

// Event describes one completed (or failed) service request.
type Event struct {
	Purpose      string
	Model        string
	LatencyMs    int64
	InputTokens  int
	OutputTokens int
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LoggingProvider is a decorator that records every request as an event.
type LoggingProvider struct {
	inner Provider
	sink  EventSink
}

// WithLogging wraps a Provider with event logging.
func WithLogging(p Provider, sink EventSink) Provider {
	return &LoggingProvider{inner: p, sink: sink}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	ev := Event{
		Purpose:     PurposeFrom(ctx),
		Model:       l.inner.ModelID(),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: summarizeRequest(req),
	}

	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.Model = resp.Model
		ev.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	// Log the event but don't fail the request if logging fails.
	if logErr := l.sink.AppendLLMEvent(ctx, ev); logErr != nil {
		slog.Warn("failed to record LLM event", "error", logErr)
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// summarizeRequest builds a readable representation of the request.
// File contents are elided; only name and type are recorded.
func summarizeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, f := range req.Files {
		b.WriteString("[file] ")
		b.WriteString(f.Name)
		b.WriteString(" (")
		b.WriteString(f.MIMEType)
		b.WriteString(")\n")
	}

	for _, m := range req.Messages {
		b.WriteString("[")
		b.WriteString(string(m.Role))
		b.WriteString("]\n")
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		b.WriteString("[schema: ")
		b.WriteString(req.Schema.Name)
		b.WriteString("]\n")
	}

	return b.String()
}

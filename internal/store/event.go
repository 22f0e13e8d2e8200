package store

import (
	"context"
	"time"

	"github.com/worawit/triamsob/internal/llm"
)

// LLMEvent is one persisted request record.
type LLMEvent struct {
	ID        int64
	CreatedAt time.Time
	llm.Event
}

// AppendLLMEvent records a completed or failed service request.
// Implements llm.EventSink.
func (s *Store) AppendLLMEvent(ctx context.Context, ev llm.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO llm_events
		 (created_at, purpose, model, latency_ms, input_tokens, output_tokens, success, error_message, request_body, response_body)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now(), ev.Purpose, ev.Model, ev.LatencyMs,
		ev.InputTokens, ev.OutputTokens, ev.Success,
		ev.ErrorMessage, ev.RequestBody, ev.ResponseBody,
	)
	return err
}

// ListLLMEvents returns the most recent events, newest first.
func (s *Store) ListLLMEvents(ctx context.Context, limit int) ([]LLMEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, purpose, model, latency_ms, input_tokens, output_tokens, success, error_message
		 FROM llm_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []LLMEvent
	for rows.Next() {
		var ev LLMEvent
		if err := rows.Scan(
			&ev.ID, &ev.CreatedAt, &ev.Purpose, &ev.Model, &ev.LatencyMs,
			&ev.InputTokens, &ev.OutputTokens, &ev.Success, &ev.ErrorMessage,
		); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

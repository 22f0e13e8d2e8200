package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/worawit/triamsob/internal/session"
)

// Exam sessions are stored as JSON snapshots for the exam's lifetime
// only. They are deleted when the user returns to setup or logs out;
// no exam history accumulates.

// SaveExamSession inserts or replaces a session snapshot.
func (s *Store) SaveExamSession(es *session.ExamSession) error {
	payload, err := json.Marshal(es)
	if err != nil {
		return fmt.Errorf("marshal exam session: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO exam_sessions (id, user_id, payload, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
		es.ID, es.UserID, string(payload), es.CreatedAt,
	)
	return err
}

// GetExamSession returns the session with the given id, or nil if absent.
func (s *Store) GetExamSession(id string) (*session.ExamSession, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM exam_sessions WHERE id = ?`, id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var es session.ExamSession
	if err := json.Unmarshal([]byte(payload), &es); err != nil {
		return nil, fmt.Errorf("unmarshal exam session %s: %w", id, err)
	}
	return &es, nil
}

// DeleteExamSession removes one session snapshot.
func (s *Store) DeleteExamSession(id string) error {
	_, err := s.db.Exec(`DELETE FROM exam_sessions WHERE id = ?`, id)
	return err
}

// DeleteExamSessionsForUser removes every session a user owns.
func (s *Store) DeleteExamSessionsForUser(userID string) error {
	_, err := s.db.Exec(`DELETE FROM exam_sessions WHERE user_id = ?`, userID)
	return err
}

// Package session owns the lifetime of one exam attempt: the questions
// decoded from a generation call, the index-aligned answers, and the
// one-shot score computed at completion.
package session

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/worawit/triamsob/internal/examgen"
)

// ErrAlreadyCompleted is returned when a completed session is
// submitted again. The score mutates exactly once.
var ErrAlreadyCompleted = errors.New("exam session already completed")

// FileRef records which study materials produced a session. Only name
// and type survive the generation call; the bytes are request-scoped.
type FileRef struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
}

// ExamSession is one exam attempt. Created when generation succeeds,
// replaced wholesale on every transition, destroyed when the user
// returns to setup or logs out.
type ExamSession struct {
	ID            string             `json:"id"`
	UserID        string             `json:"userId"`
	Grade         examgen.Grade      `json:"grade"`
	Language      examgen.Language   `json:"language"`
	QuestionCount int                `json:"questionCount"`
	Files         []FileRef          `json:"files"`
	Questions     []examgen.Question `json:"questions"`

	// Answers is index-aligned with Questions; nil means unanswered.
	Answers []*int `json:"answers"`

	// CurrentScore is the percentage score, set once at completion.
	CurrentScore int  `json:"currentScore"`
	Completed    bool `json:"completed"`

	// WeakTopicsFromPrevious carries the prior analysis's weaknesses
	// when this session is a recovery exam.
	WeakTopicsFromPrevious []string `json:"weakTopicsFromPrevious,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// New creates a session around freshly decoded questions. The answers
// array starts with one nil entry per question regardless of the count
// originally requested.
func New(userID string, req examgen.GenerationRequest, questions []examgen.Question) *ExamSession {
	files := make([]FileRef, len(req.Files))
	for i, f := range req.Files {
		files[i] = FileRef{Name: f.Name, MIMEType: f.MIMEType}
	}

	return &ExamSession{
		ID:                     uuid.NewString(),
		UserID:                 userID,
		Grade:                  req.Grade,
		Language:               req.Language,
		QuestionCount:          req.Count,
		Files:                  files,
		Questions:              questions,
		Answers:                make([]*int, len(questions)),
		WeakTopicsFromPrevious: req.WeakTopics,
		CreatedAt:              time.Now(),
	}
}

// Score is the result of completing a session.
type Score struct {
	CorrectCount int `json:"correctCount"`
	ScorePercent int `json:"scorePercent"`
}

// Complete records the answers and computes the score. It fails if the
// session was already completed or the answers are misaligned.
func (s *ExamSession) Complete(answers []*int) (Score, error) {
	if s.Completed {
		return Score{}, ErrAlreadyCompleted
	}
	if len(answers) != len(s.Questions) {
		return Score{}, fmt.Errorf("got %d answers for %d questions", len(answers), len(s.Questions))
	}

	s.Answers = answers
	score := Grade(s.Questions, answers)
	s.CurrentScore = score.ScorePercent
	s.Completed = true
	return score, nil
}

// Grade computes the score for an answer set: correctCount is the
// number of positions where the answer equals the question's correct
// index, scorePercent the rounded percentage.
func Grade(questions []examgen.Question, answers []*int) Score {
	correct := 0
	for i, q := range questions {
		if i < len(answers) && answers[i] != nil && *answers[i] == q.CorrectIndex {
			correct++
		}
	}

	percent := 0
	if len(questions) > 0 {
		percent = int(math.Round(100 * float64(correct) / float64(len(questions))))
	}
	return Score{CorrectCount: correct, ScorePercent: percent}
}

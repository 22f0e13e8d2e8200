// Package analysis summarizes a completed quiz into strengths,
// weaknesses, and reading advice via one generative call. The result is
// best-effort: a malformed model payload degrades to a fixed fallback
// record so the student always reaches their score view.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/worawit/triamsob/internal/examgen"
	"github.com/worawit/triamsob/internal/llm"
)

// TopicOutcome is one question's topic paired with whether the stored
// answer matched the correct index.
type TopicOutcome struct {
	Topic   string `json:"topic"`
	Correct bool   `json:"correct"`
}

// Result is the strengths/weaknesses/advice summary. Never mutated
// after creation.
type Result struct {
	Summary       string   `json:"summary"`
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	ReadingAdvice string   `json:"readingAdvice"`
}

// resultSchema declares the fixed four-field output object.
var resultSchema = &llm.Schema{
	Name:        "exam-analysis",
	Description: "A performance summary of one completed exam",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "Overall performance summary in Thai",
			},
			"strengths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Topics the student handles well",
			},
			"weaknesses": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Topics needing recovery, most critical first",
			},
			"readingAdvice": map[string]any{
				"type":        "string",
				"description": "Reading advice to improve, in Thai",
			},
		},
		"required":             []any{"summary", "strengths", "weaknesses", "readingAdvice"},
		"additionalProperties": false,
	},
}

const systemPrompt = `You are a kind Thai tutor explaining exam results to a student and their parents, neither of whom is an education expert.

Rules:
- Summarize the student's performance.
- Identify specific strong topics and specific weak topics (weak topics drive the next recovery exam, so be concrete).
- Give practical reading advice to improve.
- Everything must be in friendly, easy-to-read Thai (ภาษาเป็นกันเอง อ่านง่าย).`

// Outcomes pairs each question's topic with the correctness of the
// index-aligned answer. A nil answer is incorrect.
func Outcomes(questions []examgen.Question, answers []*int) []TopicOutcome {
	out := make([]TopicOutcome, len(questions))
	for i, q := range questions {
		correct := i < len(answers) && answers[i] != nil && *answers[i] == q.CorrectIndex
		out[i] = TopicOutcome{Topic: q.Topic, Correct: correct}
	}
	return out
}

// Analyzer performs the analysis call.
type Analyzer struct {
	provider llm.Provider
}

// New creates an Analyzer.
func New(provider llm.Provider) *Analyzer {
	return &Analyzer{provider: provider}
}

// Analyze summarizes the outcome history. A response that fails to
// parse yields the fallback record and a nil error; transport and
// credential failures propagate for the caller to classify.
func (a *Analyzer) Analyze(ctx context.Context, outcomes []TopicOutcome) (*Result, error) {
	ctx = llm.WithPurpose(ctx, "exam-analysis")

	history, err := json.Marshal(outcomes)
	if err != nil {
		return nil, fmt.Errorf("marshal outcomes: %w", err)
	}

	resp, err := a.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf("Analyze these exam results for a specific student: %s", history)},
		},
		Schema:      resultSchema,
		MaxTokens:   2048,
		Temperature: 0.5,
	})
	if err != nil {
		var invalid *llm.ErrInvalidResponse
		if errors.As(err, &invalid) {
			return Fallback(), nil
		}
		return nil, err
	}

	var result Result
	if err := json.Unmarshal(resp.Content, &result); err != nil {
		return Fallback(), nil
	}
	if result.Strengths == nil {
		result.Strengths = []string{}
	}
	if result.Weaknesses == nil {
		result.Weaknesses = []string{}
	}
	return &result, nil
}

// Fallback is the fixed record substituted when the analysis payload is
// unusable. The score view must never be blocked on analysis.
func Fallback() *Result {
	return &Result{
		Summary:       "ทำข้อสอบเสร็จแล้ว เก่งมาก! ระบบสรุปผลละเอียดไม่สำเร็จในรอบนี้",
		Strengths:     []string{},
		Weaknesses:    []string{},
		ReadingAdvice: "ลองทบทวนเนื้อหาจากเอกสารที่อัปโหลด แล้วทำข้อสอบอีกครั้งเพื่อดูพัฒนาการ",
	}
}

package examgen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/worawit/triamsob/internal/llm"
)

// ErrInvalidFile marks a reference file whose payload is not valid
// base64. It is client input, not a service failure, and maps to a
// bad-request response rather than the service error taxonomy.
var ErrInvalidFile = errors.New("invalid reference file data")

// Config bounds one generation call.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns generation defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   8192,
		Temperature: 0.7,
	}
}

// Generator turns a GenerationRequest into exactly one service call and
// decodes the structured result into questions.
type Generator struct {
	provider llm.Provider
	config   Config
}

// New creates a Generator.
func New(provider llm.Provider, cfg Config) *Generator {
	return &Generator{provider: provider, config: cfg}
}

// questionOutput is the raw model response item before decoding.
type questionOutput struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation"`
	Topic        string   `json:"topic"`
}

// Generate produces the exam. The returned slice is sized to whatever
// the model actually returned, not forced to req.Count.
func (g *Generator) Generate(ctx context.Context, req GenerationRequest) ([]Question, error) {
	if req.Count < 1 {
		return nil, fmt.Errorf("question count must be at least 1, got %d", req.Count)
	}

	ctx = llm.WithPurpose(ctx, "exam-gen")

	files, err := decodeFiles(req.Files)
	if err != nil {
		return nil, err
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(req)},
		},
		Files:       files,
		Schema:      ExamSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, err
	}

	return decodeQuestions(resp.Content)
}

// decodeQuestions parses the service payload and assigns each item a
// locally unique identifier. Out-of-range correctIndex or a wrong
// option count is treated as a malformed response rather than trusted.
func decodeQuestions(raw json.RawMessage) ([]Question, error) {
	var items []questionOutput
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: raw, Err: err}
	}

	now := time.Now().UnixMilli()
	questions := make([]Question, len(items))
	for i, item := range items {
		if len(item.Options) != 4 {
			return nil, &llm.ErrInvalidResponse{
				Content: raw,
				Err:     fmt.Errorf("question %d has %d options, want 4", i, len(item.Options)),
			}
		}
		if item.CorrectIndex < 0 || item.CorrectIndex >= len(item.Options) {
			return nil, &llm.ErrInvalidResponse{
				Content: raw,
				Err:     fmt.Errorf("question %d correctIndex %d out of range", i, item.CorrectIndex),
			}
		}
		questions[i] = Question{
			ID:           newQuestionID(now, i),
			Text:         item.Text,
			Options:      item.Options,
			CorrectIndex: item.CorrectIndex,
			Explanation:  item.Explanation,
			Topic:        item.Topic,
		}
	}
	return questions, nil
}

// newQuestionID derives an identifier from the generation time and the
// item's position, with a random suffix. The service supplies no ids.
func newQuestionID(ts int64, pos int) string {
	return fmt.Sprintf("q-%d-%d-%s", ts, pos, uuid.NewString()[:8])
}

// decodeFiles strips any data-URI header and base64-decodes each
// reference file into raw bytes for inline transmission.
func decodeFiles(files []ReferenceFile) ([]llm.FilePart, error) {
	parts := make([]llm.FilePart, 0, len(files))
	for _, f := range files {
		payload := f.Data
		if strings.HasPrefix(payload, "data:") {
			if _, rest, ok := strings.Cut(payload, ","); ok {
				payload = rest
			}
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFile, f.Name, err)
		}
		parts = append(parts, llm.FilePart{
			Name:     f.Name,
			MIMEType: f.MIMEType,
			Data:     data,
		})
	}
	return parts, nil
}

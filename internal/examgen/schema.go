package examgen

import "github.com/worawit/triamsob/internal/llm"

// ExamSchema declares the exact shape of a generated exam: an array of
// five-field question objects, all fields required, nothing extra.
var ExamSchema = &llm.Schema{
	Name:        "exam-questions",
	Description: "A multiple-choice exam generated from study materials",
	Definition: map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "The question, in the requested exam language",
				},
				"options": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Exactly 4 answer options",
				},
				"correctIndex": map[string]any{
					"type":        "integer",
					"description": "Zero-based index of the correct option",
				},
				"explanation": map[string]any{
					"type":        "string",
					"description": "Worked explanation, always in Thai",
				},
				"topic": map[string]any{
					"type":        "string",
					"description": "The curriculum topic this question tests",
				},
			},
			"required":             []any{"text", "options", "correctIndex", "explanation", "topic"},
			"additionalProperties": false,
		},
	},
}

package llm

import (
	"context"
	"encoding/json"
)

// Provider is the core abstraction for generative-service interaction.
// Consumers call Generate with a Request and receive structured JSON.
type Provider interface {
	// Generate sends a prompt (plus any attached reference files) to the
	// service and returns a structured response. The request's Schema field,
	// when set, instructs the provider to return JSON conforming to that
	// schema. The response Content will be the validated JSON.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the generative service.
type Request struct {
	// System is the system prompt. Sets the model's role and constraints.
	System string

	// Messages is the conversation history. Exam generation and analysis
	// are both single-turn, so this usually holds one user message.
	Messages []Message

	// Files are binary reference materials attached inline to the user
	// turn (study material images, PDFs). Decoded bytes, never data-URI
	// wrapped.
	Files []FilePart

	// Schema is the JSON Schema the response must conform to.
	// When set, the provider uses its native structured output mechanism.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FilePart is one inline binary attachment.
type FilePart struct {
	// Name is the original file name, informational only.
	Name string

	// MIMEType is the declared media type, e.g. "image/png".
	MIMEType string

	// Data is the raw decoded content.
	Data []byte
}

// Schema defines the JSON structure expected from the service.
type Schema struct {
	// Name identifies this schema (used as schema name for OpenAI,
	// output format for Anthropic). Kebab-case, e.g. "exam-questions".
	Name string

	// Description is a human-readable description sent to the model
	// to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the service's output.
type Response struct {
	// Content is the generated output. When a Schema was provided in the
	// request, this is the validated JSON value.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

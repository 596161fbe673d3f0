package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Client abstracts language-model providers.
type Client interface {
	// GenerateText returns free-form text for the prompt.
	GenerateText(ctx context.Context, req Request) (Result, error)
	// GenerateObject returns a JSON document intended to match req.Schema.
	// Callers validate the result; providers only guarantee well-formed JSON.
	GenerateObject(ctx context.Context, req Request) (Result, error)
}

// Request is a single prompt.
type Request struct {
	Operation string
	System    string
	Prompt    string
	Schema    json.RawMessage
}

// Usage reports token consumption for one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Result is the model output and its usage.
type Result struct {
	Text  string
	Model string
	Usage Usage
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// ErrInvalidJSON is returned when a structured call yields malformed JSON.
var ErrInvalidJSON = errors.New("model returned invalid JSON")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

func (PlaceholderClient) GenerateText(ctx context.Context, req Request) (Result, error) {
	return Result{}, ErrNotImplemented
}

func (PlaceholderClient) GenerateObject(ctx context.Context, req Request) (Result, error) {
	return Result{}, ErrNotImplemented
}

// ObjectInstructions appends the schema the response must follow to a system prompt.
func ObjectInstructions(system string, schema json.RawMessage) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(system))
	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString("Respond with JSON only. No markdown. Never omit keys.")
	if len(schema) > 0 {
		b.WriteString(" The JSON must match this schema exactly:\n")
		b.Write(schema)
	}
	return b.String()
}

// CleanJSON strips markdown code fences some models wrap around JSON.
func CleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

var _ Client = PlaceholderClient{}

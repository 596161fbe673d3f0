package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestCleanJSON(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":               `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```  ":   `{"a":1}`,
	}
	for in, want := range cases {
		if got := CleanJSON(in); got != want {
			t.Fatalf("CleanJSON(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestObjectInstructionsIncludesSchema(t *testing.T) {
	got := ObjectInstructions("You rewrite bullets.", json.RawMessage(`{"type":"object"}`))
	if !strings.HasPrefix(got, "You rewrite bullets.\n\nRespond with JSON only.") {
		t.Fatalf("unexpected prefix: %q", got)
	}
	if !strings.HasSuffix(got, `{"type":"object"}`) {
		t.Fatalf("schema missing: %q", got)
	}
}

func TestPlaceholderClient(t *testing.T) {
	_, err := PlaceholderClient{}.GenerateText(context.Background(), Request{Prompt: "hi"})
	if !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
}

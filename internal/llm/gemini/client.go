package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"resume-builder/internal/llm"
	"resume-builder/internal/shared/telemetry"
)

const defaultModel = "gemini-1.5-flash"

// Client implements llm.Client for Google Gemini.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client. Close releases the underlying connection.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) GenerateText(ctx context.Context, req llm.Request) (llm.Result, error) {
	model := c.generativeModel(req.System)
	return c.generate(ctx, model, req)
}

func (c *Client) GenerateObject(ctx context.Context, req llm.Request) (llm.Result, error) {
	model := c.generativeModel(llm.ObjectInstructions(req.System, req.Schema))
	model.ResponseMIMEType = "application/json"
	res, err := c.generate(ctx, model, req)
	if err != nil {
		return llm.Result{}, err
	}
	res.Text = llm.CleanJSON(res.Text)
	if !json.Valid([]byte(res.Text)) {
		return llm.Result{}, llm.ErrInvalidJSON
	}
	return res, nil
}

// Close releases resources held by the client.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *Client) generativeModel(system string) *genai.GenerativeModel {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.2)
	if strings.TrimSpace(system) != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
	return model
}

func (c *Client) generate(ctx context.Context, model *genai.GenerativeModel, req llm.Request) (llm.Result, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return llm.Result{}, fmt.Errorf("failed to generate content: %w", err)
	}
	text, err := extractText(resp)
	if err != nil {
		return llm.Result{}, err
	}
	res := llm.Result{Text: text, Model: c.model}
	if meta := resp.UsageMetadata; meta != nil {
		res.Usage = llm.Usage{
			PromptTokens:     int(meta.PromptTokenCount),
			CompletionTokens: int(meta.CandidatesTokenCount),
			TotalTokens:      int(meta.TotalTokenCount),
		}
	}
	telemetry.Info("llm.response", map[string]any{
		"provider":     "gemini",
		"model":        c.model,
		"operation":    req.Operation,
		"total_tokens": res.Usage.TotalTokens,
	})
	return res, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.TrimSpace(strings.Join(parts, "")), nil
}

var _ llm.Client = (*Client)(nil)

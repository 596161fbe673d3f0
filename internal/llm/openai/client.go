package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"resume-builder/internal/llm"
	"resume-builder/internal/shared/telemetry"
)

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	api   *goopenai.Client
	model string
}

// NewClient constructs a new OpenAI client. An empty baseURL targets api.openai.com.
func NewClient(apiKey, model, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{api: goopenai.NewClientWithConfig(cfg), model: model}, nil
}

func (c *Client) GenerateText(ctx context.Context, req llm.Request) (llm.Result, error) {
	return c.complete(ctx, req, false)
}

func (c *Client) GenerateObject(ctx context.Context, req llm.Request) (llm.Result, error) {
	res, err := c.complete(ctx, req, true)
	if err != nil {
		return llm.Result{}, err
	}
	res.Text = llm.CleanJSON(res.Text)
	if !json.Valid([]byte(res.Text)) {
		return llm.Result{}, llm.ErrInvalidJSON
	}
	return res, nil
}

func (c *Client) complete(ctx context.Context, req llm.Request, jsonMode bool) (llm.Result, error) {
	system := req.System
	if jsonMode {
		system = llm.ObjectInstructions(system, req.Schema)
	}
	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt})

	chatReq := goopenai.ChatCompletionRequest{Model: c.model, Messages: messages}
	if jsonMode {
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject}
	}
	// Zero is omitted from the request, leaving gpt-5 models at their default.
	if !isGPT5(c.model) {
		chatReq.Temperature = 0.2
	}

	resp, err := c.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return llm.Result{}, describeError(err)
	}
	if len(resp.Choices) == 0 {
		return llm.Result{}, fmt.Errorf("openai response missing choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return llm.Result{}, fmt.Errorf("openai response empty content")
	}
	res := llm.Result{
		Text:  content,
		Model: c.model,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	telemetry.Info("llm.response", map[string]any{
		"provider":          "openai",
		"model":             c.model,
		"operation":         req.Operation,
		"prompt_tokens":     res.Usage.PromptTokens,
		"completion_tokens": res.Usage.CompletionTokens,
		"total_tokens":      res.Usage.TotalTokens,
	})
	return res, nil
}

func describeError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai http status %d: %s (%s)", apiErr.HTTPStatusCode, apiErr.Message, apiErr.Type)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("openai http status %d: %w", reqErr.HTTPStatusCode, reqErr.Err)
	}
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
		return fmt.Errorf("openai request timeout: %w", err)
	}
	return err
}

// gpt-5 models reject non-default temperatures.
func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Client = (*Client)(nil)

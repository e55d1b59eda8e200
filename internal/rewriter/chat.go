package rewriter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/logger"
)

// chatCompletions is the OpenAI-compatible /chat/completions client shared by
// the OpenAI and Perplexity providers.
type chatCompletions struct {
	name         string
	client       *http.Client
	baseURL      string
	apiKey       string
	model        string
	systemPrompt string
	temperature  float64
	maxTokens    int
	strictPrompt bool
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

func (c *chatCompletions) Name() string { return strings.ToLower(c.name) }

func (c *chatCompletions) complete(ctx context.Context, req chatRequest) (string, error) {
	if c.apiKey == "" {
		return "", missingKey(c.name)
	}

	raw, err := postJSON(ctx, c.client, c.name, c.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + c.apiKey}, req)
	if err != nil {
		return "", err
	}

	text := gjson.GetBytes(raw, "choices.0.message.content").String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", c.name, ErrEmptyResponse)
	}
	return text, nil
}

func (c *chatCompletions) Rewrite(ctx context.Context, req Request) (string, error) {
	text, err := c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: buildPrompt(req, c.strictPrompt)},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", err
	}
	return cleanOutput(text), nil
}

func (c *chatCompletions) ValidateCredentials(ctx context.Context) bool {
	_, err := c.complete(ctx, chatRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: "Hello, this is a test."}},
		MaxTokens: 5,
	})
	if err != nil {
		logger.WarnContext(ctx, c.name+" credential check failed", "error", err)
		return false
	}
	return true
}

func NewOpenAI(client *http.Client, baseURL, apiKey, model string) Rewriter {
	return &chatCompletions{
		name:         "OpenAI",
		client:       client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		model:        model,
		systemPrompt: "You are a professional text style transfer assistant that helps rewrite content in different styles while preserving the original meaning.",
		temperature:  0.7,
		maxTokens:    500,
		strictPrompt: true,
	}
}

func NewPerplexity(client *http.Client, baseURL, apiKey, model string) Rewriter {
	return &chatCompletions{
		name:         "Perplexity",
		client:       client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		model:        model,
		systemPrompt: "You are a professional text style transfer expert. Transform the text provided by the user to the requested style while preserving the original meaning. Only respond with the transformed text without any explanations or additional comments.",
		temperature:  0.2,
		maxTokens:    1000,
	}
}

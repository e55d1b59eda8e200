package rewriter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/logger"
)

// Gemini calls the generateContent REST endpoint.
type Gemini struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewGemini(client *http.Client, baseURL, apiKey, model string) *Gemini {
	return &Gemini{client: client, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, model: model}
}

func (g *Gemini) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", missingKey("Gemini")
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	body := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}}

	raw, err := postJSON(ctx, g.client, "Gemini", url, map[string]string{"x-goog-api-key": g.apiKey}, body)
	if err != nil {
		return "", err
	}

	text := gjson.GetBytes(raw, "candidates.0.content.parts.0.text").String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("Gemini: %w", ErrEmptyResponse)
	}
	return text, nil
}

func (g *Gemini) Rewrite(ctx context.Context, req Request) (string, error) {
	text, err := g.generate(ctx, buildPrompt(req, true))
	if err != nil {
		return "", err
	}
	return cleanOutput(text), nil
}

func (g *Gemini) ValidateCredentials(ctx context.Context) bool {
	if _, err := g.generate(ctx, "Hello, this is a test."); err != nil {
		logger.WarnContext(ctx, "Gemini credential check failed", "error", err)
		return false
	}
	return true
}

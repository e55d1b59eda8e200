package rewriter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/logger"
)

// HuggingFace calls a hosted text-generation model through the inference router.
type HuggingFace struct {
	client *http.Client
	url    string
	apiKey string
}

func NewHuggingFace(client *http.Client, url, apiKey string) *HuggingFace {
	return &HuggingFace{client: client, url: url, apiKey: apiKey}
}

func (h *HuggingFace) Name() string { return "huggingface" }

type hfParameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature,omitempty"`
	TopP         float64 `json:"top_p,omitempty"`
	DoSample     bool    `json:"do_sample,omitempty"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

func (h *HuggingFace) generate(ctx context.Context, body hfRequest) (string, error) {
	if h.apiKey == "" {
		return "", missingKey("Hugging Face")
	}

	raw, err := postJSON(ctx, h.client, "Hugging Face", h.url, map[string]string{"Authorization": "Bearer " + h.apiKey}, body)
	if err != nil {
		return "", err
	}

	// Models answer either [{"generated_text": ...}] or {"generated_text": ...}.
	text := gjson.GetBytes(raw, "0.generated_text").String()
	if text == "" {
		text = gjson.GetBytes(raw, "generated_text").String()
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("Hugging Face: %w", ErrEmptyResponse)
	}
	return text, nil
}

func (h *HuggingFace) Rewrite(ctx context.Context, req Request) (string, error) {
	prompt := buildPrompt(req, false)
	text, err := h.generate(ctx, hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens: 500,
			Temperature:  0.7,
			TopP:         0.95,
			DoSample:     true,
		},
	})
	if err != nil {
		return "", err
	}
	return cleanGenerated(text, prompt), nil
}

func (h *HuggingFace) ValidateCredentials(ctx context.Context) bool {
	_, err := h.generate(ctx, hfRequest{Inputs: "Hello", Parameters: hfParameters{MaxNewTokens: 5}})
	if err != nil {
		logger.WarnContext(ctx, "Hugging Face credential check failed", "error", err)
		return false
	}
	return true
}

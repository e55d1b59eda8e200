// Package rewriter talks to the LLM providers that perform the actual style
// transfer. Every provider satisfies Rewriter; one is chosen at startup.
package rewriter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/config"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/metrics"
)

var (
	ErrInvalidCredentials = errors.New("provider rejected credentials")
	ErrRateLimited        = errors.New("provider rate limit exceeded")
	ErrEmptyResponse      = errors.New("provider returned no text")
)

type Request struct {
	OriginalText           string
	FromStyle              string // may be empty
	ToStyle                string
	PreservationPercentage int
}

type Rewriter interface {
	Rewrite(ctx context.Context, req Request) (string, error)
	// ValidateCredentials makes a tiny call to confirm the configured key works.
	ValidateCredentials(ctx context.Context) bool
	Name() string
}

// ProviderError is a non-2xx reply that is neither a credential nor a rate-limit failure.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error: %d %s: %s", e.Provider, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// New builds the provider named by cfg.Provider, wrapped with metrics.
func New(cfg config.RewriterConfig) (Rewriter, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	var r Rewriter
	switch cfg.Provider {
	case config.ProviderGemini, "":
		r = NewGemini(client, cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)
	case config.ProviderOpenAI:
		r = NewOpenAI(client, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case config.ProviderPerplexity:
		r = NewPerplexity(client, cfg.PerplexityBaseURL, cfg.PerplexityAPIKey, cfg.PerplexityModel)
	case config.ProviderHuggingFace:
		r = NewHuggingFace(client, cfg.HuggingFaceURL, cfg.HuggingFaceAPIKey)
	default:
		return nil, fmt.Errorf("unknown rewriter provider %q", cfg.Provider)
	}
	return Instrument(r), nil
}

type instrumented struct {
	Rewriter
}

// Instrument records call latency and failures for r.
func Instrument(r Rewriter) Rewriter {
	return &instrumented{Rewriter: r}
}

func (i *instrumented) Rewrite(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := i.Rewriter.Rewrite(ctx, req)
	metrics.RecordRewrite(i.Name(), time.Since(start), err)
	return out, err
}

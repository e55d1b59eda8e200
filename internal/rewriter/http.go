package rewriter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	maxResponseBytes = 1 << 20
	maxErrorBody     = 512
)

// postJSON sends body as JSON and returns the raw response for 2xx replies.
// Status codes map onto ErrInvalidCredentials, ErrRateLimited or *ProviderError.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", provider, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%s: %w (status %d)", provider, ErrInvalidCredentials, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s: %w", provider, ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return nil, &ProviderError{Provider: provider, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

func missingKey(provider string) error {
	return fmt.Errorf("%s API key is not configured: %w", provider, ErrInvalidCredentials)
}

package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"argus/core"

	"golang.org/x/time/rate"
)

// HTTPBackendConfig configures the network generation backend.
type HTTPBackendConfig struct {
	BaseURL          string  // default: https://api.openai.com/v1
	APIKey           string
	Model            string        // default: gpt-4o-mini
	Timeout          time.Duration // per-request; default: 30s
	MaxResponseBytes int64         // default: 1 MiB
	RequestsPerSec   float64       // client-side rate limit; default: 2
}

// HTTPBackend calls an OpenAI-compatible chat completions API. It is the
// only I/O-bound suspension point in the pipeline, so every request carries
// the config timeout and a client-side rate limit protects the upstream
// quota during batch runs.
type HTTPBackend struct {
	baseURL          string
	apiKey           string
	model            string
	client           *http.Client
	maxResponseBytes int64
	limiter          *rate.Limiter
}

// NewHTTPBackend creates the network backend.
func NewHTTPBackend(cfg *HTTPBackendConfig) *HTTPBackend {
	if cfg == nil {
		cfg = &HTTPBackendConfig{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = 1 << 20
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 2
	}

	return &HTTPBackend{
		baseURL:          cfg.BaseURL,
		apiKey:           cfg.APIKey,
		model:            cfg.Model,
		client:           &http.Client{Timeout: cfg.Timeout},
		maxResponseBytes: cfg.MaxResponseBytes,
		limiter:          rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
	}
}

func (b *HTTPBackend) Name() string { return "http" }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate sends the prompt as a single user message. Rate limiting and
// timeouts surface as the core sentinel errors so the generator's retry
// policy can classify them.
func (b *HTTPBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(chatRequest{
		Model: b.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a security analyst writing concise incident assessments."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generation request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: %v", core.ErrGenerationTimeout, err)
		}
		return "", fmt.Errorf("call generation backend: %w", err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, b.maxResponseBytes+1)
	respBody, err := io.ReadAll(limited)
	if err != nil {
		return "", fmt.Errorf("read generation response: %w", err)
	}
	if int64(len(respBody)) > b.maxResponseBytes {
		return "", fmt.Errorf("generation response exceeded limit (%d bytes)", b.maxResponseBytes)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: status %d", core.ErrGenerationRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var errBody chatErrorResponse
		if json.Unmarshal(respBody, &errBody) == nil && errBody.Error.Message != "" {
			return "", fmt.Errorf("generation backend error: %s (type=%s)",
				errBody.Error.Message, errBody.Error.Type)
		}
		return "", fmt.Errorf("generation backend error: status %d", resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("generation response had no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

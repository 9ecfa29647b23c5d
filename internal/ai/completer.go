// Package ai provides the completion client used for contact enrichment.
// Callers hand it a prompt and get text back; the wire protocol is
// OpenAI-compatible chat completions, so any conforming endpoint works.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/thib420/AI-Table-sub000/internal/errors"
)

// Defaults for the completion client
const (
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 30 * time.Second

	maxCompletionTokens = 500
	temperature         = 0.2
)

// Config holds settings for the completion client
type Config struct {
	BaseURL string        // OpenAI-compatible API base, e.g. https://api.openai.com/v1
	APIKey  string        // bearer token; empty disables the client
	Model   string        // model name, defaults to DefaultModel
	Timeout time.Duration // per-request timeout, defaults to DefaultTimeout
}

// Completer produces a text completion for a prompt
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// client implements Completer over an OpenAI-compatible endpoint
type client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// disabled implements Completer when no endpoint is configured. Every call
// reports ErrNotConfigured so callers can skip enrichment silently.
type disabled struct{}

func (disabled) Complete(context.Context, string) (string, error) {
	return "", apperrors.ErrNotConfigured
}

// NewCompleter creates a completion client from config. Without a base URL
// and API key the returned client reports ErrNotConfigured on every call.
func NewCompleter(cfg Config) Completer {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return disabled{}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Complete sends the prompt as a single-turn chat and returns the reply text
func (c *client) Complete(ctx context.Context, prompt string) (string, error) {
	request := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxCompletionTokens,
		Temperature: temperature,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed (%v): %w", err, apperrors.ErrTransport)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request returned status %d: %w", resp.StatusCode, apperrors.ErrTransport)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion failed: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

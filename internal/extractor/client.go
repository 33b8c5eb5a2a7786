package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"voice-qa-go/internal/invoker"
)

// ClientConfig holds gateway connection settings.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Client is a chat-completions gateway client. One Complete call is one
// attempt; the invoker owns retries.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// NewClient builds a completion client.
func NewClient(cfg ClientConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Complete sends the conversation with temperature 0 and returns the first
// choice's content.
func (c *Client) Complete(ctx context.Context, messages []invoker.Message) (string, error) {
	if c.cfg.BaseURL == "" || c.cfg.APIKey == "" {
		return "", &invoker.ConfigurationError{Reason: "llm gateway not configured"}
	}

	reqBody := map[string]any{
		"model":       c.cfg.Model,
		"messages":    messages,
		"temperature": 0.0,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(data))
	if err != nil {
		return "", &invoker.TransportError{Op: "completion", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &invoker.TransportError{Op: "completion", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &invoker.TransportError{Op: "completion", Err: err}
	}
	if resp.StatusCode >= 300 {
		return "", &invoker.TransportError{Op: "completion", Err: fmt.Errorf("status %d: %s", resp.StatusCode, body)}
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 {
		return "", &invoker.TransportError{Op: "completion", Err: fmt.Errorf("unexpected gateway response: %s", body)}
	}
	return parsed.Choices[0].Message.Content, nil
}

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cyber_cricket/internal/domain"
	"cyber_cricket/internal/logger"
	"cyber_cricket/internal/metrics"
)

const (
	temperature = 0.7
	maxTokens   = 800
)

var ErrEmptyReply = errors.New("empty completion")

// Message is one chat-completions message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Client talks to OpenAI-compatible chat completion endpoints, one per participant.
type Client struct {
	httpClient  *http.Client
	maxAttempts int
	retryPause  time.Duration
	log         *slog.Logger
}

func NewClient(timeout time.Duration, maxAttempts int) *Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		retryPause:  time.Second,
		log:         logger.Component("ai"),
	}
}

// Complete performs a single completion request for participant p.
func (c *Client) Complete(ctx context.Context, p *domain.Participant, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       p.ModelName(),
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	url := strings.TrimRight(p.APIBase, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveCompletion("error", time.Since(start))
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ObserveCompletion("error", time.Since(start))
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("API error: %s - %s", resp.Status, string(b))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.ObserveCompletion("error", time.Since(start))
		return "", err
	}
	metrics.ObserveCompletion("ok", time.Since(start))

	if len(out.Choices) == 0 {
		return "", ErrEmptyReply
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// completeWithRetry retries a failed completion up to maxAttempts times.
func (c *Client) completeWithRetry(ctx context.Context, p *domain.Participant, messages []Message) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		text, err := c.Complete(ctx, p, messages)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if attempt == c.maxAttempts {
			break
		}
		c.log.Warn("completion failed, retrying", "participant", p.Name, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.retryPause):
		}
	}
	return "", lastErr
}

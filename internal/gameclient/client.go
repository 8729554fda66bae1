package gameclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cyber_cricket/internal/domain"
)

// Client drives a remote game service over its JSON API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL. timeout bounds a
// single request and must cover a full completion round-trip.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithToken sets the operator bearer token sent with every request.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

func (c *Client) StartGame(ctx context.Context) (*domain.StartGameResult, error) {
	var out domain.StartGameResult
	if err := c.do(ctx, "POST", "/api/v1/game/start", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdvanceRound(ctx context.Context, round int) (*domain.AdvanceRoundResult, error) {
	var out domain.AdvanceRoundResult
	if err := c.do(ctx, "POST", "/api/v1/game/round", domain.AdvanceRoundRequest{Round: round}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Step(ctx context.Context, req domain.StepRequest) (*domain.StepResponse, error) {
	var out domain.StepResponse
	if err := c.do(ctx, "POST", "/api/v1/game/step", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) State(ctx context.Context) (*domain.GameState, error) {
	var out domain.GameState
	if err := c.do(ctx, "GET", "/api/v1/game/state", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends one request. Structured error bodies come back as
// *domain.ServiceError; anything else is a plain error.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var svcErr domain.ServiceError
		if json.Unmarshal(raw, &svcErr) == nil && svcErr.Message != "" {
			svcErr.Status = resp.StatusCode
			return &svcErr
		}
		return fmt.Errorf("API error: %s - %s", resp.Status, string(raw))
	}

	return json.Unmarshal(raw, out)
}

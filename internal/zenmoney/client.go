package zenmoney

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://api.zenmoney.ru"

	diffPath    = "/v8/diff/"
	suggestPath = "/v8/suggest/"
)

// ErrUnauthorized is returned on a 401 from the service. The token is
// expired or revoked; retrying with the same token is pointless.
var ErrUnauthorized = errors.New("zenmoney: token rejected (401), obtain a new one")

// Exchanger is the single operation the sync engine consumes. A request
// with cursor 0 fetches the full state; a request carrying entities
// commits them and the response reflects the post-commit state.
type Exchanger interface {
	Exchange(ctx context.Context, req *DiffRequest) (*Diff, error)
}

// Client talks to the ledger service over HTTP with bearer auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.New("zenmoney: token is required")
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    DefaultBaseURL,
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ Exchanger = (*Client)(nil)

// Exchange performs one diff round trip.
func (c *Client) Exchange(ctx context.Context, req *DiffRequest) (*Diff, error) {
	var diff Diff
	if err := c.post(ctx, diffPath, req, &diff); err != nil {
		return nil, err
	}
	return &diff, nil
}

// Suggestion is the service's ML guess for a payee string.
type Suggestion struct {
	Payee    string   `json:"payee,omitempty"`
	Merchant *string  `json:"merchant,omitempty"`
	Tag      []string `json:"tag,omitempty"`
}

// Suggest asks the service for category/merchant suggestions by payee.
func (c *Client) Suggest(ctx context.Context, payee string) (*Suggestion, error) {
	var s Suggestion
	if err := c.post(ctx, suggestPath, map[string]string{"payee": payee}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("post %s: unexpected status %d: %s", path, resp.StatusCode, snippet)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

package boostapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"boostd/internal/domain"
)

const DefaultTimeout = 15 * time.Second

// ErrUnusableResponse is returned when a 2xx body does not decode.
var ErrUnusableResponse = domain.ErrUnusableResponse

// APIError is returned for any non-2xx response of the boost API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("boost api error: %d %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// IsNotFound reports whether err is a 404 from the boost API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client is a boost API client. A Client without a token can only be used to
// derive per-user clients via WithToken.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new boost API client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithToken returns a client that authenticates as the given user.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// SubmitOutcome posts a finished game. A response without a body yields
// (nil, nil).
func (c *Client) SubmitOutcome(ctx context.Context, req domain.OutcomeRequest) (*domain.OutcomeResponse, error) {
	var out *domain.OutcomeResponse
	if err := c.do(ctx, http.MethodPost, "/boost/respond", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchBoost loads a boost including its game parameters and game logs.
func (c *Client) FetchBoost(ctx context.Context, boostID string) (*domain.Boost, error) {
	var out *domain.Boost
	path := "/boost/detail?boostId=" + url.QueryEscape(boostID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkStatusViewed records that the user has seen status for boostID.
func (c *Client) MarkStatusViewed(ctx context.Context, boostID, status string) error {
	body := struct {
		BoostID string `json:"boostId"`
		Status  string `json:"status"`
	}{boostID, status}
	return c.do(ctx, http.MethodPost, "/boost/status/viewed", body, nil)
}

// RefreshBalance fetches the user's current balance.
func (c *Client) RefreshBalance(ctx context.Context) (*domain.Balance, error) {
	var out *domain.Balance
	if err := c.do(ctx, http.MethodGet, "/balance", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
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
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	// "null" decodes into a nil pointer
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUnusableResponse, err)
	}
	return nil
}

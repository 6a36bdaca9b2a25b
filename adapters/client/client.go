package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "http://localhost:3001/api"

// Client talks to the chat HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient swaps the underlying client. Streams need a client without a
// total request timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// chatRequest leaves contextTypes out only for a nil slice. An empty slice is
// sent as [] and means no context.
type chatRequest struct {
	Message      string    `json:"message"`
	ContextTypes *[]string `json:"contextTypes,omitempty"`
}

// Health reports whether the server answers with status "ok".
func (c *Client) Health(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var out struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/health", &out); err != nil {
		return false, err
	}
	return out.Status == "ok", nil
}

// Contexts lists the context groups the server has loaded.
func (c *Client) Contexts(ctx context.Context) ([]string, error) {
	var out struct {
		Contexts []string `json:"contexts"`
	}
	if err := c.getJSON(ctx, "/chat/contexts", &out); err != nil {
		return nil, err
	}
	if out.Contexts == nil {
		return []string{}, nil
	}
	return out.Contexts, nil
}

// Send posts a message and waits for the full reply. A nil contextTypes lets
// the server pick its default set.
func (c *Client) Send(ctx context.Context, message string, contextTypes []string) (string, error) {
	resp, err := c.post(ctx, "/chat", message, contextTypes)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	return out.Response, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// post sends a chat request and returns the response once the status is 2xx.
func (c *Client) post(ctx context.Context, path, message string, contextTypes []string) (*http.Response, error) {
	payload := chatRequest{Message: message}
	if contextTypes != nil {
		payload.ContextTypes = &contextTypes
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var out struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(resp.StatusCode)
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&out); err == nil && out.Error != "" {
		msg = out.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// isAbort reports whether err comes from the caller canceling ctx.
func isAbort(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled)
}

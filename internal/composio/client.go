package composio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mediareport/internal/config"
	"mediareport/internal/constants"
	"mediareport/internal/logger"
	"mediareport/pkg/metrics"
)

const (
	ToolkitGmail       = "gmail"
	ToolReplyToThread  = "GMAIL_REPLY_TO_THREAD"
	uploadRequestPath  = "/api/v3/files/upload/request"
	executeToolPathFmt = "/api/v3/tools/execute/%s"
)

// Client talks to the Composio REST API with an x-api-key header.
type Client struct {
	cfg    config.ComposioConfig
	client *http.Client
	logger logger.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func NewClient(cfg config.ComposioConfig, log logger.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	c := &Client{cfg: cfg, client: &http.Client{Timeout: timeout}, logger: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) UserID() string {
	return c.cfg.UserID
}

// StatusError is a non-2xx response from Composio or the presigned store.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("composio returned status %d: %s", e.Status, e.Body)
}

// postJSON sends body to path and decodes the response into out. Transport
// and decode failures are returned unwrapped; non-2xx yields *StatusError.
func (c *Client) postJSON(ctx context.Context, collaborator, path string, body, out interface{}) error {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.ObserveCollaborator(collaborator, status, time.Since(start))
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return &StatusError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	status = "ok"
	return nil
}

// Package piston forwards execution requests to a Piston-compatible API,
// e.g. the public https://emkc.org/api/v2/piston or a self-hosted instance.
package piston

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sakif/snippet-vault/internal/executor"
)

// Client implements executor.Executor against an upstream Piston.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// New creates a Client for baseURL (without the trailing /execute).
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		logger: logger,
	}
}

// UpstreamError is a non-2xx answer from Piston.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("piston: upstream returned %d: %s", e.Status, e.Message)
}

// Execute posts req to {baseURL}/execute. An empty version is sent as "*",
// which Piston resolves to the newest installed runtime.
func (c *Client) Execute(ctx context.Context, req executor.Request) (*executor.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Version == "" {
		req.Version = "*"
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/execute")
	if err != nil {
		return nil, fmt.Errorf("piston: calling upstream: %w", err)
	}
	raw := resp.Body()

	if resp.IsError() {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &e)
		c.logger.Warn("piston rejected request",
			slog.Int("status", resp.StatusCode()),
			slog.String("language", req.Language),
			slog.String("message", e.Message),
		)
		// Piston reports an unknown language/version pair with a 400.
		if resp.StatusCode() == http.StatusBadRequest && strings.Contains(e.Message, "runtime is unknown") {
			return nil, fmt.Errorf("%w: %s %s", executor.ErrUnsupportedLanguage, req.Language, req.Version)
		}
		return nil, &UpstreamError{Status: resp.StatusCode(), Message: e.Message}
	}

	var result executor.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("piston: decoding response: %w", err)
	}
	result.Duration = time.Since(start)
	return &result, nil
}

// Package webhook provides the remote agent: one POST carrying the full
// entry payload to an external service that filters and drafts in one step.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"bip-digest/internal/usecase/compose"
)

// maxErrorBodyLen caps the response body carried in error messages.
const maxErrorBodyLen = 500

// Config contains configuration for the agent webhook.
type Config struct {
	// URL is the webhook endpoint.
	URL string

	// APIKey authenticates the request; empty disables the header.
	APIKey string

	// APIKeyHeader names the header the key goes into. For the
	// Authorization header a missing Bearer prefix is added.
	APIKeyHeader string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration
}

// Validate checks the configuration and fills defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("webhook URL cannot be empty")
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("webhook URL must be http or https, got %q", c.URL)
	}
	if c.APIKeyHeader == "" {
		c.APIKeyHeader = "Authorization"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return nil
}

// Agent sends the aggregated entries to a remote service that performs the
// filter and draft steps itself and answers with the article text. It
// implements the compose.Remote interface.
type Agent struct {
	config     Config
	httpClient *http.Client
}

// NewAgent creates a webhook agent. The config should be validated first.
func NewAgent(config Config) *Agent {
	return &Agent{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Process POSTs the payload and returns the response body as the article.
// Every request carries a generated X-Request-Id for correlation with the
// remote side's logs.
func (a *Agent) Process(ctx context.Context, payload compose.Payload) (string, error) {
	data, err := payload.Encode()
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.URL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create webhook request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("X-Request-Id", requestID)
	if a.config.APIKey != "" {
		req.Header.Set(a.config.APIKeyHeader, a.authValue())
	}

	slog.Info("sending entries to agent webhook",
		slog.String("request_id", requestID),
		slog.Int("entries", len(payload.Entries)),
		slog.Int("payload_bytes", len(data)))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send to agent: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("read agent response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("agent returned HTTP %d: %s",
			resp.StatusCode, truncate(string(body), maxErrorBodyLen))
	}

	slog.Info("agent webhook accepted entries",
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Int("response_bytes", len(body)))
	return string(body), nil
}

// authValue normalizes the Authorization header: a bare key gets the Bearer
// prefix, custom headers carry the key untouched.
func (a *Agent) authValue() string {
	key := a.config.APIKey
	if strings.EqualFold(a.config.APIKeyHeader, "Authorization") &&
		!strings.HasPrefix(strings.ToLower(key), "bearer ") {
		return "Bearer " + key
	}
	return key
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

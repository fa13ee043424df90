// SPDX-License-Identifier: MPL-2.0

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Option configures a client during construction.
type Option func(*clientConfig) error

type clientConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) error {
		cfg.httpClient = c
		return nil
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cfg *clientConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		if d < 0 {
			return fmt.Errorf("timeout must not be negative")
		}
		cfg.timeout = d
		return nil
	}
}

// client is the transport shared by the portal and analytics clients.
type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func newClient(name, baseURL, apiKey string, opts []Option) (*client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%s: base URL is required", name)
	}
	cfg := &clientConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{Timeout: defaultTimeout}
	if cfg.httpClient != nil {
		// The caller's client is never modified.
		c := *cfg.httpClient
		httpClient = &c
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger.With(slog.String("client", name)),
	}, nil
}

// envelope is the response wrapper both services use.
type envelope struct {
	Params struct {
		Status string `json:"status"`
		Err    string `json:"err"`
		ErrMsg string `json:"errmsg"`
	} `json:"params"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// doJSON sends body (when not nil) as JSON and decodes the result member of the response into dst.
// Non-2xx responses and responses carrying params.errmsg become an *APIError, or a *CollisionError
// when the message says the identifier is already taken.
func (c *client) doJSON(ctx context.Context, method, path, operation string, body any, dst any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", operation, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", operation, err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.DebugContext(ctx, "API request", slog.String("operation", operation), slog.String("method", method), slog.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: do request: %w", operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", operation, err)
	}
	c.logger.DebugContext(ctx, "API response", slog.String("operation", operation), slog.Int("status", resp.StatusCode))

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Params.ErrMsg
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		if msg == "" {
			msg = resp.Status
		}
		return responseError(operation, resp.StatusCode, msg)
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if decodeErr != nil {
		return newAPIError(operation, resp.StatusCode, fmt.Sprintf("malformed response: %v", decodeErr))
	}
	if env.Params.ErrMsg != "" {
		return responseError(operation, resp.StatusCode, env.Params.ErrMsg)
	}

	if dst != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, dst); err != nil {
			return newAPIError(operation, resp.StatusCode, fmt.Sprintf("malformed result: %v", err))
		}
	}
	return nil
}

func responseError(operation string, statusCode int, msg string) error {
	if isCollisionMessage(msg) {
		return NewCollisionError(operation, statusCode, msg)
	}
	return newAPIError(operation, statusCode, msg)
}

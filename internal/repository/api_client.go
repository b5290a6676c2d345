package repository

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

	apperrors "rentacars/internal/errors"
	"rentacars/internal/entities"
	"rentacars/internal/metrics"
)

// APIClient issues the HTTP calls to the rental API. Every call is exactly one
// round trip and returns either the decoded body or an *apperrors.HTTPError.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Collector
	logger     *slog.Logger
}

type ClientOption func(*APIClient)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *APIClient) { c.httpClient = hc }
}

func WithMetrics(m *metrics.Collector) ClientOption {
	return func(c *APIClient) { c.metrics = m }
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *APIClient) { c.logger = l }
}

// NewAPIClient creates a client for the API rooted at baseURL.
func NewAPIClient(baseURL string, opts ...ClientOption) *APIClient {
	c := &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *APIClient) BaseURL() string {
	return c.baseURL
}

type apiRequest struct {
	resource  string
	operation string
	method    string
	path      string
	token     string
	body      any
	// fallback replaces the error message when the error body has none.
	fallback string
}

func (c *APIClient) do(ctx context.Context, req apiRequest, out any) error {
	var payload io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", req.resource, req.operation, err)
		}
		payload = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, payload)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", req.resource, req.operation, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveAPIRequest(req.resource, req.operation, 0, time.Since(start))
		c.logger.Warn("api request failed",
			"method", req.method, "path", req.path, "error", err)
		return apperrors.NewTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metrics.ObserveAPIRequest(req.resource, req.operation, resp.StatusCode, time.Since(start))
	if err != nil {
		return apperrors.NewTransportError(err)
	}
	c.logger.Debug("api request",
		"method", req.method, "path", req.path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(body)
		if msg == "" {
			msg = req.fallback
		}
		return apperrors.NewHTTPError(resp.StatusCode, msg)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		he := apperrors.NewResponseError(resp.StatusCode, "Respuesta inválida del servidor")
		he.Err = err
		return he
	}
	return nil
}

// errorMessage pulls the human message out of an error body: {message},
// {error: "..."} or a plain-text body.
func errorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var m entities.MessageResponse
	if err := json.Unmarshal(trimmed, &m); err == nil {
		if m.Message != "" {
			return m.Message
		}
		if s, ok := m.Error.(string); ok {
			return s
		}
		return ""
	}
	if trimmed[0] == '<' {
		return ""
	}
	return string(trimmed)
}

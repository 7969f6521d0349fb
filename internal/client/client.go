// Package client is a small HTTP client for the pricing service.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"house-pricer/internal/ml"
	"house-pricer/internal/storage"

	"github.com/go-resty/resty/v2"
)

// APIError is a non 2xx response from the service.
type APIError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("pricer: %d %s (request %s)", e.Status, e.Message, e.RequestID)
	}
	return fmt.Sprintf("pricer: %d %s", e.Status, e.Message)
}

type Client struct {
	rest *resty.Client
}

// New creates a client for the service at baseURL. Idempotent GETs are
// retried; predictions are not.
func New(baseURL string, timeout time.Duration) *Client {
	r := resty.New().SetBaseURL(baseURL)
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	r.SetRetryCount(2)
	r.SetRetryWaitTime(200 * time.Millisecond)
	r.AddRetryCondition(func(resp *resty.Response, err error) bool {
		if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
			return false
		}
		return err != nil || resp.StatusCode() >= http.StatusInternalServerError
	})
	return &Client{rest: r}
}

// Predict posts one feature mapping. Values may be numbers, booleans, numeric
// strings or category labels.
func (c *Client) Predict(ctx context.Context, features map[string]any) (*ml.PredictionResponse, error) {
	out := &ml.PredictionResponse{}
	if err := c.do(ctx, http.MethodPost, "/predict", features, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health fetches /health.
func (c *Client) Health(ctx context.Context) (*ml.HealthResponse, error) {
	out := &ml.HealthResponse{}
	if err := c.do(ctx, http.MethodGet, "/health", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ModelInfo fetches /model/info.
func (c *Client) ModelInfo(ctx context.Context) (*ml.ModelInfo, error) {
	out := &ml.ModelInfo{}
	if err := c.do(ctx, http.MethodGet, "/model/info", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Versions fetches /model/versions.
func (c *Client) Versions(ctx context.Context) ([]storage.ModelVersion, error) {
	var out []storage.ModelVersion
	if err := c.do(ctx, http.MethodGet, "/model/versions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	apiErr := &ml.ErrorResponse{}
	req := c.rest.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(result).
		SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return &APIError{
			Status:    resp.StatusCode(),
			Message:   msg,
			RequestID: resp.Header().Get(ml.RequestIDHeader),
		}
	}
	return nil
}

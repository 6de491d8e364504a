// Package backend is the shared REST client for the upstream services
// API. All authoritative pricing, stock and eligibility decisions
// originate there; this service only consumes.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrNotFound    = errors.New("resource not found")
	ErrUnavailable = errors.New("backend unavailable")
)

// StatusError carries a non-2xx backend response through to callers
// that need the status and body (voucher errors in particular).
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Status)
}

type response struct {
	status int
	body   []byte
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[response]
}

// NewClient builds a client for the given API base URL. Requests run
// through a circuit breaker that trips after consecutive transport or
// 5xx failures; 4xx responses are backend verdicts and do not count.
func NewClient(name, baseURL string, timeout time.Duration) *Client {
	cb := gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: cb,
	}
}

func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) PostJSON(ctx context.Context, path string, in, out interface{}) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request failed: %w", err)
		}
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	resp, err := c.breaker.Execute(func() (response, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, errReq := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if errReq != nil {
			return response{}, errReq
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		res, errDo := c.http.Do(req)
		if errDo != nil {
			return response{}, errDo
		}
		defer res.Body.Close()

		data, errRead := io.ReadAll(io.LimitReader(res.Body, 1<<20))
		if errRead != nil {
			return response{}, errRead
		}

		// 5xx counts against the breaker; 4xx is a verdict, not a failure
		if res.StatusCode >= http.StatusInternalServerError {
			return response{}, &StatusError{Status: res.StatusCode, Body: data}
		}

		return response{status: res.StatusCode, body: data}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return fmt.Errorf("backend request %s %s failed: %w", method, path, err)
	}

	if resp.status == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.status < http.StatusOK || resp.status >= http.StatusMultipleChoices {
		return &StatusError{Status: resp.status, Body: resp.body}
	}

	if out != nil {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return fmt.Errorf("decode backend response failed: %w", err)
		}
	}
	return nil
}

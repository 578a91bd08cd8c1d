// Package upstream is the typed client for the Fruitline REST API.
package upstream

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

	"github.com/golang-jwt/jwt/v5"

	"github.com/fruitline/fruitline/internal/platform/httpx"
)

const maxResponseBytes = 4 << 20

var (
	// ErrUnauthorized is returned when the upstream rejects the credentials
	// or the token is already expired. Callers must drop the session.
	ErrUnauthorized = fmt.Errorf("%w: upstream session expired", httpx.ErrUnauthorized)
	// ErrNoCredentials is returned when an authenticated call is made without a token.
	ErrNoCredentials = fmt.Errorf("%w: no upstream credentials", httpx.ErrUnauthorized)
)

// Credentials is the bearer token issued by the upstream at login.
type Credentials struct {
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry. A zero expiry never expires.
func (c Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The upstream owns the signing key; the value is only used to avoid sending
// requests that are certain to fail.
func TokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// APIError is a non-2xx answer other than 401.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap lets callers match httpx.ErrUpstream.
func (e *APIError) Unwrap() error {
	return httpx.ErrUpstream
}

// ProblemStatus passes client errors through and maps server errors to 502.
func (e *APIError) ProblemStatus() int {
	switch e.Status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity, http.StatusForbidden:
		return e.Status
	}
	return http.StatusBadGateway
}

// IsStatus reports whether err is an APIError with one of the given statuses.
func IsStatus(err error, statuses ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, s := range statuses {
		if apiErr.Status == s {
			return true
		}
	}
	return false
}

// Observer receives one sample per request.
type Observer interface {
	ObserveUpstream(method string, status int, elapsed time.Duration)
}

// Client talks to the upstream API. It is safe for concurrent use; With
// returns a copy bound to one operator's credentials.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
	creds      Credentials
	now        func() time.Time
}

// NewClient constructs a client with one timeout applied to every call.
func NewClient(baseURL string, timeout time.Duration, observer Observer) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		observer:   observer,
		now:        time.Now,
	}
}

// With returns a client that sends creds on every request.
func (c *Client) With(creds Credentials) *Client {
	bound := *c
	bound.creds = creds
	return &bound
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.send(ctx, method, path, query, body, out, true)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any, auth bool) error {
	if auth {
		if c.creds.Token == "" {
			return ErrNoCredentials
		}
		if c.creds.Expired(c.now()) {
			return ErrUnauthorized
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.creds.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, 0, start)
		return fmt.Errorf("%w: %s %s: %v", httpx.ErrUpstream, method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.observe(method, resp.StatusCode, start)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", httpx.ErrUpstream, method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: errorMessage(raw, resp.StatusCode),
			Body:    raw,
		}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := decode(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", httpx.ErrUpstream, method, path, err)
	}
	return nil
}

func (c *Client) observe(method string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveUpstream(method, status, time.Since(start))
	}
}

// decode accepts both {"data": ...} envelopes and bare bodies.
func decode(raw []byte, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
			return json.Unmarshal(env.Data, out)
		}
	}
	return json.Unmarshal(trimmed, out)
}

func errorMessage(raw []byte, status int) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		if msg := strings.TrimSpace(body.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(body.Error); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func escape(id string) string {
	return url.PathEscape(id)
}

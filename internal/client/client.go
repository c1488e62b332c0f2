// Package client is a typed wrapper over the /api surface of the mock server.
package client

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

	"greendrake/blast/internal/models"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:3001/api"

// HTTPClient is the part of *http.Client the wrapper needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Status     string
	// Message and Fields come from the server's error payload when it sent one.
	Message string
	Fields  []models.FieldError
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("API Error: %d %s", e.StatusCode, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Client groups the resource families of the API.
type Client struct {
	baseURL string
	httpc   HTTPClient

	MLS       *MLSAPI
	Listings  *ListingsAPI
	Geo       *GeoAPI
	Packages  *PackagesAPI
	Campaigns *CampaignsAPI
	Checkout  *CheckoutAPI
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) { c.httpc = h }
}

// New returns a Client for baseURL, which includes the /api prefix.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.MLS = &MLSAPI{c: c}
	c.Listings = &ListingsAPI{c: c}
	c.Geo = &GeoAPI{c: c}
	c.Packages = &PackagesAPI{c: c}
	c.Campaigns = &CampaignsAPI{c: c}
	c.Checkout = &CheckoutAPI{c: c}
	return c
}

// RequestOption adjusts a single outgoing request.
type RequestOption func(*http.Request)

// WithIdempotencyKey makes a repeated mutation return the first result.
func WithIdempotencyKey(key string) RequestOption {
	return func(r *http.Request) {
		if key != "" {
			r.Header.Set("Idempotency-Key", key)
		}
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, in, out, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, opts ...RequestOption) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload models.ErrorResponse
	if json.Unmarshal(b, &payload) == nil {
		apiErr.Message = payload.Message
		apiErr.Fields = payload.Errors
	}
	return apiErr
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Message returns the text a form should show for err.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// Package client is a typed HTTP client for the peopledesk API.
//
// Idempotent requests are retried with exponential backoff on transport
// errors and 5xx responses. Creates and actions (POST) are sent once.
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
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/peopledesk/peopledesk/pkg/types"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxTries = 4
)

// FallbackHeader is set by the server on responses served from sample data.
const FallbackHeader = "X-Data-Source"

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("peopledesk: %d %s", e.Status, e.Message)
}

// StatusCode returns the HTTP status.
func (e *APIError) StatusCode() int {
	return e.Status
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to one peopledesk server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxTries   uint
	newBackOff func() backoff.BackOff
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMaxTries bounds attempts per idempotent request. 1 disables retries.
func WithMaxTries(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTries = n
		}
	}
}

// WithBackOff sets the retry schedule. newBackOff is called once per request.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		c.newBackOff = newBackOff
	}
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxTries:   defaultMaxTries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Filter is one list condition; see ListOptions.
type Filter struct {
	Column   string `json:"column"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// ListOptions selects a page of a list endpoint. Zero values use server
// defaults.
type ListOptions struct {
	Page      int
	Limit     int
	OrderBy   string
	Ascending bool
	Filters   []Filter
}

func (o ListOptions) values() (url.Values, error) {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.OrderBy != "" {
		v.Set("orderBy", o.OrderBy)
		v.Set("ascending", strconv.FormatBool(o.Ascending))
	}
	if len(o.Filters) > 0 {
		raw, err := json.Marshal(o.Filters)
		if err != nil {
			return nil, fmt.Errorf("encoding filters: %w", err)
		}
		v.Set("filters", string(raw))
	}
	return v, nil
}

// do sends one request and decodes the JSON response into out. It reports
// whether the server answered from sample data.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (bool, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return false, fmt.Errorf("encoding request: %w", err)
		}
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	tries := c.maxTries
	if method == http.MethodPost {
		tries = 1
	}

	return backoff.Retry(ctx, func() (bool, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return false, backoff.Permanent(err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return false, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			apiErr := decodeError(resp)
			if resp.StatusCode >= 500 {
				return false, apiErr
			}
			return false, backoff.Permanent(apiErr)
		}
		fallback := resp.Header.Get(FallbackHeader) == "fallback"
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return false, backoff.Permanent(fmt.Errorf("decoding response: %w", err))
			}
		}
		return fallback, nil
	}, backoff.WithBackOff(c.newBackOff()), backoff.WithMaxTries(tries))
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body types.ErrorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	}
	return apiErr
}

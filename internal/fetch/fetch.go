// Package fetch provides the JSON-over-HTTP client shared by every
// external service client.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "SpeciesResolverCLI/2.0 (Educational/Research)"

// Error represents an error during a request to an external service.
type Error struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the client behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Client issues JSON requests with a fixed timeout.
// Call Close when done to release pooled connections.
type Client struct {
	httpClient *http.Client
	transport  *http.Transport
	options    *Options
}

// NewClient creates a client. A nil opts uses DefaultOptions.
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		transport: transport,
		options:   opts,
	}
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

// GetJSON issues a GET request and decodes the JSON response into out.
// params may be nil.
func (c *Client) GetJSON(ctx context.Context, urlStr string, params url.Values, out any) error {
	target, err := buildURL(urlStr, params)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &Error{URL: target, Message: "failed to create request", Cause: err}
	}
	return c.do(req, out)
}

// PostJSON encodes body as JSON, POSTs it and decodes the JSON response into out.
func (c *Client) PostJSON(ctx context.Context, urlStr string, body, out any) error {
	target, err := buildURL(urlStr, nil)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return &Error{URL: target, Message: "failed to encode request body", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return &Error{URL: target, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	target := req.URL.String()

	req.Header.Set("User-Agent", c.options.UserAgent)
	req.Header.Set("Accept", "application/json")
	for key, value := range c.options.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{URL: target, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{
			URL:        target,
			Message:    "failed to read response body",
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			URL:        target,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return &Error{
			URL:        target,
			Message:    "failed to decode JSON response",
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}
	return nil
}

func buildURL(urlStr string, params url.Values) (string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return "", &Error{
			URL:     urlStr,
			Message: "invalid URL",
			Cause:   err,
		}
	}
	if len(params) > 0 {
		query := parsedURL.Query()
		for key, values := range params {
			for _, v := range values {
				query.Add(key, v)
			}
		}
		parsedURL.RawQuery = query.Encode()
	}
	return parsedURL.String(), nil
}

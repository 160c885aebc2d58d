// Package neverbounce provides a client for the NeverBounce v4 single check
// endpoint.
package neverbounce

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fency/outreach-pipeline/internal/resilience"
)

const (
	defaultBaseURL = "https://api.neverbounce.com/v4"
	serviceName    = "neverbounce"

	statusSuccess = "success"
)

// ErrMissingKey is returned without a network call when no API key is set.
var ErrMissingKey = eris.New("neverbounce: API key is not configured")

// Client checks a single email address.
type Client interface {
	Check(ctx context.Context, email string) (*Result, error)
}

// Result is the single check answer. Raw holds the full response body for
// audit logging.
type Result struct {
	Status              string          `json:"status"`
	Result              string          `json:"result"`
	Flags               []string        `json:"flags"`
	SuggestedCorrection string          `json:"suggested_correction"`
	ExecutionTime       int             `json:"execution_time"`
	Message             string          `json:"message"`
	Raw                 json.RawMessage `json:"-"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a NeverBounce client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Check(ctx context.Context, email string) (*Result, error) {
	if c.apiKey == "" {
		return nil, ErrMissingKey
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("email", email)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/single/check?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "neverbounce: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "neverbounce: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "neverbounce: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resilience.NewStatusError(serviceName, resp.StatusCode, body)
	}

	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, eris.Wrap(err, "neverbounce: unmarshal response")
	}
	if res.Status != statusSuccess {
		return nil, eris.Errorf("neverbounce: api status %s: %s", res.Status, res.Message)
	}
	res.Raw = json.RawMessage(body)
	return &res, nil
}

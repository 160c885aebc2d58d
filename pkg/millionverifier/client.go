// Package millionverifier provides a client for the MillionVerifier single
// email verification API.
package millionverifier

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
	defaultBaseURL = "https://api.millionverifier.com/api/v3"
	serviceName    = "millionverifier"

	// Seconds the API may spend on a single check before answering.
	checkTimeoutSecs = "30"
)

// ErrMissingKey is returned without a network call when no API key is set.
var ErrMissingKey = eris.New("millionverifier: API key is not configured")

// Client verifies a single email address.
type Client interface {
	Verify(ctx context.Context, email string) (*Result, error)
}

// Result is the verification answer. Raw holds the full response body for
// audit logging.
type Result struct {
	Email      string          `json:"email"`
	Quality    string          `json:"quality"`
	Result     string          `json:"result"`
	ResultCode int             `json:"resultcode"`
	SubResult  string          `json:"subresult"`
	Free       bool            `json:"free"`
	Role       bool            `json:"role"`
	Error      string          `json:"error"`
	Raw        json.RawMessage `json:"-"`
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

// NewClient creates a MillionVerifier client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 35 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Verify(ctx context.Context, email string) (*Result, error) {
	if c.apiKey == "" {
		return nil, ErrMissingKey
	}

	q := url.Values{}
	q.Set("api", c.apiKey)
	q.Set("email", email)
	q.Set("timeout", checkTimeoutSecs)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "millionverifier: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "millionverifier: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "millionverifier: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resilience.NewStatusError(serviceName, resp.StatusCode, body)
	}

	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, eris.Wrap(err, "millionverifier: unmarshal response")
	}
	// Account-level problems (bad key, no credits) come back as 200 with
	// an error string and no result.
	if res.Result == "" && res.Error != "" {
		return nil, eris.Errorf("millionverifier: api error: %s", res.Error)
	}
	res.Raw = json.RawMessage(body)
	return &res, nil
}

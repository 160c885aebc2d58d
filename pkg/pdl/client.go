// Package pdl provides a client for the People Data Labs person enrichment API.
package pdl

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fency/outreach-pipeline/internal/resilience"
)

const (
	defaultBaseURL       = "https://api.peopledatalabs.com/v5"
	defaultMinLikelihood = 3
	serviceName          = "pdl"
)

// ErrNoParams is returned without a network call when no lookup field is set.
var ErrNoParams = eris.New("pdl: no valid parameters provided for enrichment")

// Client enriches a person profile.
type Client interface {
	Enrich(ctx context.Context, params EnrichParams) (*EnrichResult, error)
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

// WithMinLikelihood overrides the minimum match confidence sent with every
// lookup.
func WithMinLikelihood(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.minLikelihood = n
		}
	}
}

type httpClient struct {
	apiKey        string
	baseURL       string
	minLikelihood int
	http          *http.Client
}

// NewClient creates a People Data Labs client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:        apiKey,
		baseURL:       defaultBaseURL,
		minLikelihood: defaultMinLikelihood,
		http: &http.Client{
			Timeout: 25 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Enrich(ctx context.Context, params EnrichParams) (*EnrichResult, error) {
	q := params.Values()
	if len(q) == 0 {
		return nil, ErrNoParams
	}
	q.Set("min_likelihood", strconv.Itoa(c.minLikelihood))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/person/enrich?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "pdl: create request")
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pdl: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "pdl: read response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return &EnrichResult{Found: false}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resilience.NewStatusError(serviceName, resp.StatusCode, body)
	}

	var er enrichResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return nil, eris.Wrap(err, "pdl: unmarshal response")
	}
	// Validation problems come back as 200 with an error status in the body.
	if er.Status != http.StatusOK || er.Data == nil {
		return nil, eris.Errorf("pdl: api error: %s", er.Error.message(er.Status))
	}

	return &EnrichResult{
		Found:      true,
		Likelihood: er.Likelihood,
		Person:     er.Data,
	}, nil
}

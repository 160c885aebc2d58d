// Package propertyradar provides a client for the PropertyRadar REST API.
package propertyradar

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/fency/outreach-pipeline/internal/resilience"
)

const (
	defaultBaseURL = "https://api.propertyradar.com/v1"
	serviceName    = "propertyradar"
)

// Client defines the PropertyRadar operations used by the ingest stage.
type Client interface {
	// Lists returns the saved lists in the account.
	Lists(ctx context.Context) ([]List, error)
	// ListItems returns a page of item summaries from a list.
	ListItems(ctx context.Context, listID string, start, limit int) ([]ListItem, error)
	// GetProperty returns the Overview record for a property.
	GetProperty(ctx context.Context, radarID string) (*Property, error)
	// GetPersons returns the persons attached to a property.
	GetPersons(ctx context.Context, radarID string) ([]Person, error)
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

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a PropertyRadar client authenticated with a bearer token.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type resultsEnvelope[T any] struct {
	Results []T `json:"results"`
}

func (c *httpClient) Lists(ctx context.Context) ([]List, error) {
	body, err := c.get(ctx, "/lists", nil)
	if err != nil {
		return nil, eris.Wrap(err, "propertyradar: lists")
	}

	// The lists endpoint has returned both a bare array and a results envelope.
	var lists []List
	if err := json.Unmarshal(body, &lists); err == nil {
		return lists, nil
	}
	var env resultsEnvelope[List]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(err, "propertyradar: unmarshal lists")
	}
	return env.Results, nil
}

func (c *httpClient) ListItems(ctx context.Context, listID string, start, limit int) ([]ListItem, error) {
	if listID == "" {
		return nil, eris.New("propertyradar: list id is required")
	}
	q := url.Values{}
	q.Set("Start", strconv.Itoa(start))
	q.Set("Limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/lists/"+url.PathEscape(listID)+"/items", q)
	if err != nil {
		return nil, eris.Wrapf(err, "propertyradar: list items %s", listID)
	}

	var env resultsEnvelope[ListItem]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(err, "propertyradar: unmarshal list items")
	}
	return env.Results, nil
}

func (c *httpClient) GetProperty(ctx context.Context, radarID string) (*Property, error) {
	q := url.Values{}
	q.Set("Purchase", "1")
	q.Set("Fields", "Overview")

	body, err := c.get(ctx, "/properties/"+url.PathEscape(radarID), q)
	if err != nil {
		return nil, eris.Wrapf(err, "propertyradar: get property %s", radarID)
	}

	var env resultsEnvelope[Property]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(err, "propertyradar: unmarshal property")
	}
	if len(env.Results) == 0 {
		return nil, eris.Errorf("propertyradar: unexpected JSON structure for property %s", radarID)
	}
	return &env.Results[0], nil
}

func (c *httpClient) GetPersons(ctx context.Context, radarID string) ([]Person, error) {
	q := url.Values{}
	q.Set("Purchase", "1")
	q.Set("Fields", "default")

	body, err := c.get(ctx, "/properties/"+url.PathEscape(radarID)+"/persons", q)
	if err != nil {
		return nil, eris.Wrapf(err, "propertyradar: get persons %s", radarID)
	}

	var env resultsEnvelope[Person]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(err, "propertyradar: unmarshal persons")
	}
	return env.Results, nil
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "rate limit wait")
	}

	reqURL := c.baseURL + path
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.NewStatusError(serviceName, resp.StatusCode, body)
	}
	return body, nil
}

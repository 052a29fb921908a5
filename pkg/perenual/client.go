// Package perenual is a client for the Perenual plant species API.
package perenual

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
)

const (
	defaultBaseURL = "https://perenual.com"

	// PageSize is the number of rows requested per species-list page.
	PageSize = 100
)

// ErrMissingAPIKey is returned before any request when no API key is configured.
var ErrMissingAPIKey = eris.New("perenual: PERENUAL_API_KEY is not set")

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return "perenual: unexpected status " + strconv.Itoa(e.StatusCode) + ": " + e.Body
}

// Client queries the Perenual API.
type Client interface {
	SpeciesList(ctx context.Context, query string, page int) (*SpeciesListResponse, error)
	SpeciesDetails(ctx context.Context, id int) (*SpeciesDetails, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit paces outgoing requests. Requests wait for a token and are
// never dropped.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Perenual API client. An empty apiKey is accepted here;
// every call then fails with ErrMissingAPIKey without touching the network.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SpeciesList(ctx context.Context, query string, page int) (*SpeciesListResponse, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("per_page", strconv.Itoa(PageSize))
	q.Set("page", strconv.Itoa(page))

	var out SpeciesListResponse
	if err := c.get(ctx, "/api/species-list", q, &out); err != nil {
		return nil, eris.Wrapf(err, "perenual: species list page %d", page)
	}
	return &out, nil
}

func (c *httpClient) SpeciesDetails(ctx context.Context, id int) (*SpeciesDetails, error) {
	var out SpeciesDetails
	if err := c.get(ctx, "/api/species/details/"+strconv.Itoa(id), url.Values{}, &out); err != nil {
		return nil, eris.Wrapf(err, "perenual: species details %d", id)
	}
	return &out, nil
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	q.Set("key", c.apiKey)

	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "perenual: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "perenual: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "perenual: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "perenual: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "perenual: unmarshal response")
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

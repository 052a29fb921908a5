// Package gbif is a client for the GBIF species API (api.gbif.org/v1).
package gbif

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
	defaultBaseURL = "https://api.gbif.org"

	// KingdomPlantae is the kingdom name GBIF reports for plants.
	KingdomPlantae = "Plantae"
)

// Client queries the GBIF species API.
type Client interface {
	Search(ctx context.Context, params SearchParams) (*SearchResponse, error)
	Match(ctx context.Context, name string) (*Match, error)
	IUCNCategory(ctx context.Context, key int) (*IUCNCategory, error)
}

// SearchParams are the query parameters for GET /v1/species/search.
type SearchParams struct {
	Query string
	Rank  string
	Limit int
}

// SearchResponse is the response from GET /v1/species/search.
type SearchResponse struct {
	Offset       int       `json:"offset"`
	Limit        int       `json:"limit"`
	EndOfRecords bool      `json:"endOfRecords"`
	Count        int       `json:"count"`
	Results      []Species `json:"results"`
}

// Species is a name usage returned by search.
type Species struct {
	Key             int              `json:"key"`
	ScientificName  string           `json:"scientificName"`
	CanonicalName   string           `json:"canonicalName"`
	Rank            string           `json:"rank"`
	TaxonomicStatus string           `json:"taxonomicStatus"`
	Kingdom         string           `json:"kingdom"`
	Family          string           `json:"family"`
	Genus           string           `json:"genus"`
	Species         string           `json:"species"`
	VernacularNames []VernacularName `json:"vernacularNames"`
}

// VernacularName is a common name in some language.
type VernacularName struct {
	VernacularName string `json:"vernacularName"`
	Language       string `json:"language"`
}

// Match is the response from GET /v1/species/match.
type Match struct {
	UsageKey       int    `json:"usageKey"`
	ScientificName string `json:"scientificName"`
	CanonicalName  string `json:"canonicalName"`
	Rank           string `json:"rank"`
	Status         string `json:"status"`
	Confidence     int    `json:"confidence"`
	MatchType      string `json:"matchType"`
	Kingdom        string `json:"kingdom"`
	Family         string `json:"family"`
	Genus          string `json:"genus"`
	Species        string `json:"species"`
}

// Found reports whether the match resolved to a name usage.
func (m *Match) Found() bool {
	return m != nil && m.MatchType != "" && m.MatchType != "NONE" && m.UsageKey != 0
}

// IUCNCategory is the response from GET /v1/species/{key}/iucnRedListCategory.
type IUCNCategory struct {
	Category string `json:"category"`
	Code     string `json:"code"`
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

// WithRateLimit paces outgoing requests.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a GBIF client. GBIF requires no API key.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 100
	}
	q := url.Values{}
	q.Set("q", params.Query)
	q.Set("kingdom", KingdomPlantae)
	q.Set("status", "ACCEPTED")
	q.Set("limit", strconv.Itoa(limit))
	if params.Rank != "" {
		q.Set("rank", params.Rank)
	}

	var out SearchResponse
	if _, err := c.get(ctx, "/v1/species/search", q, &out); err != nil {
		return nil, eris.Wrapf(err, "gbif: search %q", params.Query)
	}
	return &out, nil
}

func (c *httpClient) Match(ctx context.Context, name string) (*Match, error) {
	q := url.Values{}
	q.Set("name", name)
	q.Set("kingdom", KingdomPlantae)

	var out Match
	if _, err := c.get(ctx, "/v1/species/match", q, &out); err != nil {
		return nil, eris.Wrapf(err, "gbif: match %q", name)
	}
	return &out, nil
}

// IUCNCategory returns nil without error when GBIF has no assessment for key.
func (c *httpClient) IUCNCategory(ctx context.Context, key int) (*IUCNCategory, error) {
	var out IUCNCategory
	found, err := c.get(ctx, "/v1/species/"+strconv.Itoa(key)+"/iucnRedListCategory", url.Values{}, &out)
	if err != nil {
		return nil, eris.Wrapf(err, "gbif: iucn category %d", key)
	}
	if !found || out.Code == "" {
		return nil, nil
	}
	return &out, nil
}

// get decodes a JSON response into out. A 404 or an empty 204 body yields
// found=false with no error.
func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, eris.Wrap(err, "gbif: rate limiter wait")
	}

	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, eris.Wrap(err, "gbif: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, eris.Wrap(err, "gbif: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, eris.Wrap(err, "gbif: read response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusNoContent:
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return false, eris.Errorf("gbif: unexpected status %d: %s", resp.StatusCode, string(body))
	case len(body) == 0:
		return false, nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, eris.Wrap(err, "gbif: unmarshal response")
	}
	return true, nil
}

// Package inaturalist is a client for the iNaturalist taxa API.
package inaturalist

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
	defaultBaseURL = "https://api.inaturalist.org"

	// IconicPlantae is the iconic taxon name iNaturalist assigns to plants.
	IconicPlantae = "Plantae"
)

// Client queries the iNaturalist API.
type Client interface {
	Autocomplete(ctx context.Context, query, rank string) (*TaxaResponse, error)
}

// TaxaResponse is the response from GET /v1/taxa/autocomplete.
type TaxaResponse struct {
	TotalResults int     `json:"total_results"`
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	Results      []Taxon `json:"results"`
}

// Taxon is a single taxon record.
type Taxon struct {
	ID                  int                 `json:"id"`
	Name                string              `json:"name"`
	Rank                string              `json:"rank"`
	IconicTaxonName     string              `json:"iconic_taxon_name"`
	PreferredCommonName string              `json:"preferred_common_name"`
	MatchedTerm         string              `json:"matched_term"`
	DefaultPhoto        *Photo              `json:"default_photo"`
	ConservationStatus  *ConservationStatus `json:"conservation_status"`
	WikipediaURL        string              `json:"wikipedia_url"`
}

// Photo holds the image URLs of a taxon's default photo.
type Photo struct {
	SquareURL string `json:"square_url"`
	MediumURL string `json:"medium_url"`
}

// ConservationStatus is a taxon's status in some authority and place.
type ConservationStatus struct {
	Status     string `json:"status"`
	StatusName string `json:"status_name"`
	Authority  string `json:"authority"`
	Place      *Place `json:"place"`
}

// Place is a named geographic area.
type Place struct {
	ID          int    `json:"id"`
	DisplayName string `json:"display_name"`
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

// NewClient creates an iNaturalist client. The default pace is one request
// per second, as the API terms ask.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(1, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Autocomplete(ctx context.Context, query, rank string) (*TaxaResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("per_page", strconv.Itoa(100))
	if rank != "" {
		q.Set("rank", rank)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "inaturalist: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/taxa/autocomplete?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "inaturalist: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "inaturalist: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "inaturalist: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("inaturalist: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var out TaxaResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "inaturalist: unmarshal response")
	}
	return &out, nil
}

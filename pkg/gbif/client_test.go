package gbif

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newMockedClient(t *testing.T) Client {
	t.Helper()
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewClient(WithHTTPClient(hc), WithRateLimit(rate.Inf, 1))
}

func TestSearch(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, "https://api.gbif.org/v1/species/search",
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			assert.Equal(t, "helianthus", q.Get("q"))
			assert.Equal(t, "Plantae", q.Get("kingdom"))
			assert.Equal(t, "ACCEPTED", q.Get("status"))
			assert.Equal(t, "SPECIES", q.Get("rank"))
			assert.Equal(t, "100", q.Get("limit"))
			return httpmock.NewStringResponse(http.StatusOK, `{
				"offset": 0, "limit": 100, "endOfRecords": true, "count": 1,
				"results": [{
					"key": 3119134, "scientificName": "Helianthus annuus L.",
					"canonicalName": "Helianthus annuus", "rank": "SPECIES",
					"taxonomicStatus": "ACCEPTED", "kingdom": "Plantae",
					"family": "Asteraceae", "genus": "Helianthus", "species": "Helianthus annuus",
					"vernacularNames": [{"vernacularName": "sunflower", "language": "eng"}]
				}]
			}`), nil
		})

	resp, err := client.Search(context.Background(), SearchParams{Query: "helianthus", Rank: "SPECIES"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Helianthus annuus", resp.Results[0].CanonicalName)
	assert.Equal(t, "sunflower", resp.Results[0].VernacularNames[0].VernacularName)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestSearch_ServerError(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, "https://api.gbif.org/v1/species/search",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "down"))

	_, err := client.Search(context.Background(), SearchParams{Query: "rosa"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
}

func TestMatch(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, "https://api.gbif.org/v1/species/match",
		httpmock.NewStringResponder(http.StatusOK, `{
			"usageKey": 3119134, "scientificName": "Helianthus annuus L.",
			"canonicalName": "Helianthus annuus", "rank": "SPECIES", "status": "ACCEPTED",
			"confidence": 98, "matchType": "EXACT", "kingdom": "Plantae",
			"family": "Asteraceae", "genus": "Helianthus", "species": "Helianthus annuus"
		}`))

	m, err := client.Match(context.Background(), "Helianthus annuus")
	require.NoError(t, err)
	assert.True(t, m.Found())
	assert.Equal(t, "Asteraceae", m.Family)
}

func TestMatch_None(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, "https://api.gbif.org/v1/species/match",
		httpmock.NewStringResponder(http.StatusOK, `{"confidence": 100, "matchType": "NONE"}`))

	m, err := client.Match(context.Background(), "Nothing here")
	require.NoError(t, err)
	assert.False(t, m.Found())
}

func TestIUCNCategory(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, "https://api.gbif.org/v1/species/5284884/iucnRedListCategory",
		httpmock.NewStringResponder(http.StatusOK, `{"category": "LEAST_CONCERN", "code": "LC"}`))
	httpmock.RegisterResponder(http.MethodGet, "https://api.gbif.org/v1/species/1/iucnRedListCategory",
		httpmock.NewStringResponder(http.StatusNotFound, ""))

	cat, err := client.IUCNCategory(context.Background(), 5284884)
	require.NoError(t, err)
	require.NotNil(t, cat)
	assert.Equal(t, "LC", cat.Code)

	cat, err = client.IUCNCategory(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, cat)
}

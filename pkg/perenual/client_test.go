package perenual

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestSpeciesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/species-list", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "helianthus", r.URL.Query().Get("q"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{"id": 3, "common_name": "sunflower", "scientific_name": ["Helianthus annuus"],
				 "cycle": "Annual", "watering": "Average", "sunlight": ["full sun"],
				 "default_image": {"medium_url": "https://img/3.jpg"}},
				{"id": 4, "common_name": "odd", "scientific_name": "Helianthus spp.", "sunlight": null}
			],
			"current_page": 2, "last_page": 7, "total": 650
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(rate.Inf, 1))

	resp, err := client.SpeciesList(context.Background(), "helianthus", 2)
	require.NoError(t, err)
	assert.Equal(t, 7, resp.LastPage)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Helianthus annuus", resp.Data[0].ScientificName.First())
	assert.Equal(t, []string{"full sun"}, []string(resp.Data[0].Sunlight))
	require.NotNil(t, resp.Data[0].DefaultImage)
	assert.Equal(t, "https://img/3.jpg", resp.Data[0].DefaultImage.MediumURL)
	assert.Equal(t, "Helianthus spp.", resp.Data[1].ScientificName.First())
	assert.Empty(t, resp.Data[1].Sunlight)
}

func TestSpeciesList_MissingKey(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))

	_, err := client.SpeciesList(context.Background(), "rosa", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))

	_, err = client.SpeciesDetails(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
	assert.Zero(t, hits.Load())
}

func TestSpeciesList_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(rate.Inf, 1))

	_, err := client.SpeciesList(context.Background(), "rosa", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 429")

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
}

func TestSpeciesDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/species/details/42", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": 42,
			"common_name": "Lemon Queen sunflower",
			"scientific_name": ["Helianthus 'Lemon Queen'"],
			"family": "Asteraceae",
			"dimension": "Height: 5 feet",
			"dimensions": {"type": "Height", "min_value": 5, "max_value": 7, "unit": "feet"},
			"soil": ["Loam", "Sand"],
			"poisonous_to_humans": 0,
			"poisonous_to_pets": "1",
			"hardiness": {"min": "4", "max": "8"},
			"flower_color": "Yellow"
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(rate.Inf, 1))

	d, err := client.SpeciesDetails(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Asteraceae", d.Family)
	assert.Equal(t, "Height: 5 feet", d.Dimension)
	require.Len(t, d.Dimensions, 1)
	assert.Equal(t, "feet", d.Dimensions[0].Unit)
	assert.InDelta(t, 7, *d.Dimensions[0].MaxValue, 0.001)
	require.NotNil(t, d.PoisonousToHumans)
	assert.False(t, bool(*d.PoisonousToHumans))
	require.NotNil(t, d.PoisonousToPets)
	assert.True(t, bool(*d.PoisonousToPets))
	assert.Equal(t, "4-8", d.Hardiness.Zones())
}

func TestDimensionList_Array(t *testing.T) {
	var d DimensionList
	require.NoError(t, d.UnmarshalJSON([]byte(`[{"type":"Height","min_value":1,"max_value":2,"unit":"feet"},{"type":"Spread","min_value":null,"max_value":3,"unit":"feet"}]`)))
	require.Len(t, d, 2)
	assert.Nil(t, d[1].MinValue)
}

func TestHardinessZones(t *testing.T) {
	assert.Equal(t, "", Hardiness{}.Zones())
	assert.Equal(t, "7", Hardiness{Min: "7", Max: "7"}.Zones())
	assert.Equal(t, "5", Hardiness{Min: "5"}.Zones())
	assert.Equal(t, "3-9", Hardiness{Min: "3", Max: "9"}.Zones())
}

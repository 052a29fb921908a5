package inaturalist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestAutocomplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/taxa/autocomplete", r.URL.Path)
		assert.Equal(t, "echinacea", r.URL.Query().Get("q"))
		assert.Equal(t, "species", r.URL.Query().Get("rank"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"total_results": 2, "page": 1, "per_page": 100,
			"results": [
				{"id": 48219, "name": "Echinacea purpurea", "rank": "species",
				 "iconic_taxon_name": "Plantae", "preferred_common_name": "purple coneflower",
				 "default_photo": {"medium_url": "https://static.inaturalist.org/photos/1/medium.jpg"},
				 "conservation_status": {"status": "G4", "status_name": "apparently secure",
				   "place": {"id": 1, "display_name": "United States"}}},
				{"id": 1, "name": "Echinacea", "rank": "genus", "iconic_taxon_name": "Animalia"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(rate.Inf, 1))

	resp, err := client.Autocomplete(context.Background(), "echinacea", "species")
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	tx := resp.Results[0]
	assert.Equal(t, "purple coneflower", tx.PreferredCommonName)
	require.NotNil(t, tx.ConservationStatus)
	assert.Equal(t, "G4", tx.ConservationStatus.Status)
	assert.Equal(t, "United States", tx.ConservationStatus.Place.DisplayName)
	assert.Nil(t, resp.Results[1].DefaultPhoto)
}

func TestAutocomplete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server_error", http.StatusBadGateway, "bad gateway", "unexpected status 502"},
		{"malformed", http.StatusOK, `{"results": [`, "unmarshal response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(WithBaseURL(srv.URL), WithRateLimit(rate.Inf, 1))
			resp, err := client.Autocomplete(context.Background(), "rosa", "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Nil(t, resp)
		})
	}
}

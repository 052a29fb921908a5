package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gardenscape/plant-import/internal/model"
	"github.com/gardenscape/plant-import/pkg/gbif"
	"github.com/gardenscape/plant-import/pkg/inaturalist"
	"github.com/gardenscape/plant-import/pkg/perenual"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestIsVague(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Rosa spp.", true},
		{"Quercus cvs.", true},
		{"Helianthus sp.", true},
		{"Rubus fruticosus agg.", true},
		{"Taraxacum officinale complex", true},
		{"Hosta cultivars", true},
		{"HOSTA CULTIVARS", true},
		{"Rosa 'Peace'", false},
		{"Helianthus annuus", false},
		{"Spiraea japonica", false},
		{"Complexa rosea", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsVague(tt.name))
		})
	}
}

// Each adapter drops vague names from its output.
func TestAdapters_FilterVagueNames(t *testing.T) {
	ctx := context.Background()

	pc := new(mockPerenualClient)
	pc.On("SpeciesList", mock.Anything, "oak", 1).Return(&perenual.SpeciesListResponse{
		LastPage: 1,
		Data: []perenual.Species{
			{ID: 1, ScientificName: perenual.StringList{"Rosa spp."}},
			{ID: 2, ScientificName: perenual.StringList{"Quercus cvs."}},
			{ID: 3, ScientificName: perenual.StringList{"Quercus robur"}},
			{ID: 4},
		},
	}, nil)

	gc := new(mockGBIFClient)
	gc.On("Search", mock.Anything, gbif.SearchParams{Query: "oak"}).Return(&gbif.SearchResponse{
		Results: []gbif.Species{
			{Key: 1, CanonicalName: "Rosa spp.", Kingdom: "Plantae"},
			{Key: 2, CanonicalName: "Quercus cvs.", Kingdom: "Plantae"},
			{Key: 3, CanonicalName: "Quercus robur", Kingdom: "Plantae"},
		},
	}, nil)

	ic := new(mockINatClient)
	ic.On("Autocomplete", mock.Anything, "oak", "").Return(&inaturalist.TaxaResponse{
		Results: []inaturalist.Taxon{
			{ID: 1, Name: "Rosa spp.", IconicTaxonName: "Plantae"},
			{ID: 2, Name: "Quercus cvs.", IconicTaxonName: "Plantae"},
			{ID: 3, Name: "Quercus robur", IconicTaxonName: "Plantae"},
		},
	}, nil)

	adapters := []Adapter{NewPerenual(pc), NewGBIF(gc, ""), NewINaturalist(ic, "")}
	for _, a := range adapters {
		t.Run(string(a.Kind()), func(t *testing.T) {
			got, err := a.Search(ctx, "oak")
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "Quercus robur", got[0].ScientificName)
			assert.Equal(t, a.Kind(), got[0].Source)
			assert.Equal(t, "3", got[0].ExternalID)
		})
	}
}

func TestAdapters_KeepOnlyPlants(t *testing.T) {
	ctx := context.Background()

	gc := new(mockGBIFClient)
	gc.On("Search", mock.Anything, gbif.SearchParams{Query: "morus", Rank: "SPECIES"}).Return(&gbif.SearchResponse{
		Results: []gbif.Species{
			{Key: 1, CanonicalName: "Morus alba", Kingdom: "Plantae", Family: "Moraceae", Genus: "Morus", Species: "Morus alba",
				VernacularNames: []gbif.VernacularName{{VernacularName: "weißer Maulbeerbaum", Language: "deu"}, {VernacularName: "white mulberry", Language: "eng"}}},
			{Key: 2, CanonicalName: "Morus bassanus", Kingdom: "Animalia"},
		},
	}, nil)
	got, err := NewGBIF(gc, "species").Search(ctx, "morus")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alba", got[0].Species)
	assert.Equal(t, "white mulberry", got[0].CommonName)

	ic := new(mockINatClient)
	ic.On("Autocomplete", mock.Anything, "morus", "species").Return(&inaturalist.TaxaResponse{
		Results: []inaturalist.Taxon{
			{ID: 1, Name: "Morus alba", IconicTaxonName: "Plantae", PreferredCommonName: "white mulberry"},
			{ID: 2, Name: "Morus bassanus", IconicTaxonName: "Aves"},
		},
	}, nil)
	got, err = NewINaturalist(ic, "SPECIES").Search(ctx, "morus")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "White Mulberry", got[0].CommonName)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(NewGBIF(new(mockGBIFClient), ""), nil)

	a, err := r.Get(model.SourceGBIF)
	require.NoError(t, err)
	assert.Equal(t, model.SourceGBIF, a.Kind())

	_, err = r.Get(model.SourcePerenual)
	assert.Error(t, err)
}

func TestEpithet(t *testing.T) {
	assert.Equal(t, "annuus", epithet("Helianthus annuus", "Helianthus"))
	assert.Equal(t, "× faassenii", epithet("Nepeta × faassenii", "Nepeta"))
	assert.Equal(t, "", epithet("Helianthus", "Helianthus"))
	assert.Equal(t, "", epithet("Rosa canina", "Helianthus"))
}

package source

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gardenscape/plant-import/pkg/perenual"
)

func pageOf(page, last int) *perenual.SpeciesListResponse {
	return &perenual.SpeciesListResponse{
		CurrentPage: page,
		LastPage:    last,
		Data: []perenual.Species{
			{ID: page, ScientificName: perenual.StringList{fmt.Sprintf("Helianthus page%d", page)}},
		},
	}
}

func TestPerenualSearch_FetchesAllPages(t *testing.T) {
	pc := new(mockPerenualClient)
	for page := 1; page <= 4; page++ {
		pc.On("SpeciesList", mock.Anything, "helianthus", page).Return(pageOf(page, 4), nil).Once()
	}

	got, err := NewPerenual(pc).Search(context.Background(), "helianthus")
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i, c := range got {
		assert.Equal(t, fmt.Sprintf("Helianthus page%d", i+1), c.ScientificName)
	}
	pc.AssertExpectations(t)
}

func TestPerenualSearch_FailedPageContributesNothing(t *testing.T) {
	pc := new(mockPerenualClient)
	pc.On("SpeciesList", mock.Anything, "rosa", 1).Return(pageOf(1, 3), nil)
	pc.On("SpeciesList", mock.Anything, "rosa", 2).Return(nil, errors.New("perenual: unexpected status 500"))
	pc.On("SpeciesList", mock.Anything, "rosa", 3).Return(pageOf(3, 3), nil)

	got, err := NewPerenual(pc).Search(context.Background(), "rosa")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Helianthus page1", got[0].ScientificName)
	assert.Equal(t, "Helianthus page3", got[1].ScientificName)
}

func TestPerenualSearch_FirstPageErrorPropagates(t *testing.T) {
	pc := new(mockPerenualClient)
	pc.On("SpeciesList", mock.Anything, "rosa", 1).Return(nil, &perenual.StatusError{StatusCode: 401, Body: "bad key"})

	got, err := NewPerenual(pc).Search(context.Background(), "rosa")
	require.Error(t, err)
	assert.Nil(t, got)

	var se *perenual.StatusError
	assert.True(t, errors.As(err, &se))
	pc.AssertNumberOfCalls(t, "SpeciesList", 1)
}

func TestPerenualSearch_MissingKeyBeforeNetwork(t *testing.T) {
	got, err := NewPerenual(perenual.NewClient("")).Search(context.Background(), "rosa")
	require.Error(t, err)
	assert.True(t, errors.Is(err, perenual.ErrMissingAPIKey))
	assert.Nil(t, got)
}

func TestPerenualSearch_CapsPages(t *testing.T) {
	var calls atomic.Int32
	pc := new(mockPerenualClient)
	pc.On("SpeciesList", mock.Anything, "acer", mock.AnythingOfType("int")).
		Run(func(mock.Arguments) { calls.Add(1) }).
		Return(pageOf(1, 405), nil)

	got, err := NewPerenual(pc, WithMaxPages(3), WithPageFanOut(2)).Search(context.Background(), "acer")
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPerenualDetails(t *testing.T) {
	pc := new(mockPerenualClient)
	yes := perenual.Flag(true)
	no := perenual.Flag(false)
	pc.On("SpeciesDetails", mock.Anything, 42).Return(&perenual.SpeciesDetails{
		ID:                42,
		CommonName:        "Lemon Queen sunflower",
		ScientificName:    perenual.StringList{"Helianthus 'Lemon Queen'"},
		Family:            "Asteraceae",
		Origin:            perenual.StringList{"North America"},
		Dimension:         "Height: 5 feet to 7 feet",
		Cycle:             "Herbaceous Perennial",
		Sunlight:          perenual.StringList{"Full sun", " "},
		Soil:              perenual.StringList{"Loam"},
		CareLevel:         "Low",
		PoisonousToHumans: &no,
		PoisonousToPets:   &yes,
		Hardiness:         perenual.Hardiness{Min: "4", Max: "8"},
	}, nil)

	c, err := NewPerenual(pc).Details(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "Helianthus 'Lemon Queen'", c.ScientificName)
	assert.Equal(t, "herbaceous perennial", c.Cycle)
	assert.Equal(t, []string{"full sun"}, c.Sunlight)
	assert.Equal(t, "low", c.Maintenance)
	assert.Equal(t, "4-8", c.HardinessZones)
	assert.Equal(t, "North America", c.NativeRegion)
	require.NotNil(t, c.PoisonousToPets)
	assert.True(t, *c.PoisonousToPets)
	require.NotNil(t, c.Dimensions.HeightMaxCM)
	assert.InDelta(t, 213.4, *c.Dimensions.HeightMaxCM, 0.01)
	require.NotNil(t, c.Dimensions.HeightMaxInches)
	assert.InDelta(t, 84, *c.Dimensions.HeightMaxInches, 0.01)
}

func TestPerenualDimensions(t *testing.T) {
	pc := new(mockPerenualClient)
	pc.On("SpeciesList", mock.Anything, "Echinacea purpurea", 1).Return(&perenual.SpeciesListResponse{
		LastPage: 1,
		Data: []perenual.Species{
			{ID: 10, ScientificName: perenual.StringList{"Echinacea purpurea 'White Swan'"}},
			{ID: 11, ScientificName: perenual.StringList{"Echinacea purpurea 'Magnus'"}},
		},
	}, nil)
	minV, maxV := 2.0, 3.0
	pc.On("SpeciesDetails", mock.Anything, 11).Return(&perenual.SpeciesDetails{
		ID:         11,
		Family:     "Asteraceae",
		Dimensions: perenual.DimensionList{{Type: "Height", MinValue: &minV, MaxValue: &maxV, Unit: "feet"}},
		Dimension:  "Spread: 18 inches",
	}, nil)

	c, err := NewPerenual(pc).Dimensions(context.Background(), "Echinacea purpurea 'Magnus'")
	require.NoError(t, err)
	assert.Empty(t, c.Family)
	require.NotNil(t, c.Dimensions.HeightMinCM)
	assert.InDelta(t, 61, *c.Dimensions.HeightMinCM, 0.01)
	assert.InDelta(t, 91.4, *c.Dimensions.HeightMaxCM, 0.01)
	require.NotNil(t, c.Dimensions.SpreadMaxCM)
	assert.InDelta(t, 45.7, *c.Dimensions.SpreadMaxCM, 0.01)
}

func TestPerenualDimensions_DetailsError(t *testing.T) {
	pc := new(mockPerenualClient)
	pc.On("SpeciesList", mock.Anything, "Rosa canina", 1).Return(&perenual.SpeciesListResponse{
		Data: []perenual.Species{{ID: 7, ScientificName: perenual.StringList{"Rosa canina"}}},
	}, nil)
	pc.On("SpeciesDetails", mock.Anything, 7).Return(nil, &perenual.StatusError{StatusCode: 429})

	_, err := NewPerenual(pc).Dimensions(context.Background(), "Rosa canina")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source: perenual dimensions")
	assert.Contains(t, err.Error(), "source: perenual details 7")
}

func TestPerenualDimensions_NoMatch(t *testing.T) {
	pc := new(mockPerenualClient)
	pc.On("SpeciesList", mock.Anything, "Rosa", 1).Return(&perenual.SpeciesListResponse{
		Data: []perenual.Species{{ID: 1, ScientificName: perenual.StringList{"Rosa canina"}}},
	}, nil)

	c, err := NewPerenual(pc).Dimensions(context.Background(), "Rosa 'Peace'")
	require.NoError(t, err)
	assert.Nil(t, c.Dimensions.HeightMinCM)
	pc.AssertNotCalled(t, "SpeciesDetails", mock.Anything, mock.Anything)
}

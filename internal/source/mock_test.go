package source

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gardenscape/plant-import/pkg/gbif"
	"github.com/gardenscape/plant-import/pkg/inaturalist"
	"github.com/gardenscape/plant-import/pkg/perenual"
)

// --- Perenual Mock ---

type mockPerenualClient struct {
	mock.Mock
}

func (m *mockPerenualClient) SpeciesList(ctx context.Context, query string, page int) (*perenual.SpeciesListResponse, error) {
	args := m.Called(ctx, query, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*perenual.SpeciesListResponse), args.Error(1)
}

func (m *mockPerenualClient) SpeciesDetails(ctx context.Context, id int) (*perenual.SpeciesDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*perenual.SpeciesDetails), args.Error(1)
}

// --- GBIF Mock ---

type mockGBIFClient struct {
	mock.Mock
}

func (m *mockGBIFClient) Search(ctx context.Context, params gbif.SearchParams) (*gbif.SearchResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gbif.SearchResponse), args.Error(1)
}

func (m *mockGBIFClient) Match(ctx context.Context, name string) (*gbif.Match, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gbif.Match), args.Error(1)
}

func (m *mockGBIFClient) IUCNCategory(ctx context.Context, key int) (*gbif.IUCNCategory, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gbif.IUCNCategory), args.Error(1)
}

// --- iNaturalist Mock ---

type mockINatClient struct {
	mock.Mock
}

func (m *mockINatClient) Autocomplete(ctx context.Context, query, rank string) (*inaturalist.TaxaResponse, error) {
	args := m.Called(ctx, query, rank)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inaturalist.TaxaResponse), args.Error(1)
}

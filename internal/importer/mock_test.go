package importer

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gardenscape/plant-import/internal/model"
	"github.com/gardenscape/plant-import/internal/store"
)

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindPlantByScientificName(ctx context.Context, name string) (*model.Plant, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Plant), args.Error(1)
}

func (m *mockStore) GetPlant(ctx context.Context, id string) (*model.Plant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Plant), args.Error(1)
}

func (m *mockStore) InsertPlant(ctx context.Context, p *model.Plant) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockStore) ListPlants(ctx context.Context, filter store.PlantFilter) ([]model.Plant, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Plant), args.Error(1)
}

func (m *mockStore) CountPlants(ctx context.Context, filter store.PlantFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) CreateRun(ctx context.Context, source model.Source, query string) (*model.ImportRun, error) {
	args := m.Called(ctx, source, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportRun), args.Error(1)
}

func (m *mockStore) CompleteRun(ctx context.Context, run *model.ImportRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.ImportRun, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ImportRun), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// --- Adapter Mock ---

type mockAdapter struct {
	mock.Mock
	kind model.Source
}

func (m *mockAdapter) Kind() model.Source { return m.kind }

func (m *mockAdapter) Search(ctx context.Context, query string) ([]model.Candidate, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Candidate), args.Error(1)
}

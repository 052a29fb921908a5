package main

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gardenscape/plant-import/internal/model"
)

type mockPlantService struct {
	mock.Mock
}

func (m *mockPlantService) Search(ctx context.Context, kind model.Source, query string) ([]model.Candidate, error) {
	args := m.Called(ctx, kind, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Candidate), args.Error(1)
}

func (m *mockPlantService) ImportQuery(ctx context.Context, kind model.Source, query string, limit int) (*model.ImportRun, error) {
	args := m.Called(ctx, kind, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportRun), args.Error(1)
}

package imagegen

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gardenscape/plant-import/pkg/runware"
)

type mockRunware struct {
	mock.Mock
}

func (m *mockRunware) GenerateImage(ctx context.Context, req runware.ImageRequest) (*runware.Image, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*runware.Image), args.Error(1)
}

func (m *mockRunware) Download(ctx context.Context, imageURL string) ([]byte, error) {
	args := m.Called(ctx, imageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

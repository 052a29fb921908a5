package enrich

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gardenscape/plant-import/internal/model"
	"github.com/gardenscape/plant-import/pkg/anthropic"
	"github.com/gardenscape/plant-import/pkg/perplexity"
)

type mockMatcher struct {
	mock.Mock
}

func (m *mockMatcher) Match(ctx context.Context, name string) (model.Candidate, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(model.Candidate), args.Error(1)
}

type mockLooker struct {
	mock.Mock
}

func (m *mockLooker) Lookup(ctx context.Context, name string) (model.Candidate, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(model.Candidate), args.Error(1)
}

type mockDimensions struct {
	mock.Mock
}

func (m *mockDimensions) Dimensions(ctx context.Context, name string) (model.Candidate, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(model.Candidate), args.Error(1)
}

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

type mockPerplexityClient struct {
	mock.Mock
}

func (m *mockPerplexityClient) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*perplexity.ChatCompletionResponse), args.Error(1)
}

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

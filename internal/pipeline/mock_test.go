package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cybersaathi/cybersaathi/internal/model"
	"github.com/cybersaathi/cybersaathi/pkg/anthropic"
	"github.com/cybersaathi/cybersaathi/pkg/chroma"
	"github.com/cybersaathi/cybersaathi/pkg/tavily"
)

// --- Anthropic Mock ---

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

// textResponse builds a single-block text response the way the Messages API
// returns one.
func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

// --- Ollama Mock ---

type mockOllamaClient struct {
	mock.Mock
}

func (m *mockOllamaClient) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// --- Chroma Mock ---

type mockChromaClient struct {
	mock.Mock
}

func (m *mockChromaClient) Query(ctx context.Context, req chroma.QueryRequest) (*chroma.QueryResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chroma.QueryResponse), args.Error(1)
}

// --- Tavily Mock ---

type mockTavilyClient struct {
	mock.Mock
}

func (m *mockTavilyClient) Search(ctx context.Context, req tavily.SearchRequest) (*tavily.SearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tavily.SearchResponse), args.Error(1)
}

// --- Audit Recorder Mock ---

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) Record(ctx context.Context, summary model.RedactionSummary, correlationID string) error {
	args := m.Called(ctx, summary, correlationID)
	return args.Error(0)
}

package usecase_test

import (
	"context"

	"answer-pipeline/internal/domain"
	"answer-pipeline/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) ListCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *mockRegistry) CountDocuments(ctx context.Context, filter domain.DocumentFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *mockRegistry) FindDocumentsByTitle(ctx context.Context, substr string, limit int) ([]domain.Document, error) {
	args := m.Called(ctx, substr, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *mockRegistry) SearchDocuments(ctx context.Context, keyword string, limit int) ([]domain.Document, error) {
	args := m.Called(ctx, keyword, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *mockRegistry) ListDocuments(ctx context.Context, filter domain.DocumentFilter, limit int) ([]domain.Document, error) {
	args := m.Called(ctx, filter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *mockRegistry) GetDocuments(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Document, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]domain.Document), args.Error(1)
}

func (m *mockRegistry) ListDomains(ctx context.Context) ([]domain.DomainInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DomainInfo), args.Error(1)
}

func (m *mockRegistry) FindDomains(ctx context.Context, topic string) ([]domain.DomainInfo, error) {
	args := m.Called(ctx, topic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DomainInfo), args.Error(1)
}

func (m *mockRegistry) CategoryBreakdown(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *mockRegistry) DomainBreakdown(ctx context.Context) (map[string]map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]map[string]int), args.Error(1)
}

type mockLLMClient struct {
	mock.Mock
}

func (m *mockLLMClient) Chat(ctx context.Context, messages []domain.ChatMessage, opts domain.ChatOptions) (*domain.ChatResult, error) {
	args := m.Called(ctx, messages, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatResult), args.Error(1)
}

type mockDocumentSearcher struct {
	mock.Mock
}

func (m *mockDocumentSearcher) SearchDocuments(ctx context.Context, query string, limit int) ([]domain.DocumentHit, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentHit), args.Error(1)
}

type mockChunkSearcher struct {
	mock.Mock
}

func (m *mockChunkSearcher) SearchChunks(ctx context.Context, collection, query string, docIDs []uuid.UUID, limit int) ([]domain.ChunkHit, error) {
	args := m.Called(ctx, collection, query, docIDs, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChunkHit), args.Error(1)
}

type mockRetrieveUsecase struct {
	mock.Mock
}

func (m *mockRetrieveUsecase) Retrieve(ctx context.Context, in usecase.RetrieveInput) (*domain.RetrievalResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RetrievalResult), args.Error(1)
}

type mockSynthesizeUsecase struct {
	mock.Mock
}

func (m *mockSynthesizeUsecase) Synthesize(ctx context.Context, in usecase.SynthesizeInput) (*usecase.SynthesizeOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.SynthesizeOutput), args.Error(1)
}

type mockMetadataHandler struct {
	mock.Mock
}

func (m *mockMetadataHandler) TryShortCircuit(ctx context.Context, decision domain.IntentDecision, question string) (string, error) {
	args := m.Called(ctx, decision, question)
	return args.String(0), args.Error(1)
}

type mockQueryRewriter struct {
	mock.Mock
}

func (m *mockQueryRewriter) RewriteAndSelect(ctx context.Context, in usecase.RewriteInput) usecase.RewriteResult {
	args := m.Called(ctx, in)
	return args.Get(0).(usecase.RewriteResult)
}

type mockSolutionSelector struct {
	mock.Mock
}

func (m *mockSolutionSelector) SelectSolution(ctx context.Context, question string, mode domain.AnswerMode) (string, string, domain.TokenUsage) {
	args := m.Called(ctx, question, mode)
	return args.String(0), args.String(1), args.Get(2).(domain.TokenUsage)
}

type staticCategories []domain.Category

func (s staticCategories) Categories(ctx context.Context) ([]domain.Category, error) {
	return s, nil
}

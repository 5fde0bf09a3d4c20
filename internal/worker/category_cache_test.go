package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"answer-pipeline/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stubs ---

type stubRegistry struct {
	mu         sync.Mutex
	categories []domain.Category
	err        error
	calls      int
}

func (s *stubRegistry) ListCategories(ctx context.Context) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.categories, nil
}

func (s *stubRegistry) CountDocuments(ctx context.Context, filter domain.DocumentFilter) (int, error) {
	return 0, nil
}
func (s *stubRegistry) FindDocumentsByTitle(ctx context.Context, substr string, limit int) ([]domain.Document, error) {
	return nil, nil
}
func (s *stubRegistry) SearchDocuments(ctx context.Context, keyword string, limit int) ([]domain.Document, error) {
	return nil, nil
}
func (s *stubRegistry) ListDocuments(ctx context.Context, filter domain.DocumentFilter, limit int) ([]domain.Document, error) {
	return nil, nil
}
func (s *stubRegistry) GetDocuments(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Document, error) {
	return nil, nil
}
func (s *stubRegistry) ListDomains(ctx context.Context) ([]domain.DomainInfo, error) {
	return nil, nil
}
func (s *stubRegistry) FindDomains(ctx context.Context, topic string) ([]domain.DomainInfo, error) {
	return nil, nil
}
func (s *stubRegistry) CategoryBreakdown(ctx context.Context) (map[string]int, error) {
	return nil, nil
}
func (s *stubRegistry) DomainBreakdown(ctx context.Context) (map[string]map[string]int, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// --- tests ---

func TestCategories_ReadsThroughBeforeFirstRefresh(t *testing.T) {
	registry := &stubRegistry{categories: []domain.Category{{Name: "proposals"}}}
	cache := NewCategoryCache(registry, time.Minute, testLogger())

	got, err := cache.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{{Name: "proposals"}}, got)

	// The read-through result is stored; a second call does not hit the
	// registry again.
	_, err = cache.Categories(context.Background())
	require.NoError(t, err)

	registry.mu.Lock()
	defer registry.mu.Unlock()
	assert.Equal(t, 1, registry.calls)
}

func TestRefresh_StoresSnapshot(t *testing.T) {
	registry := &stubRegistry{categories: []domain.Category{{Name: "case_studies"}}}
	cache := NewCategoryCache(registry, time.Minute, testLogger())

	cache.refresh()

	got, err := cache.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "case_studies", got[0].Name)
}

func TestRefresh_BacksOffOnConsecutiveFailures(t *testing.T) {
	registry := &stubRegistry{err: errors.New("registry unreachable")}
	cache := NewCategoryCache(registry, time.Minute, testLogger())

	cache.refresh()
	assert.Equal(t, initialBackoff, cache.backoff)

	cache.refresh()
	assert.Equal(t, 2*time.Second, cache.backoff)

	cache.refresh()
	assert.Equal(t, 4*time.Second, cache.backoff)
}

func TestRefresh_BackoffResetsOnSuccess(t *testing.T) {
	registry := &stubRegistry{err: errors.New("fail")}
	cache := NewCategoryCache(registry, time.Minute, testLogger())

	cache.refresh()
	assert.Equal(t, initialBackoff, cache.backoff)

	registry.mu.Lock()
	registry.err = nil
	registry.mu.Unlock()

	cache.refresh()
	assert.Equal(t, time.Duration(0), cache.backoff)
}

func TestNextBackoff_CapsAtMax(t *testing.T) {
	cache := NewCategoryCache(nil, time.Minute, testLogger())

	bo := time.Duration(0)
	for i := 0; i < 20; i++ {
		bo = cache.nextBackoff(bo)
	}
	assert.Equal(t, maxBackoff, bo)
}

func TestStaleSnapshotServedDuringOutage(t *testing.T) {
	registry := &stubRegistry{categories: []domain.Category{{Name: "proposals"}}}
	cache := NewCategoryCache(registry, time.Minute, testLogger())

	cache.refresh()

	registry.mu.Lock()
	registry.err = errors.New("registry down")
	registry.mu.Unlock()

	cache.refresh()

	got, err := cache.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "proposals", got[0].Name)
}

package domain

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// DocumentHit is a master-index hit: one document with its best distance.
type DocumentHit struct {
	DocumentID uuid.UUID
	Title      string
	Distance   float64
}

// ChunkHit is a chunk-index hit from a collection index.
type ChunkHit struct {
	ChunkID    uuid.UUID
	DocumentID uuid.UUID
	Collection string
	Text       string
	Distance   float64
}

// DocumentSearcher queries the master document index.
type DocumentSearcher interface {
	// SearchDocuments returns up to limit hits ordered by ascending distance.
	SearchDocuments(ctx context.Context, query string, limit int) ([]DocumentHit, error)
}

// ChunkSearcher queries one collection's chunk index.
type ChunkSearcher interface {
	// SearchChunks returns up to limit hits for the query restricted to the
	// given document IDs, ordered by ascending distance.
	SearchChunks(ctx context.Context, collection, query string, docIDs []uuid.UUID, limit int) ([]ChunkHit, error)
}

// IndexUnavailableError marks a search failure caused by a missing or broken
// index segment rather than a bad query. Callers surface a retryable message
// instead of treating it as a permanent failure.
type IndexUnavailableError struct {
	Collection string
	Err        error
}

func (e *IndexUnavailableError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("index unavailable for collection %q: %v", e.Collection, e.Err)
	}
	return fmt.Sprintf("index unavailable: %v", e.Err)
}

func (e *IndexUnavailableError) Unwrap() error { return e.Err }

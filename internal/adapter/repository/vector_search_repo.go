package repository

import (
	"context"
	"errors"
	"fmt"

	"answer-pipeline/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Postgres error codes that mean the index side of a collection is missing
// rather than the query being bad.
const (
	pgUndefinedTable  = "42P01"
	pgUndefinedObject = "42704"
)

type vectorSearchRepository struct {
	pool    *pgxpool.Pool
	encoder domain.VectorEncoder
}

// NewVectorSearchRepository creates the pgvector-backed searcher used for
// both the master document index and the per-collection chunk indices.
func NewVectorSearchRepository(pool *pgxpool.Pool, encoder domain.VectorEncoder) *vectorSearchRepository {
	return &vectorSearchRepository{pool: pool, encoder: encoder}
}

var (
	_ domain.DocumentSearcher = (*vectorSearchRepository)(nil)
	_ domain.ChunkSearcher    = (*vectorSearchRepository)(nil)
)

func (r *vectorSearchRepository) SearchDocuments(ctx context.Context, query string, limit int) ([]domain.DocumentHit, error) {
	embedding, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	sql := `
		SELECT document_id, title, embedding <=> $1 AS distance
		FROM document_summaries
		ORDER BY distance ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, sql, embedding, limit)
	if err != nil {
		return nil, classifySearchError("", err)
	}
	defer rows.Close()

	var hits []domain.DocumentHit
	for rows.Next() {
		var h domain.DocumentHit
		if err := rows.Scan(&h.DocumentID, &h.Title, &h.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan document hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return hits, nil
}

func (r *vectorSearchRepository) SearchChunks(ctx context.Context, collection, query string, docIDs []uuid.UUID, limit int) ([]domain.ChunkHit, error) {
	embedding, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	sql := `
		SELECT id, document_id, content, embedding <=> $1 AS distance
		FROM document_chunks
		WHERE collection = $2 AND document_id = ANY($3)
		ORDER BY distance ASC
		LIMIT $4
	`
	rows, err := r.pool.Query(ctx, sql, embedding, collection, docIDs, limit)
	if err != nil {
		return nil, classifySearchError(collection, err)
	}
	defer rows.Close()

	var hits []domain.ChunkHit
	for rows.Next() {
		h := domain.ChunkHit{Collection: collection}
		if err := rows.Scan(&h.ChunkID, &h.DocumentID, &h.Text, &h.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan chunk hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return hits, nil
}

func (r *vectorSearchRepository) embedQuery(ctx context.Context, query string) (pgvector.Vector, error) {
	embeddings, err := r.encoder.Encode(ctx, []string{query})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return pgvector.Vector{}, errors.New("embedder returned no vectors")
	}
	return pgvector.NewVector(embeddings[0]), nil
}

func classifySearchError(collection string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == pgUndefinedTable || pgErr.Code == pgUndefinedObject) {
		return &domain.IndexUnavailableError{Collection: collection, Err: err}
	}
	return fmt.Errorf("vector search failed: %w", err)
}

package repository

import (
	"context"
	"fmt"
	"strings"

	"answer-pipeline/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type registryRepository struct {
	pool *pgxpool.Pool
}

// NewRegistryRepository creates the postgres-backed document registry.
func NewRegistryRepository(pool *pgxpool.Pool) domain.Registry {
	return &registryRepository{pool: pool}
}

func (r *registryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT c.name, c.description, COUNT(d.id)
		FROM categories c
		LEFT JOIN documents d ON d.category = c.name
		GROUP BY c.name, c.description
		ORDER BY c.name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.Name, &c.Description, &c.DocCount); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return categories, nil
}

func (r *registryRepository) CountDocuments(ctx context.Context, filter domain.DocumentFilter) (int, error) {
	query := "SELECT COUNT(*) FROM documents"
	where, args := buildFilter(filter)
	query += where

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

func (r *registryRepository) FindDocumentsByTitle(ctx context.Context, substr string, limit int) ([]domain.Document, error) {
	query := documentSelect + `
		WHERE title ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, substr, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents by title: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (r *registryRepository) SearchDocuments(ctx context.Context, keyword string, limit int) ([]domain.Document, error) {
	query := documentSelect + `
		WHERE title ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, keyword, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (r *registryRepository) ListDocuments(ctx context.Context, filter domain.DocumentFilter, limit int) ([]domain.Document, error) {
	query := documentSelect
	where, args := buildFilter(filter)
	query += where
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (r *registryRepository) GetDocuments(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Document, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]domain.Document{}, nil
	}
	query := documentSelect + " WHERE id = ANY($1)"
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}
	defer rows.Close()

	docs, err := scanDocuments(rows)
	if err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]domain.Document, len(docs))
	for _, d := range docs {
		result[d.ID] = d
	}
	return result, nil
}

func (r *registryRepository) ListDomains(ctx context.Context) ([]domain.DomainInfo, error) {
	query := `SELECT name, description FROM domains ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query domains: %w", err)
	}
	defer rows.Close()
	return scanDomains(rows)
}

func (r *registryRepository) FindDomains(ctx context.Context, topic string) ([]domain.DomainInfo, error) {
	query := `
		SELECT name, description
		FROM domains
		WHERE name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to find domains: %w", err)
	}
	defer rows.Close()
	return scanDomains(rows)
}

func (r *registryRepository) CategoryBreakdown(ctx context.Context) (map[string]int, error) {
	query := `SELECT category, COUNT(*) FROM documents GROUP BY category`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := map[string]int{}
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan breakdown row: %w", err)
		}
		breakdown[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return breakdown, nil
}

func (r *registryRepository) DomainBreakdown(ctx context.Context) (map[string]map[string]int, error) {
	query := `SELECT domain, category, COUNT(*) FROM documents GROUP BY domain, category`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query domain breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := map[string]map[string]int{}
	for rows.Next() {
		var dom, category string
		var count int
		if err := rows.Scan(&dom, &category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan breakdown row: %w", err)
		}
		if breakdown[dom] == nil {
			breakdown[dom] = map[string]int{}
		}
		breakdown[dom][category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return breakdown, nil
}

const documentSelect = `
	SELECT id, title, filename, description, category, domain, doc_type, created_at
	FROM documents
`

// buildFilter turns the zero-value filter convention into a WHERE clause.
func buildFilter(filter domain.DocumentFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("category", filter.Category)
	add("domain", filter.Domain)
	add("doc_type", filter.DocType)
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanDocuments(rows pgx.Rows) ([]domain.Document, error) {
	var docs []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Filename, &d.Description, &d.Category, &d.Domain, &d.DocType, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return docs, nil
}

func scanDomains(rows pgx.Rows) ([]domain.DomainInfo, error) {
	var domains []domain.DomainInfo
	for rows.Next() {
		var d domain.DomainInfo
		if err := rows.Scan(&d.Name, &d.Description); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return domains, nil
}

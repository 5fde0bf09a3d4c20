package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Document is a registry row describing one stored document.
type Document struct {
	ID          uuid.UUID
	Title       string
	Filename    string
	Description string
	Category    string
	Domain      string
	DocType     string
	CreatedAt   time.Time
}

// Category is a document collection with its own vector index.
type Category struct {
	Name        string
	Description string
	DocCount    int
}

// DomainInfo is a business domain documents are tagged with.
type DomainInfo struct {
	Name        string
	Description string
}

// DocumentFilter narrows registry queries. Zero values mean "no constraint".
type DocumentFilter struct {
	Category string
	Domain   string
	DocType  string
}

// Registry answers document metadata questions without touching the vector
// indices. Implementations are expected to be cheap enough for the
// short-circuit path.
type Registry interface {
	// ListCategories returns all collections with their document counts.
	ListCategories(ctx context.Context) ([]Category, error)

	// CountDocuments counts documents matching the filter.
	CountDocuments(ctx context.Context, filter DocumentFilter) (int, error)

	// FindDocumentsByTitle matches titles case-insensitively by substring.
	FindDocumentsByTitle(ctx context.Context, substr string, limit int) ([]Document, error)

	// SearchDocuments matches the keyword against title or description.
	SearchDocuments(ctx context.Context, keyword string, limit int) ([]Document, error)

	// ListDocuments returns documents matching the filter, newest first.
	ListDocuments(ctx context.Context, filter DocumentFilter, limit int) ([]Document, error)

	// GetDocuments resolves registry rows for a set of document IDs.
	// Unknown IDs are silently absent from the result.
	GetDocuments(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Document, error)

	// ListDomains returns all business domains.
	ListDomains(ctx context.Context) ([]DomainInfo, error)

	// FindDomains matches domains by name or description substring.
	FindDomains(ctx context.Context, topic string) ([]DomainInfo, error)

	// CategoryBreakdown returns per-category document counts.
	CategoryBreakdown(ctx context.Context) (map[string]int, error)

	// DomainBreakdown returns per-domain, per-category document counts.
	DomainBreakdown(ctx context.Context) (map[string]map[string]int, error)
}

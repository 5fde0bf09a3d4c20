package domain

import "context"

// VectorEncoder turns query text into embedding vectors for index search.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}

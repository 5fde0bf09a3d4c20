package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"answer-pipeline/internal/domain"
	"answer-pipeline/internal/infra/httpclient"
)

const embedTimeout = 30 * time.Second

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embedder calls an OpenAI-compatible embeddings endpoint.
type Embedder struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

// NewEmbedder constructs an embedder for the given endpoint, key and model.
func NewEmbedder(baseURL, apiKey, model string) *Embedder {
	return &Embedder{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		Client:  httpclient.NewPooledClient(embedTimeout),
	}
}

func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()

	reqBody := embedRequest{Model: e.Model, Input: texts}
	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/embeddings", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.Client.Do(req)
	if err != nil {
		slog.Error("embed_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to call embeddings endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var respBody embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}

	// The API may reorder results; index is authoritative.
	embeddings := make([][]float32, len(respBody.Data))
	for _, d := range respBody.Data {
		if d.Index < 0 || d.Index >= len(embeddings) {
			return nil, fmt.Errorf("embeddings endpoint returned out-of-range index %d", d.Index)
		}
		embeddings[d.Index] = d.Embedding
	}

	slog.Info("embed_completed",
		slog.Int("text_count", len(texts)),
		slog.Duration("elapsed", time.Since(start)))

	return embeddings, nil
}

// Version returns the wrapped model name.
func (e *Embedder) Version() string {
	return e.Model
}

var _ domain.VectorEncoder = (*Embedder)(nil)

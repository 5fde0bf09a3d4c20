package retrieval

import (
	"encoding/json"
	"fmt"
	"strings"

	"answer-pipeline/internal/domain"
)

// Compact tabular prompt encoding. Prompts carry summaries and chunks as a
// header row plus one line per record instead of a JSON array, which cuts
// the token cost of the repeated keys.

const (
	summaryDescriptionLimit = 200
	chunkTextLimit          = 500
)

// EncodeSummaries renders document summaries in the compact tabular form
// and reports the token accounting against a JSON baseline.
func EncodeSummaries(docs []domain.RetrievedDocument) (string, int, int) {
	type row struct {
		Title       string `json:"title"`
		Category    string `json:"category"`
		Domain      string `json:"domain"`
		Description string `json:"description"`
	}
	rows := make([]row, 0, len(docs))
	var b strings.Builder
	fmt.Fprintf(&b, "documents[%d]{title,category,domain,description}:\n", len(docs))
	for _, d := range docs {
		desc := truncate(d.Description, summaryDescriptionLimit)
		rows = append(rows, row{Title: d.Title, Category: d.Category, Domain: d.Domain, Description: desc})
		fmt.Fprintf(&b, "  %s|%s|%s|%s\n", sanitizeField(d.Title), sanitizeField(d.Category), sanitizeField(d.Domain), sanitizeField(desc))
	}
	encoded := b.String()
	return encoded, estimateJSONTokens(rows), estimateTokens(encoded)
}

// EncodeChunks renders chunks in the compact tabular form and reports the
// token accounting against a JSON baseline.
func EncodeChunks(chunks []domain.RetrievedChunk) (string, int, int) {
	type row struct {
		Title string  `json:"title"`
		Score float64 `json:"score"`
		Text  string  `json:"text"`
	}
	rows := make([]row, 0, len(chunks))
	var b strings.Builder
	fmt.Fprintf(&b, "chunks[%d]{title,score,text}:\n", len(chunks))
	for _, c := range chunks {
		text := truncate(c.Text, chunkTextLimit)
		score := roundTo4(c.Score)
		rows = append(rows, row{Title: c.Title, Score: score, Text: text})
		fmt.Fprintf(&b, "  %s|%.4f|%s\n", sanitizeField(c.Title), score, sanitizeField(text))
	}
	encoded := b.String()
	return encoded, estimateJSONTokens(rows), estimateTokens(encoded)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func roundTo4(f float64) float64 {
	return float64(int64(f*10000+0.5)) / 10000
}

// sanitizeField keeps the record separator unambiguous.
func sanitizeField(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "/")
	return s
}

// estimateTokens uses the usual four-characters-per-token approximation.
func estimateTokens(s string) int {
	return (len(s) + 3) / 4
}

func estimateJSONTokens(v interface{}) int {
	raw, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return estimateTokens(string(raw))
}

package domain

import "github.com/google/uuid"

// QualityTier grades how much usable context retrieval produced.
type QualityTier string

const (
	QualityExcellent    QualityTier = "excellent"
	QualityGood         QualityTier = "good"
	QualitySufficient   QualityTier = "sufficient"
	QualityInsufficient QualityTier = "insufficient"
)

// RelevanceBand grades the average vector distance of surviving chunks.
type RelevanceBand string

const (
	RelevanceHigh    RelevanceBand = "high"
	RelevanceMedium  RelevanceBand = "medium"
	RelevanceLow     RelevanceBand = "low"
	RelevanceVeryLow RelevanceBand = "very_low"
)

// DataQuality is the retrieval self-assessment fed into model selection and
// the synthesis prompt.
type DataQuality struct {
	Tier        QualityTier
	Confidence  int // 0-100
	Relevance   RelevanceBand
	TotalChunks int
	TotalDocs   int
}

// RetrievedChunk is one surviving context chunk.
type RetrievedChunk struct {
	ChunkID    uuid.UUID
	DocumentID uuid.UUID
	Collection string
	Title      string
	Text       string
	Score      float64 // vector distance, lower is better
}

// RetrievedDocument is one surviving document with its registry metadata.
type RetrievedDocument struct {
	ID          uuid.UUID
	Title       string
	Description string
	Category    string
	Domain      string
	DocType     string
	Distance    float64
	TopK        int // per-document chunk allowance
}

// RetrievalResult is the full output of the retrieval stage.
type RetrievalResult struct {
	Documents []RetrievedDocument
	Chunks    []RetrievedChunk
	Quality   DataQuality

	// Compact prompt encodings and their token accounting.
	EncodedSummaries string
	EncodedChunks    string
	Savings          EncodingSavings
}

// EncodingSavings records the token cost of the compact encodings against a
// plain JSON baseline.
type EncodingSavings struct {
	SummariesJSONTokens int
	SummariesToonTokens int
	ChunksJSONTokens    int
	ChunksToonTokens    int
}

// SavedTokens is the total estimated tokens saved by compact encoding.
func (s EncodingSavings) SavedTokens() int {
	return (s.SummariesJSONTokens - s.SummariesToonTokens) + (s.ChunksJSONTokens - s.ChunksToonTokens)
}

package domain

import "time"

// ConversationTurn is one prior exchange message.
type ConversationTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// TokenUsage is the LLM token accounting for one pipeline run.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates usage from one more LLM call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// QualityScore is the weighted answer rubric. Each factor is scored 0-5;
// WeightedTotal lands in [0,20].
type QualityScore struct {
	Accuracy      int     `json:"accuracy"`
	Relevancy     int     `json:"relevancy"`
	Completeness  int     `json:"completeness"`
	Clarity       int     `json:"clarity"`
	SalesMaturity int     `json:"sales_maturity"`
	WeightedTotal float64 `json:"weighted_total"`
}

// NeedsRefinement reports whether the answer falls below the rubric bar.
func (q QualityScore) NeedsRefinement() bool { return q.WeightedTotal < 12 }

// PipelineMetadata is the diagnostic envelope attached to every answer.
type PipelineMetadata struct {
	ModelUsed      string                   `json:"model_used"`
	Confidence     int                      `json:"confidence"`
	Quality        QualityTier              `json:"quality"`
	StageTimings   map[string]time.Duration `json:"stage_timings"`
	ProcessingTime time.Duration            `json:"processing_time"`
	TokenUsage     TokenUsage               `json:"token_usage"`
	TokensSaved    int                      `json:"tokens_saved"`
	Refined        bool                     `json:"refined"`
}

// MetadataOnlyModel is the ModelUsed value for short-circuit answers.
const MetadataOnlyModel = "none (metadata-only)"

// FinalResponse is the assembled pipeline output before transport shaping.
type FinalResponse struct {
	Answer    string
	Sources   []string
	FollowUps []string
	Score     QualityScore
	Metadata  PipelineMetadata
}

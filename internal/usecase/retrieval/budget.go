package retrieval

import "answer-pipeline/internal/domain"

const (
	// DefaultTPMLimit is the per-minute token allowance the pipeline
	// budgets against.
	DefaultTPMLimit = 30000

	avgTokensPerChunk    = 800
	reservedPromptTokens = 3000
	minBudgetChunks      = 5
)

var reservedResponseTokens = map[domain.AnswerMode]int{
	domain.ModeExtract:   500,
	domain.ModeBrief:     1000,
	domain.ModeSummarize: 2000,
	domain.ModeExplain:   4000,
}

const defaultReservedResponse = 3000

// TokenBudgetCap computes how many chunks fit in the TPM allowance after
// reserving room for the prompt scaffolding and the response. Never returns
// fewer than minBudgetChunks.
func TokenBudgetCap(mode domain.AnswerMode, tpmLimit int) int {
	if tpmLimit <= 0 {
		tpmLimit = DefaultTPMLimit
	}
	reserved, ok := reservedResponseTokens[mode]
	if !ok {
		reserved = defaultReservedResponse
	}
	budget := tpmLimit - reservedPromptTokens - reserved
	chunks := budget / avgTokensPerChunk
	if chunks < minBudgetChunks {
		return minBudgetChunks
	}
	return chunks
}

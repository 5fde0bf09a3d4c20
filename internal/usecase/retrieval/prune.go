// Package retrieval holds the pure post-processing steps applied to raw
// index hits before synthesis: budgeting, pruning, quality grading, and the
// compact prompt encodings.
package retrieval

import (
	"sort"

	"answer-pipeline/internal/domain"
)

// Mode caps bound how many chunks the synthesis prompt may carry.
var modeChunkCaps = map[domain.AnswerMode]int{
	domain.ModeExtract:   15,
	domain.ModeBrief:     20,
	domain.ModeSummarize: 25,
	domain.ModeExplain:   30,
}

const defaultChunkCap = 30

// ChunkCap returns the maximum chunk count for an answer mode.
func ChunkCap(mode domain.AnswerMode) int {
	if cap, ok := modeChunkCaps[mode]; ok {
		return cap
	}
	return defaultChunkCap
}

// ScoreAndPrune sorts chunks by ascending distance and truncates to the
// smaller of the mode cap and the token-budget cap. The returned slice is a
// copy; the input is left untouched.
func ScoreAndPrune(chunks []domain.RetrievedChunk, mode domain.AnswerMode, budgetCap int) []domain.RetrievedChunk {
	out := make([]domain.RetrievedChunk, len(chunks))
	copy(out, chunks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })

	limit := ChunkCap(mode)
	if budgetCap > 0 && budgetCap < limit {
		limit = budgetCap
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

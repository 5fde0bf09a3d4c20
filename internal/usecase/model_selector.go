package usecase

import (
	"log/slog"
	"strings"

	"answer-pipeline/internal/domain"
)

// Default model names. Overridable per request via ModelPreference.
const (
	MiniModel = "gpt-4o-mini"
	FullModel = "gpt-4o"
)

// Verbosity and depth levels used by the selection heuristic.
const (
	lengthBrief         = "brief"
	lengthMedium        = "medium"
	lengthDetailed      = "detailed"
	lengthComprehensive = "comprehensive"

	depthHighLevel  = "high-level"
	depthModerate   = "moderate"
	depthDeep       = "deep"
	depthExhaustive = "exhaustive"
)

var lengthPriority = map[string]int{
	lengthComprehensive: 4,
	lengthDetailed:      3,
	lengthMedium:        2,
	lengthBrief:         1,
}

var depthPriority = map[string]int{
	depthExhaustive: 4,
	depthDeep:       3,
	depthModerate:   2,
	depthHighLevel:  1,
}

// fullModelThreshold is the factor score at which the full model is worth
// its extra latency and cost.
const fullModelThreshold = 5

// ModelSelectionInput carries everything the heuristic looks at.
type ModelSelectionInput struct {
	Question          string
	Mode              domain.AnswerMode
	Quality           domain.DataQuality
	ConversationLen   int
	IsFollowUp        bool
	IsClarification   bool
	ModelPreference   string
	MaxTokensOverride int
}

// ModelSelection is the resolved model plus its generation parameters.
type ModelSelection struct {
	Model          string
	MaxTokens      int
	Temperature    float64
	ResponseLength string
	ResponseDepth  string
	FactorScore    int
}

// SelectModel maps answer mode, retrieval quality, and conversation shape
// onto a model choice and generation parameters. Pure and deterministic.
func SelectModel(in ModelSelectionInput) ModelSelection {
	length, depth, estimated := responseParams(in)

	score := 0
	if p := lengthPriority[length]; p >= 4 {
		score += 2
	} else if p >= 3 {
		score++
	}
	if p := depthPriority[depth]; p >= 4 {
		score += 2
	} else if p >= 3 {
		score++
	}
	switch {
	case estimated > 6000:
		score += 2
	case estimated > 3000:
		score++
	}
	if isComplexQuestion(in.Question) && len(in.Question) > 100 {
		score++
	}
	if in.IsFollowUp && in.ConversationLen > 2 {
		score++
	}
	switch {
	case in.Quality.Tier == domain.QualityInsufficient:
		score += 2
	case in.Quality.Relevance == domain.RelevanceLow || in.Quality.Relevance == domain.RelevanceVeryLow:
		score++
	}
	if in.Quality.TotalDocs > 5 {
		score++
	}

	model := in.ModelPreference
	if model == "" {
		if score >= fullModelThreshold {
			model = FullModel
		} else {
			model = MiniModel
		}
	}

	maxTokens := scaleMaxTokens(in, model, length, estimated)

	temperature := 0.7
	if isComplexQuestion(in.Question) || in.IsClarification {
		temperature = 0.5
	} else if in.IsFollowUp {
		temperature = 0.6
	}

	sel := ModelSelection{
		Model:          model,
		MaxTokens:      maxTokens,
		Temperature:    temperature,
		ResponseLength: length,
		ResponseDepth:  depth,
		FactorScore:    score,
	}
	slog.Debug("model_selected",
		slog.String("model", sel.Model),
		slog.Int("factor_score", score),
		slog.Int("max_tokens", sel.MaxTokens))
	return sel
}

func responseParams(in ModelSelectionInput) (length, depth string, estimated int) {
	switch in.Mode {
	case domain.ModeExtract:
		length, depth, estimated = lengthBrief, depthModerate, 500
	case domain.ModeBrief:
		length, depth, estimated = lengthBrief, depthModerate, 1000
	case domain.ModeSummarize:
		length, depth, estimated = lengthMedium, depthModerate, 2000
	case domain.ModeExplain:
		length, depth, estimated = lengthDetailed, depthDeep, 4000
	default:
		length, depth, estimated = lengthMedium, depthModerate, 3000
	}

	if in.Quality.Tier == domain.QualityExcellent && in.Quality.TotalDocs > 3 && in.Mode == domain.ModeExplain {
		length, depth, estimated = lengthComprehensive, depthExhaustive, 7000
	}
	if in.Quality.Tier == domain.QualityInsufficient {
		length = downgradeLength(length)
		depth = downgradeDepth(depth)
		if estimated > 2000 {
			estimated = 2000
		}
	}

	if estimated < 500 {
		estimated = 500
	}
	if estimated > 10000 {
		estimated = 10000
	}
	return length, depth, estimated
}

func downgradeLength(length string) string {
	switch length {
	case lengthComprehensive:
		return lengthDetailed
	case lengthDetailed:
		return lengthMedium
	case lengthMedium:
		return lengthBrief
	default:
		return length
	}
}

func downgradeDepth(depth string) string {
	switch depth {
	case depthExhaustive:
		return depthDeep
	case depthDeep:
		return depthModerate
	case depthModerate:
		return depthHighLevel
	default:
		return depth
	}
}

func scaleMaxTokens(in ModelSelectionInput, model, length string, estimated int) int {
	if in.MaxTokensOverride > 0 {
		return clampTokens(in.MaxTokensOverride)
	}

	tokens := float64(estimated)
	if model == FullModel {
		tokens *= 1.2
	} else {
		tokens *= 1.1
	}
	if in.IsFollowUp {
		tokens *= 1.15
	}
	switch length {
	case lengthComprehensive:
		tokens *= 1.3
	case lengthDetailed:
		tokens *= 1.2
	case lengthBrief:
		tokens *= 0.8
	}
	if in.Quality.TotalDocs > 3 {
		tokens *= 1.1
	}
	if in.Quality.Tier == domain.QualityInsufficient {
		tokens *= 0.7
	}
	return clampTokens(int(tokens))
}

func clampTokens(tokens int) int {
	if tokens < 500 {
		return 500
	}
	if tokens > 16000 {
		return 16000
	}
	return tokens
}

var complexMarkers = []string{
	"what", "how", "why", "when", "where", "who", "which", "explain", "describe", "tell me",
}

func isComplexQuestion(question string) bool {
	q := strings.ToLower(question)
	for _, m := range complexMarkers {
		if strings.Contains(q, m) {
			return true
		}
	}
	return false
}

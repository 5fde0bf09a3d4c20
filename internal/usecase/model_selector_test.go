package usecase_test

import (
	"testing"

	"answer-pipeline/internal/domain"
	"answer-pipeline/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func goodQuality() domain.DataQuality {
	return domain.DataQuality{
		Tier: domain.QualityGood, Confidence: 75,
		Relevance: domain.RelevanceMedium, TotalChunks: 6, TotalDocs: 2,
	}
}

func TestSelectModel_ExtractUsesMiniAndSmallBudget(t *testing.T) {
	sel := usecase.SelectModel(usecase.ModelSelectionInput{
		Question: "what is the ROI figure?",
		Mode:     domain.ModeExtract,
		Quality:  goodQuality(),
	})
	assert.Equal(t, usecase.MiniModel, sel.Model)
	// 500 estimated * 1.1 mini * 0.8 brief = 440, floored to 500.
	assert.Equal(t, 500, sel.MaxTokens)
}

func TestSelectModel_RichExplainEscalatesToFullModel(t *testing.T) {
	sel := usecase.SelectModel(usecase.ModelSelectionInput{
		Question: "explain how the migration was delivered end to end and what outcomes were measured along the way?",
		Mode:     domain.ModeExplain,
		Quality: domain.DataQuality{
			Tier: domain.QualityExcellent, Confidence: 85,
			Relevance: domain.RelevanceHigh, TotalChunks: 20, TotalDocs: 6,
		},
	})
	assert.Equal(t, usecase.FullModel, sel.Model)
	assert.Equal(t, "comprehensive", sel.ResponseLength)
	assert.Equal(t, "exhaustive", sel.ResponseDepth)
	assert.GreaterOrEqual(t, sel.FactorScore, 5)
}

func TestSelectModel_InsufficientQualityDowngrades(t *testing.T) {
	sel := usecase.SelectModel(usecase.ModelSelectionInput{
		Question: "explain the engagement",
		Mode:     domain.ModeExplain,
		Quality: domain.DataQuality{
			Tier: domain.QualityInsufficient, Confidence: 50,
			Relevance: domain.RelevanceVeryLow, TotalChunks: 1, TotalDocs: 1,
		},
	})
	assert.Equal(t, "medium", sel.ResponseLength)
	assert.Equal(t, "moderate", sel.ResponseDepth)
	// 2000 cap * 1.1 mini * 0.7 insufficient = 1540.
	assert.Equal(t, 1540, sel.MaxTokens)
}

func TestSelectModel_PreferenceAndOverrideWin(t *testing.T) {
	sel := usecase.SelectModel(usecase.ModelSelectionInput{
		Question:          "anything",
		Mode:              domain.ModeBrief,
		Quality:           goodQuality(),
		ModelPreference:   "gpt-4o",
		MaxTokensOverride: 1234,
	})
	assert.Equal(t, "gpt-4o", sel.Model)
	assert.Equal(t, 1234, sel.MaxTokens)
}

func TestSelectModel_TokenClamps(t *testing.T) {
	low := usecase.SelectModel(usecase.ModelSelectionInput{
		Question: "x", Mode: domain.ModeExtract, Quality: goodQuality(), MaxTokensOverride: 10,
	})
	assert.Equal(t, 500, low.MaxTokens)

	high := usecase.SelectModel(usecase.ModelSelectionInput{
		Question: "x", Mode: domain.ModeExplain, Quality: goodQuality(), MaxTokensOverride: 99999,
	})
	assert.Equal(t, 16000, high.MaxTokens)
}

func TestSelectModel_Temperature(t *testing.T) {
	complex := usecase.SelectModel(usecase.ModelSelectionInput{
		Question: "how did the rollout go?", Mode: domain.ModeBrief, Quality: goodQuality(),
	})
	assert.Equal(t, 0.5, complex.Temperature)

	followUp := usecase.SelectModel(usecase.ModelSelectionInput{
		Question: "and the second one?", Mode: domain.ModeBrief, Quality: goodQuality(),
		IsFollowUp: true, ConversationLen: 4,
	})
	assert.Equal(t, 0.6, followUp.Temperature)

	plain := usecase.SelectModel(usecase.ModelSelectionInput{
		Question: "give me the fintech numbers", Mode: domain.ModeBrief, Quality: goodQuality(),
	})
	assert.Equal(t, 0.7, plain.Temperature)
}

func TestSelectModel_Deterministic(t *testing.T) {
	in := usecase.ModelSelectionInput{
		Question: "explain the full migration story?", Mode: domain.ModeExplain, Quality: goodQuality(),
	}
	first := usecase.SelectModel(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, usecase.SelectModel(in))
	}
}

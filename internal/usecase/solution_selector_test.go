package usecase_test

import (
	"context"
	"errors"
	"testing"

	"answer-pipeline/internal/domain"
	"answer-pipeline/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSelectSolution_SkipsExtractAndBrief(t *testing.T) {
	llm := new(mockLLMClient)
	sel := usecase.NewSolutionSelector(llm, usecase.MiniModel)

	for _, mode := range []domain.AnswerMode{domain.ModeExtract, domain.ModeBrief} {
		name, reasoning, usage := sel.SelectSolution(context.Background(), "what is the exact number?", mode)
		assert.Empty(t, name)
		assert.Empty(t, reasoning)
		assert.Zero(t, usage.TotalTokens)
	}
	llm.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything)
}

func TestSelectSolution_LLMFailureFallsBackToKeywords(t *testing.T) {
	llm := new(mockLLMClient)
	llm.On("Chat", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("timeout"))

	sel := usecase.NewSolutionSelector(llm, usecase.MiniModel)
	name, reasoning, _ := sel.SelectSolution(context.Background(),
		"our regression suite is full of flaky tests, explain how you would fix it", domain.ModeExplain)

	assert.Equal(t, "Fastrack Automation", name)
	assert.Equal(t, "keyword fallback", reasoning)
}

func TestSelectSolution_MalformedJSONFallsBack(t *testing.T) {
	llm := new(mockLLMClient)
	llm.On("Chat", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.ChatResult{Text: "not json at all"}, nil)

	sel := usecase.NewSolutionSelector(llm, usecase.MiniModel)
	name, reasoning, _ := sel.SelectSolution(context.Background(),
		"we keep shipping production bugs, explain what you would do", domain.ModeExplain)

	assert.Equal(t, "BugBuster", name)
	assert.Equal(t, "keyword fallback", reasoning)
}

func TestSelectSolution_NormalizesFreeFormName(t *testing.T) {
	llm := new(mockLLMClient)
	llm.On("Chat", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.ChatResult{
			Text:  `{"solution": "I would go with the Fastrack Automation offering", "reasoning": "pipeline pain"}`,
			Usage: domain.TokenUsage{TotalTokens: 50},
		}, nil)

	sel := usecase.NewSolutionSelector(llm, usecase.MiniModel)
	name, reasoning, usage := sel.SelectSolution(context.Background(),
		"explain how we could speed up releases", domain.ModeExplain)

	assert.Equal(t, "Fastrack Automation", name)
	assert.Equal(t, "pipeline pain", reasoning)
	assert.Equal(t, 50, usage.TotalTokens)
}

func TestSelectSolution_UnknownNameFallsBackToKeywords(t *testing.T) {
	llm := new(mockLLMClient)
	llm.On("Chat", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.ChatResult{Text: `{"solution": "MegaSuite Deluxe", "reasoning": "made up"}`}, nil)

	sel := usecase.NewSolutionSelector(llm, usecase.MiniModel)
	name, reasoning, _ := sel.SelectSolution(context.Background(),
		"explain how you handle a resource crunch in qa", domain.ModeExplain)

	assert.Equal(t, "QA Ownership", name)
	assert.Equal(t, "keyword fallback", reasoning)
}

func TestSelectSolution_UsesJSONModeWithLowTemperature(t *testing.T) {
	llm := new(mockLLMClient)
	var opts domain.ChatOptions
	llm.On("Chat", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		opts = args.Get(2).(domain.ChatOptions)
	}).Return(&domain.ChatResult{Text: `{"solution": "none", "reasoning": "no fit"}`}, nil)

	sel := usecase.NewSolutionSelector(llm, usecase.MiniModel)
	sel.SelectSolution(context.Background(), "explain your delivery model", domain.ModeExplain)

	assert.True(t, opts.JSONMode)
	assert.Equal(t, usecase.MiniModel, opts.Model)
	assert.Equal(t, 200, opts.MaxTokens)
	assert.Equal(t, 0.2, opts.Temperature)
}

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"answer-pipeline/internal/domain"
	"answer-pipeline/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orchestratorFixture struct {
	metadata   *mockMetadataHandler
	rewriter   *mockQueryRewriter
	solutions  *mockSolutionSelector
	retrieve   *mockRetrieveUsecase
	synthesize *mockSynthesizeUsecase
	orch       usecase.Orchestrator
}

func newOrchestratorFixture() *orchestratorFixture {
	f := &orchestratorFixture{
		metadata:   new(mockMetadataHandler),
		rewriter:   new(mockQueryRewriter),
		solutions:  new(mockSolutionSelector),
		retrieve:   new(mockRetrieveUsecase),
		synthesize: new(mockSynthesizeUsecase),
	}
	categories := staticCategories{
		{Name: "proposals"}, {Name: "case_studies"},
	}
	f.orch = usecase.NewOrchestrator(
		categories, f.metadata, f.rewriter, f.solutions, f.retrieve, f.synthesize, 30000)
	return f
}

func TestAsk_MetadataShortCircuit(t *testing.T) {
	f := newOrchestratorFixture()
	f.metadata.On("TryShortCircuit", mock.Anything, mock.Anything, mock.Anything).
		Return("I have **42 documents** across all collections.", nil)

	resp, err := f.orch.Ask(context.Background(), usecase.AskRequest{
		Question: "how many documents do we have?",
	})
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "42 documents")
	assert.Equal(t, domain.MetadataOnlyModel, resp.Metadata.ModelUsed)
	assert.Contains(t, resp.Metadata.StageTimings, "stage1_intent")
	assert.NotContains(t, resp.Metadata.StageTimings, "stage2_retrieval")
	assert.NotContains(t, resp.Metadata.StageTimings, "stage3_synthesis")

	f.rewriter.AssertNotCalled(t, "RewriteAndSelect", mock.Anything, mock.Anything)
	f.retrieve.AssertNotCalled(t, "Retrieve", mock.Anything, mock.Anything)
	f.synthesize.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything)
}

func TestAsk_ObjectionShortCircuitsFactualQuestion(t *testing.T) {
	f := newOrchestratorFixture()
	playbook := "**Recommendation:** Start with a scoped BugBuster engagement."
	f.metadata.On("TryShortCircuit", mock.Anything, mock.Anything, mock.Anything).
		Return(playbook, nil)

	resp, err := f.orch.Ask(context.Background(), usecase.AskRequest{
		Question: "This is too expensive, why not just build it ourselves?",
	})
	require.NoError(t, err)

	// The objection playbook answers even though the attribute is factual.
	captured := f.metadata.Calls[0].Arguments.Get(1).(domain.IntentDecision)
	assert.Equal(t, domain.AttributeFactual, captured.Attribute)
	assert.Equal(t, "Objection", captured.SalesIntent)

	assert.Equal(t, playbook, resp.Answer)
	assert.Equal(t, domain.MetadataOnlyModel, resp.Metadata.ModelUsed)
	f.rewriter.AssertNotCalled(t, "RewriteAndSelect", mock.Anything, mock.Anything)
	f.retrieve.AssertNotCalled(t, "Retrieve", mock.Anything, mock.Anything)
	f.synthesize.AssertNotCalled(t, "Synthesize", mock.Anything, mock.Anything)
}

func TestAsk_NonProceedDirectAnswer(t *testing.T) {
	f := newOrchestratorFixture()
	f.metadata.On("TryShortCircuit", mock.Anything, mock.Anything, mock.Anything).Return("", nil)
	f.rewriter.On("RewriteAndSelect", mock.Anything, mock.Anything).Return(usecase.RewriteResult{
		Proceed:      false,
		DirectAnswer: "That's outside what the knowledge base covers.",
		Usage:        domain.TokenUsage{TotalTokens: 30},
	})

	resp, err := f.orch.Ask(context.Background(), usecase.AskRequest{
		Question: "What does the Keysight proposal say about pricing?",
	})
	require.NoError(t, err)

	assert.Equal(t, "That's outside what the knowledge base covers.", resp.Answer)
	assert.Equal(t, domain.MetadataOnlyModel, resp.Metadata.ModelUsed)
	assert.Equal(t, 30, resp.Metadata.TokenUsage.TotalTokens)
	f.retrieve.AssertNotCalled(t, "Retrieve", mock.Anything, mock.Anything)
}

func TestAsk_NonProceedFallbackListsCollections(t *testing.T) {
	f := newOrchestratorFixture()
	f.metadata.On("TryShortCircuit", mock.Anything, mock.Anything, mock.Anything).Return("", nil)
	f.rewriter.On("RewriteAndSelect", mock.Anything, mock.Anything).
		Return(usecase.RewriteResult{Proceed: false})

	resp, err := f.orch.Ask(context.Background(), usecase.AskRequest{
		Question: "What does the Keysight proposal say about pricing?",
	})
	require.NoError(t, err)

	assert.Contains(t, resp.Answer, "proposals")
	assert.Contains(t, resp.Answer, "case_studies")
}

func TestAsk_FactualPipelineEndToEnd(t *testing.T) {
	f := newOrchestratorFixture()
	f.metadata.On("TryShortCircuit", mock.Anything, mock.Anything, mock.Anything).Return("", nil)
	retrieval := retrievalFixture()

	f.rewriter.On("RewriteAndSelect", mock.Anything, mock.Anything).Return(usecase.RewriteResult{
		SelectedCollections: []string{"proposals"},
		RefinedQuestion:     "Keysight proposal pricing details",
		Mode:                domain.ModeBrief,
		Proceed:             true,
		Usage:               domain.TokenUsage{TotalTokens: 100},
	})
	f.solutions.On("SelectSolution", mock.Anything, mock.Anything, domain.ModeBrief).
		Return("", "", domain.TokenUsage{})

	var retrieveIn usecase.RetrieveInput
	f.retrieve.On("Retrieve", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		retrieveIn = args.Get(1).(usecase.RetrieveInput)
	}).Return(retrieval, nil)

	var synthIn usecase.SynthesizeInput
	f.synthesize.On("Synthesize", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		synthIn = args.Get(1).(usecase.SynthesizeInput)
	}).Return(&usecase.SynthesizeOutput{
		Answer:    "Yes, the Keysight proposal covers tiered pricing.",
		Sources:   []string{"keysight proposal"},
		FollowUps: []string{"Want me to pull together pricing and timeline options?"},
		Score:     domain.QualityScore{WeightedTotal: 15},
		Refined:   false,
		Usage:     domain.TokenUsage{TotalTokens: 400},
	}, nil)

	resp, err := f.orch.Ask(context.Background(), usecase.AskRequest{
		Question: "What does the Keysight proposal say about pricing?",
	})
	require.NoError(t, err)

	assert.Equal(t, "Keysight proposal pricing details", retrieveIn.Question)
	assert.Equal(t, []string{"proposals"}, retrieveIn.SelectedCollections)
	assert.Equal(t, domain.ModeBrief, retrieveIn.Mode)
	assert.Equal(t, "Keysight", retrieveIn.Entity)
	assert.Equal(t, "proposal", retrieveIn.PreferredDocType)
	assert.Equal(t, 30000, retrieveIn.TPMLimit)

	assert.Equal(t, "Keysight proposal pricing details", synthIn.Question)
	assert.Equal(t, retrieval, synthIn.Retrieval)
	assert.NotEmpty(t, synthIn.Selection.Model)

	assert.Equal(t, "Yes, the Keysight proposal covers tiered pricing.", resp.Answer)
	assert.Equal(t, []string{"keysight proposal"}, resp.Sources)
	assert.Equal(t, synthIn.Selection.Model, resp.Metadata.ModelUsed)
	assert.Equal(t, retrieval.Quality.Confidence, resp.Metadata.Confidence)
	assert.Equal(t, retrieval.Quality.Tier, resp.Metadata.Quality)
	assert.Equal(t, 500, resp.Metadata.TokenUsage.TotalTokens)
	assert.Contains(t, resp.Metadata.StageTimings, "stage1_intent")
	assert.Contains(t, resp.Metadata.StageTimings, "stage2_retrieval")
	assert.Contains(t, resp.Metadata.StageTimings, "stage3_synthesis")
}

func TestAsk_RetrievalErrorPropagates(t *testing.T) {
	f := newOrchestratorFixture()
	f.metadata.On("TryShortCircuit", mock.Anything, mock.Anything, mock.Anything).Return("", nil)
	f.rewriter.On("RewriteAndSelect", mock.Anything, mock.Anything).Return(usecase.RewriteResult{
		SelectedCollections: []string{"proposals"},
		RefinedQuestion:     "Keysight proposal pricing",
		Mode:                domain.ModeBrief,
		Proceed:             true,
	})
	f.solutions.On("SelectSolution", mock.Anything, mock.Anything, mock.Anything).
		Return("", "", domain.TokenUsage{})

	indexErr := &domain.IndexUnavailableError{Collection: "proposals", Err: errors.New("hnsw segment missing")}
	f.retrieve.On("Retrieve", mock.Anything, mock.Anything).Return(nil, indexErr)

	resp, err := f.orch.Ask(context.Background(), usecase.AskRequest{
		Question: "What does the Keysight proposal say about pricing?",
	})
	assert.Nil(t, resp)
	var unavailable *domain.IndexUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestAsk_SynthesisFailureDegradesToFallbackAnswer(t *testing.T) {
	f := newOrchestratorFixture()
	f.metadata.On("TryShortCircuit", mock.Anything, mock.Anything, mock.Anything).Return("", nil)
	f.rewriter.On("RewriteAndSelect", mock.Anything, mock.Anything).Return(usecase.RewriteResult{
		SelectedCollections: []string{"proposals"},
		RefinedQuestion:     "Keysight proposal pricing",
		Mode:                domain.ModeBrief,
		Proceed:             true,
	})
	f.solutions.On("SelectSolution", mock.Anything, mock.Anything, mock.Anything).
		Return("", "", domain.TokenUsage{})
	f.retrieve.On("Retrieve", mock.Anything, mock.Anything).Return(retrievalFixture(), nil)
	f.synthesize.On("Synthesize", mock.Anything, mock.Anything).
		Return(nil, errors.New("upstream 500"))

	resp, err := f.orch.Ask(context.Background(), usecase.AskRequest{
		Question: "What does the Keysight proposal say about pricing?",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Answer, "unable to generate a response")
	assert.NotEmpty(t, resp.Metadata.ModelUsed)
}

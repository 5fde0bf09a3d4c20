package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"answer-pipeline/internal/domain"
	"answer-pipeline/internal/infra/logger"
)

// Final fallback when every stage came up empty.
const msgNoResponse = "I was unable to generate a response. Please try rephrasing your question."

// Stage timing keys.
const (
	stageIntent    = "stage1_intent"
	stageRetrieval = "stage2_retrieval"
	stageSynthesis = "stage3_synthesis"
)

// AskRequest is one pipeline invocation.
type AskRequest struct {
	Question          string
	UserEmail         string
	History           []domain.ConversationTurn
	ModelPreference   string
	MaxTokensOverride int
}

// CategoryProvider supplies the current collection list. Backed by the
// registry, usually through the warmed cache.
type CategoryProvider interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

// Orchestrator runs the three-stage pipeline. Only index unavailability is
// returned as an error; every other failure degrades to a usable answer.
type Orchestrator interface {
	Ask(ctx context.Context, req AskRequest) (*domain.FinalResponse, error)
}

type orchestrator struct {
	categories CategoryProvider
	metadata   MetadataHandler
	rewriter   QueryRewriter
	solutions  SolutionSelector
	retrieve   RetrieveUsecase
	synthesize SynthesizeAnswerUsecase
	tpmLimit   int
}

// NewOrchestrator wires the pipeline.
func NewOrchestrator(
	categories CategoryProvider,
	metadata MetadataHandler,
	rewriter QueryRewriter,
	solutions SolutionSelector,
	retrieve RetrieveUsecase,
	synthesize SynthesizeAnswerUsecase,
	tpmLimit int,
) Orchestrator {
	return &orchestrator{
		categories: categories,
		metadata:   metadata,
		rewriter:   rewriter,
		solutions:  solutions,
		retrieve:   retrieve,
		synthesize: synthesize,
		tpmLimit:   tpmLimit,
	}
}

// pipelineContext is the mutable working set threaded through the stages.
type pipelineContext struct {
	req       AskRequest
	decision  domain.IntentDecision
	mode      domain.AnswerMode
	entity    string
	coreFear  string
	solution  string
	rewrite   RewriteResult
	retrieval *domain.RetrievalResult
	selection ModelSelection
	role      string
	respType  ResponseType

	start   time.Time
	timings map[string]time.Duration
	usage   domain.TokenUsage
}

func (o *orchestrator) Ask(ctx context.Context, req AskRequest) (*domain.FinalResponse, error) {
	pc := &pipelineContext{
		req:      req,
		start:    time.Now(),
		timings:  map[string]time.Duration{},
		role:     RoleSales,
		respType: ResponseSalesRecommendation,
	}

	if resp, done, err := o.runStage1(ctx, pc); done || err != nil {
		return resp, err
	}
	if err := o.runStage2(ctx, pc); err != nil {
		return nil, err
	}
	return o.runStage3(ctx, pc)
}

// runStage1 classifies, tries the metadata short circuit, and prepares the
// retrieval inputs. done=true means the response is final.
func (o *orchestrator) runStage1(ctx context.Context, pc *pipelineContext) (*domain.FinalResponse, bool, error) {
	defer o.timeStage(pc, stageIntent)()
	ctx = logger.WithStage(ctx, stageIntent)

	pc.decision = domain.ClassifyIntent(pc.req.Question)
	pc.mode = domain.InferAnswerMode(pc.req.Question)
	pc.entity = domain.ExtractEntity(pc.req.Question)
	pc.coreFear = domain.InferCoreFear(pc.req.Question)

	slog.InfoContext(ctx, "pipeline_stage1_classified",
		slog.String("intent", string(pc.decision.Intent)),
		slog.String("attribute", string(pc.decision.Attribute)),
		slog.String("sales_intent", pc.decision.SalesIntent),
		slog.String("mode", string(pc.mode)))

	// The short circuit runs for every question: factual ones come back
	// empty unless the objection playbook matched.
	answer, err := o.metadata.TryShortCircuit(ctx, pc.decision, pc.req.Question)
	if err != nil {
		return nil, false, fmt.Errorf("metadata short circuit: %w", err)
	}
	if answer != "" {
		return o.metadataResponse(pc, answer), true, nil
	}
	if pc.decision.Attribute != domain.AttributeFactual {
		// Every non-factual attribute has a handler, so an empty answer
		// here is a routing bug, not a user problem.
		slog.ErrorContext(ctx, "pipeline_nonfactual_unhandled", slog.String("attribute", string(pc.decision.Attribute)))
		return o.metadataResponse(pc, msgNonFactualGate), true, nil
	}

	categories, err := o.categories.Categories(ctx)
	if err != nil {
		slog.WarnContext(ctx, "pipeline_categories_unavailable", slog.String("error", err.Error()))
		categories = nil
	}

	pc.rewrite = o.rewriter.RewriteAndSelect(ctx, RewriteInput{
		Question:   pc.req.Question,
		Categories: categories,
		History:    pc.req.History,
		Mode:       pc.mode,
	})
	pc.usage.Add(pc.rewrite.Usage)
	pc.mode = pc.rewrite.Mode

	if !pc.rewrite.Proceed {
		return o.nonProceedResponse(pc, categories), true, nil
	}

	var reasoning string
	var usage domain.TokenUsage
	pc.solution, reasoning, usage = o.solutions.SelectSolution(ctx, pc.req.Question, pc.mode)
	pc.usage.Add(usage)
	if pc.solution != "" {
		slog.InfoContext(ctx, "pipeline_solution_selected",
			slog.String("solution", pc.solution),
			slog.String("reasoning", reasoning))
	}

	pc.role = SelectRole(pc.decision.SalesIntent)
	pc.respType = SelectResponseType(pc.decision.SalesIntent, pc.req.Question)
	return nil, false, nil
}

func (o *orchestrator) runStage2(ctx context.Context, pc *pipelineContext) error {
	defer o.timeStage(pc, stageRetrieval)()
	ctx = logger.WithStage(ctx, stageRetrieval)

	result, err := o.retrieve.Retrieve(ctx, RetrieveInput{
		Question:            pc.rewrite.RefinedQuestion,
		SelectedCollections: pc.rewrite.SelectedCollections,
		Mode:                pc.mode,
		Entity:              pc.entity,
		PreferredDocType:    domain.InferDocTypeFromQuestion(pc.req.Question),
		SelectedSolution:    pc.solution,
		TPMLimit:            o.tpmLimit,
	})
	if err != nil {
		return err
	}
	pc.retrieval = result
	return nil
}

func (o *orchestrator) runStage3(ctx context.Context, pc *pipelineContext) (*domain.FinalResponse, error) {
	defer o.timeStage(pc, stageSynthesis)()
	ctx = logger.WithStage(ctx, stageSynthesis)

	isFollowUp := len(pc.req.History) > 0
	isClarification := isClarificationQuestion(pc.req.Question)

	pc.selection = SelectModel(ModelSelectionInput{
		Question:          pc.req.Question,
		Mode:              pc.mode,
		Quality:           pc.retrieval.Quality,
		ConversationLen:   len(pc.req.History),
		IsFollowUp:        isFollowUp,
		IsClarification:   isClarification,
		ModelPreference:   pc.req.ModelPreference,
		MaxTokensOverride: pc.req.MaxTokensOverride,
	})

	out, err := o.synthesize.Synthesize(ctx, SynthesizeInput{
		Question:         pc.rewrite.RefinedQuestion,
		Entity:           pc.entity,
		Mode:             pc.mode,
		Role:             pc.role,
		ResponseType:     pc.respType,
		CoreFear:         pc.coreFear,
		SelectedSolution: pc.solution,
		SalesIntent:      pc.decision.SalesIntent,
		History:          pc.req.History,
		Retrieval:        pc.retrieval,
		Selection:        pc.selection,
		IsFollowUp:       isFollowUp,
		IsClarification:  isClarification,
	})
	if err != nil {
		slog.ErrorContext(ctx, "pipeline_synthesis_failed", slog.String("error", err.Error()))
		resp := o.baseResponse(pc, msgNoResponse)
		resp.Metadata.ModelUsed = pc.selection.Model
		return resp, nil
	}
	pc.usage.Add(out.Usage)

	answer := out.Answer
	if strings.TrimSpace(answer) == "" {
		answer = msgNoResponse
	}

	resp := o.baseResponse(pc, answer)
	resp.Sources = out.Sources
	resp.FollowUps = out.FollowUps
	resp.Score = out.Score
	resp.Metadata.ModelUsed = pc.selection.Model
	resp.Metadata.Confidence = pc.retrieval.Quality.Confidence
	resp.Metadata.Quality = pc.retrieval.Quality.Tier
	resp.Metadata.TokensSaved = pc.retrieval.Savings.SavedTokens()
	resp.Metadata.Refined = out.Refined
	return resp, nil
}

// metadataResponse finalizes a short-circuit answer: no stage-2 or stage-3
// timings, no model.
func (o *orchestrator) metadataResponse(pc *pipelineContext, answer string) *domain.FinalResponse {
	resp := o.baseResponse(pc, answer)
	resp.Metadata.ModelUsed = domain.MetadataOnlyModel
	return resp
}

func (o *orchestrator) nonProceedResponse(pc *pipelineContext, categories []domain.Category) *domain.FinalResponse {
	answer := pc.rewrite.DirectAnswer
	if answer == "" {
		answer = fallbackNonProceedAnswer(pc.req.Question, categories)
	}
	resp := o.baseResponse(pc, answer)
	resp.Metadata.ModelUsed = domain.MetadataOnlyModel
	return resp
}

func (o *orchestrator) baseResponse(pc *pipelineContext, answer string) *domain.FinalResponse {
	return &domain.FinalResponse{
		Answer: answer,
		Metadata: domain.PipelineMetadata{
			StageTimings:   pc.timings,
			ProcessingTime: time.Since(pc.start),
			TokenUsage:     pc.usage,
		},
	}
}

func (o *orchestrator) timeStage(pc *pipelineContext, stage string) func() {
	begin := time.Now()
	return func() {
		pc.timings[stage] = time.Since(begin)
	}
}

func isClarificationQuestion(question string) bool {
	q := strings.ToLower(question)
	return strings.Contains(q, "what do you mean") || strings.Contains(q, "clarify") ||
		strings.Contains(q, "can you explain that")
}

func fallbackNonProceedAnswer(question string, categories []domain.Category) string {
	q := strings.ToLower(strings.TrimSpace(question))
	switch {
	case strings.HasPrefix(q, "hi") || strings.HasPrefix(q, "hello") || strings.HasPrefix(q, "hey"):
		return "Hello! Ask me anything about the documents in my knowledge base."
	case strings.Contains(q, "thank"):
		return "You're welcome! Happy to help anytime."
	case strings.Contains(q, "bye"):
		return "Goodbye! Come back whenever you need something."
	}
	var topics []string
	for _, c := range categories {
		topics = append(topics, c.Name)
	}
	if len(topics) == 0 {
		return "I can only answer questions related to the documents in my knowledge base."
	}
	return fmt.Sprintf("I can only answer questions related to the documents in my knowledge base. "+
		"Based on your available collections, I can help with: %s. Try asking about one of those.",
		strings.Join(topics, ", "))
}

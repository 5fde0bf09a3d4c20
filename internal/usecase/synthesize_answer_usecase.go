package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"answer-pipeline/internal/domain"
)

// Fixed synthesis fallback messages.
const (
	msgEmptyGeneration = "I couldn't generate a full answer from the retrieved context. Try rephrasing or asking about a specific document or metric."
)

const (
	historyTurnsInPrompt  = 5
	refinementMaxTokens   = 2048
	refinementMinTokens   = 512
	refinementTemperature = 0.5
	maxSources            = 3
	maxFollowUps          = 3
	lowConfidenceBar      = 60
)

// SynthesizeInput is the stage-3 working set.
type SynthesizeInput struct {
	Question         string
	Entity           string
	Mode             domain.AnswerMode
	Role             string
	ResponseType     ResponseType
	CoreFear         string
	SelectedSolution string
	SalesIntent      string
	History          []domain.ConversationTurn
	Retrieval        *domain.RetrievalResult
	Selection        ModelSelection
	IsFollowUp       bool
	IsClarification  bool
}

// SynthesizeOutput is the generated answer with its rubric score and the
// response garnish.
type SynthesizeOutput struct {
	Answer    string
	Score     domain.QualityScore
	Refined   bool
	Sources   []string
	FollowUps []string
	Usage     domain.TokenUsage
}

// SynthesizeAnswerUsecase turns retrieval output into the final answer,
// scoring it against the rubric and refining at most once.
type SynthesizeAnswerUsecase interface {
	Synthesize(ctx context.Context, in SynthesizeInput) (*SynthesizeOutput, error)
}

type synthesizeAnswerUsecase struct {
	llm           domain.LLMClient
	promptBuilder PromptBuilder
}

// NewSynthesizeAnswerUsecase wires the synthesis stage.
func NewSynthesizeAnswerUsecase(llm domain.LLMClient, promptBuilder PromptBuilder) SynthesizeAnswerUsecase {
	return &synthesizeAnswerUsecase{llm: llm, promptBuilder: promptBuilder}
}

func (u *synthesizeAnswerUsecase) Synthesize(ctx context.Context, in SynthesizeInput) (*SynthesizeOutput, error) {
	out := &SynthesizeOutput{
		Sources:   buildSources(in.Retrieval),
		FollowUps: buildFollowUps(in.SalesIntent, in.Retrieval.Quality.Confidence),
	}

	messages := u.buildMessages(in)
	res, err := u.llm.Chat(ctx, messages, domain.ChatOptions{
		Model:       in.Selection.Model,
		MaxTokens:   in.Selection.MaxTokens,
		Temperature: in.Selection.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("answer generation: %w", err)
	}
	out.Usage.Add(res.Usage)

	answer := strings.TrimSpace(res.Text)
	if answer == "" {
		slog.Warn("synthesis_empty_generation", slog.String("model", in.Selection.Model))
		out.Answer = msgEmptyGeneration
		out.Score = EvaluateQuality(out.Answer, evalInput(in))
		return out, nil
	}

	score := EvaluateQuality(answer, evalInput(in))
	if score.NeedsRefinement() {
		answer, score = u.refine(ctx, in, messages, answer, score, out)
	}

	out.Answer = answer
	out.Score = score
	return out, nil
}

// refine runs the single allowed refinement pass. Any failure keeps the
// original answer and score.
func (u *synthesizeAnswerUsecase) refine(
	ctx context.Context,
	in SynthesizeInput,
	messages []domain.ChatMessage,
	answer string,
	score domain.QualityScore,
	out *SynthesizeOutput,
) (string, domain.QualityScore) {
	instruction := BuildRefinementInstruction(score, in.Entity)
	refineMessages := append(append([]domain.ChatMessage{}, messages...),
		domain.ChatMessage{Role: "assistant", Content: answer},
		domain.ChatMessage{Role: "user", Content: instruction},
	)

	maxTokens := in.Selection.MaxTokens
	if maxTokens > refinementMaxTokens {
		maxTokens = refinementMaxTokens
	}
	if maxTokens < refinementMinTokens {
		maxTokens = refinementMinTokens
	}

	res, err := u.llm.Chat(ctx, refineMessages, domain.ChatOptions{
		Model:       in.Selection.Model,
		MaxTokens:   maxTokens,
		Temperature: refinementTemperature,
	})
	if err != nil || res == nil || strings.TrimSpace(res.Text) == "" {
		if err != nil {
			slog.Warn("refinement_failed", slog.String("error", err.Error()))
		}
		return answer, score
	}
	out.Usage.Add(res.Usage)
	out.Refined = true

	refined := strings.TrimSpace(res.Text)
	refinedScore := EvaluateQuality(refined, evalInput(in))
	slog.Info("answer_refined",
		slog.Float64("before", score.WeightedTotal),
		slog.Float64("after", refinedScore.WeightedTotal))
	return refined, refinedScore
}

func evalInput(in SynthesizeInput) EvalInput {
	return EvalInput{Entity: in.Entity, Mode: in.Mode, ResponseType: in.ResponseType}
}

func (u *synthesizeAnswerUsecase) buildMessages(in SynthesizeInput) []domain.ChatMessage {
	system := u.promptBuilder.BuildSystemPrompt(in.Role, in.IsFollowUp, in.IsClarification)
	system += fmt.Sprintf("\n[%d chunks from %d doc(s), confidence: %d%%]",
		in.Retrieval.Quality.TotalChunks, in.Retrieval.Quality.TotalDocs, in.Retrieval.Quality.Confidence)

	messages := []domain.ChatMessage{{Role: "system", Content: system}}

	history := in.History
	if len(history) > historyTurnsInPrompt {
		history = history[len(history)-historyTurnsInPrompt:]
	}
	for _, turn := range history {
		role := turn.Role
		if role != "assistant" {
			role = "user"
		}
		messages = append(messages, domain.ChatMessage{Role: role, Content: turn.Content})
	}

	user := u.promptBuilder.BuildUserPrompt(PromptInput{
		Question:         in.Question,
		Role:             in.Role,
		ResponseType:     in.ResponseType,
		Mode:             in.Mode,
		CoreFear:         in.CoreFear,
		SelectedSolution: in.SelectedSolution,
		Retrieval:        in.Retrieval,
	})
	if snippet := extractProofSnippet(in.Retrieval); snippet != "" &&
		(in.ResponseType == ResponseProofStory || in.ResponseType == ResponseSalesRecommendation) {
		user += "\n\n## PROOF SNIPPET\n" + snippet
	}
	messages = append(messages, domain.ChatMessage{Role: "user", Content: user})
	return messages
}

var (
	proofDomains   = []string{"fintech", "health", "healthcare", "bfsi", "bank", "finance", "saas"}
	proofScaleRe   = regexp.MustCompile(`\d[\d,\.]*\s*(users|customers|transactions|tests|nodes|endpoints|devices)`)
	proofProblems  = []string{"bug", "crash", "flaky", "failure", "downtime", "compliance", "slow", "latency"}
	proofOutcomeRe = regexp.MustCompile(`(\d+(?:\.\d+)?%\s*(?:reduction|decrease|improvement|faster|fewer)|zero\s+breach)`)
)

// extractProofSnippet mines the retrieved chunks for the strongest
// domain/scale/problem/outcome evidence line.
func extractProofSnippet(r *domain.RetrievalResult) string {
	var dom, scale, problem, outcome string
	var titles []string
	seenTitles := map[string]struct{}{}

	for _, c := range r.Chunks {
		text := strings.ToLower(c.Text)
		if dom == "" {
			for _, d := range proofDomains {
				if strings.Contains(text, d) {
					dom = d
					break
				}
			}
		}
		if scale == "" {
			if m := proofScaleRe.FindString(text); m != "" {
				scale = m
			}
		}
		if problem == "" {
			for _, p := range proofProblems {
				if strings.Contains(text, p) {
					problem = p
					break
				}
			}
		}
		if outcome == "" {
			if m := proofOutcomeRe.FindString(text); m != "" {
				outcome = m
			}
		}
		if _, seen := seenTitles[c.Title]; !seen && len(titles) < 2 {
			seenTitles[c.Title] = struct{}{}
			titles = append(titles, domain.HumanizeTitle(c.Title))
		}
	}

	if dom == "" && scale == "" && outcome == "" {
		return ""
	}
	var parts []string
	if dom != "" {
		parts = append(parts, "Domain: "+dom)
	}
	if scale != "" {
		parts = append(parts, "Scale: "+scale)
	}
	if problem != "" {
		parts = append(parts, "Problem: "+problem)
	}
	if outcome != "" {
		parts = append(parts, "Outcome: "+outcome)
	}
	snippet := strings.Join(parts, " | ")
	if len(titles) > 0 {
		snippet += "\nSource(s): " + strings.Join(titles, ", ")
	}
	return snippet
}

func buildSources(r *domain.RetrievalResult) []string {
	var sources []string
	seen := map[string]struct{}{}
	for _, d := range r.Documents {
		title := domain.HumanizeTitle(d.Title)
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		sources = append(sources, title)
		if len(sources) == maxSources {
			break
		}
	}
	return sources
}

var followUpTemplates = map[string][]string{
	"Discovery": {
		"Want a checklist of what we'd need to scope this?",
		"Should we set up a short pilot to validate the fit?",
	},
	"Solutioning": {
		"Want me to go deeper on how the engagement would run week by week?",
	},
	"Decision": {
		"Want me to pull together pricing and timeline options?",
	},
}

const lowConfidenceFollowUp = "Want me to dig deeper into the source documents on this?"

func buildFollowUps(salesIntent string, confidence int) []string {
	var out []string
	if confidence < lowConfidenceBar {
		out = append(out, lowConfidenceFollowUp)
	}
	out = append(out, followUpTemplates[salesIntent]...)

	var deduped []string
	seen := map[string]struct{}{}
	for _, f := range out {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		deduped = append(deduped, f)
		if len(deduped) == maxFollowUps {
			break
		}
	}
	return deduped
}

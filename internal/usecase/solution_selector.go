package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"answer-pipeline/internal/domain"
)

// SolutionSelector picks the single offering the answer is allowed to pitch.
// Extract and brief answers skip the stage entirely; any LLM problem falls
// back to the deterministic keyword heuristic.
type SolutionSelector interface {
	SelectSolution(ctx context.Context, question string, mode domain.AnswerMode) (name, reasoning string, usage domain.TokenUsage)
}

type solutionSelector struct {
	llm       domain.LLMClient
	miniModel string
}

// NewSolutionSelector builds the selector on the given LLM client.
func NewSolutionSelector(llm domain.LLMClient, miniModel string) SolutionSelector {
	return &solutionSelector{llm: llm, miniModel: miniModel}
}

type solutionLLMOutput struct {
	Solution  string `json:"solution"`
	Reasoning string `json:"reasoning"`
}

func (s *solutionSelector) SelectSolution(ctx context.Context, question string, mode domain.AnswerMode) (string, string, domain.TokenUsage) {
	if mode == domain.ModeExtract || mode == domain.ModeBrief {
		return "", "", domain.TokenUsage{}
	}

	messages := []domain.ChatMessage{
		{Role: "system", Content: buildSolutionSelectorPrompt()},
		{Role: "user", Content: "Question: " + question},
	}
	res, err := s.llm.Chat(ctx, messages, domain.ChatOptions{
		Model:       s.miniModel,
		MaxTokens:   200,
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil || res == nil || strings.TrimSpace(res.Text) == "" {
		if err != nil {
			slog.Warn("solution_selector_failed", slog.String("error", err.Error()))
		}
		return domain.RecommendSolution(question), "keyword fallback", domain.TokenUsage{}
	}

	var out solutionLLMOutput
	if err := json.Unmarshal([]byte(res.Text), &out); err != nil {
		slog.Warn("solution_selector_malformed", slog.String("error", err.Error()))
		return domain.RecommendSolution(question), "keyword fallback", res.Usage
	}

	if name := normalizeSolutionName(out.Solution); name != "" {
		return name, out.Reasoning, res.Usage
	}
	return domain.RecommendSolution(question), "keyword fallback", res.Usage
}

// normalizeSolutionName maps free-form model output back onto a catalog
// entry by case-insensitive substring, or "" when nothing matches.
func normalizeSolutionName(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" || lowered == "none" {
		return ""
	}
	for _, info := range domain.SolutionCatalog {
		if strings.Contains(lowered, strings.ToLower(info.Name)) {
			return info.Name
		}
	}
	return ""
}

func buildSolutionSelectorPrompt() string {
	var b strings.Builder
	b.WriteString("Pick the single offering that best addresses the prospect's question, or \"none\".\n\nOfferings:\n")
	for _, info := range domain.SolutionCatalog {
		fmt.Fprintf(&b, "- %s\n  Scope: %s\n  Constraints: %s\n  Not for: %s\n",
			info.Name, info.Scope, info.Constraints, info.NotFor)
	}
	b.WriteString("\nRespond with a single JSON object: {\"solution\": \"...\", \"reasoning\": \"...\"}")
	return b.String()
}

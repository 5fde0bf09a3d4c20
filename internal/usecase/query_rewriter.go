package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"answer-pipeline/internal/domain"
)

// RewriteInput feeds the collection-selection call.
type RewriteInput struct {
	Question   string
	Categories []domain.Category
	History    []domain.ConversationTurn
	Mode       domain.AnswerMode
}

// RewriteResult is the (possibly fallback) outcome of the rewrite step.
type RewriteResult struct {
	SelectedCollections []string
	RefinedQuestion     string
	Mode                domain.AnswerMode
	Proceed             bool
	DirectAnswer        string
	UsedFallback        bool
	Usage               domain.TokenUsage
}

// QueryRewriter asks the mini model to refine the question and pick the
// collections worth searching. It never fails the pipeline: any LLM problem
// degrades to searching every collection.
type QueryRewriter interface {
	RewriteAndSelect(ctx context.Context, in RewriteInput) RewriteResult
}

type queryRewriter struct {
	llm       domain.LLMClient
	miniModel string
}

// NewQueryRewriter builds the rewrite step on the given LLM client.
func NewQueryRewriter(llm domain.LLMClient, miniModel string) QueryRewriter {
	return &queryRewriter{llm: llm, miniModel: miniModel}
}

// Collections excluded from selection: the master index is searched
// separately and must not be offered to the model.
const masterCollection = "master_docs"

const noCategoriesMessage = "No categories are available in the knowledge base yet, so I can't route your question. Please try again once documents have been indexed."

type rewriteLLMOutput struct {
	SelectedCollections []string    `json:"selected_collections"`
	RefinedQuestion     string      `json:"refined_question"`
	AnswerMode          string      `json:"answer_mode"`
	Reasoning           string      `json:"reasoning"`
	ProceedToStep2      interface{} `json:"proceed_to_step2"`
	DirectAnswer        string      `json:"direct_answer"`
}

func (r *queryRewriter) RewriteAndSelect(ctx context.Context, in RewriteInput) RewriteResult {
	if len(in.Categories) == 0 {
		return RewriteResult{
			RefinedQuestion: in.Question,
			Mode:            in.Mode,
			Proceed:         false,
			DirectAnswer:    noCategoriesMessage,
		}
	}

	messages := r.buildMessages(in)
	opts := domain.ChatOptions{
		Model:       r.miniModel,
		MaxTokens:   rewriteTokenBudget(in),
		Temperature: 0.2,
		JSONMode:    true,
	}

	res, err := r.llm.Chat(ctx, messages, opts)
	if err != nil {
		slog.Warn("rewrite_llm_failed", slog.String("error", err.Error()))
		return r.fallback(in, domain.TokenUsage{})
	}
	if res == nil || strings.TrimSpace(res.Text) == "" {
		slog.Warn("rewrite_llm_empty")
		return r.fallback(in, domain.TokenUsage{})
	}

	var out rewriteLLMOutput
	if err := json.Unmarshal([]byte(res.Text), &out); err != nil {
		slog.Warn("rewrite_llm_malformed", slog.String("error", err.Error()))
		return r.fallback(in, res.Usage)
	}

	result := RewriteResult{
		RefinedQuestion: in.Question,
		Mode:            in.Mode,
		Proceed:         true,
		Usage:           res.Usage,
	}

	result.SelectedCollections = r.validateSelections(out.SelectedCollections, in.Categories)
	if len(result.SelectedCollections) == 0 {
		// A selection that validated down to nothing is as bad as no answer.
		return r.fallback(in, res.Usage)
	}

	if refined := strings.TrimSpace(out.RefinedQuestion); refined != "" {
		result.RefinedQuestion = refined
	}
	if domain.ValidAnswerMode(out.AnswerMode) {
		result.Mode = domain.AnswerMode(out.AnswerMode)
	}

	if !proceedValue(out.ProceedToStep2) {
		result.Proceed = false
		result.DirectAnswer = strings.TrimSpace(out.DirectAnswer)
	}

	return result
}

// fallback searches every collection rather than failing the request.
func (r *queryRewriter) fallback(in RewriteInput, usage domain.TokenUsage) RewriteResult {
	names := make([]string, 0, len(in.Categories))
	for _, c := range in.Categories {
		if domain.NormalizeCollectionName(c.Name) == masterCollection {
			continue
		}
		names = append(names, c.Name)
	}
	slog.Info("rewrite_fallback_applied", slog.Int("collections", len(names)))
	return RewriteResult{
		SelectedCollections: names,
		RefinedQuestion:     in.Question,
		Mode:                in.Mode,
		Proceed:             true,
		UsedFallback:        true,
		Usage:               usage,
	}
}

func (r *queryRewriter) validateSelections(selected []string, categories []domain.Category) []string {
	exact := make(map[string]string, len(categories))
	normalized := make(map[string]string, len(categories))
	for _, c := range categories {
		exact[c.Name] = c.Name
		normalized[domain.NormalizeCollectionName(c.Name)] = c.Name
	}

	var valid []string
	seen := map[string]struct{}{}
	for _, s := range selected {
		if domain.NormalizeCollectionName(s) == masterCollection {
			continue
		}
		name, ok := exact[s]
		if !ok {
			name, ok = normalized[domain.NormalizeCollectionName(s)]
		}
		if !ok {
			slog.Warn("rewrite_unknown_collection_dropped", slog.String("name", s))
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		valid = append(valid, name)
	}
	return valid
}

// proceedValue interprets the model's proceed flag. JSON mode does not
// stop models from answering with strings or numbers.
func proceedValue(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "false", "no", "0":
			return false
		}
		return true
	case float64:
		return t != 0
	default:
		return true
	}
}

func rewriteTokenBudget(in RewriteInput) int {
	budget := 400
	budget += min(len(in.Categories)*30, 500)
	budget += min(len(in.Question)/30, 300)
	budget += min(len(in.History)*40, 200)
	if budget < 500 {
		budget = 500
	}
	if budget > 4096 {
		budget = 4096
	}
	return budget
}

func (r *queryRewriter) buildMessages(in RewriteInput) []domain.ChatMessage {
	var b strings.Builder
	b.WriteString("You route questions about a sales document knowledge base.\n")
	b.WriteString("Available collections:\n")
	for _, c := range in.Categories {
		if domain.NormalizeCollectionName(c.Name) == masterCollection {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s (%d documents)\n", c.Name, c.Description, c.DocCount)
	}
	b.WriteString("\nRespond with a single JSON object:\n")
	b.WriteString(`{"selected_collections": ["..."], "refined_question": "...", "answer_mode": "extract|brief|summarize|explain", "reasoning": "...", "proceed_to_step2": true, "direct_answer": ""}`)
	b.WriteString("\nRules: select between 1 and 3 collections, prefer fewer. ")
	b.WriteString("Set proceed_to_step2 to false only when the question needs no document content, and put your reply in direct_answer.")

	messages := []domain.ChatMessage{{Role: "system", Content: b.String()}}

	history := in.History
	if len(history) > 3 {
		history = history[len(history)-3:]
	}
	if len(history) > 0 {
		var hb strings.Builder
		hb.WriteString("Recent conversation:\n")
		for _, turn := range history {
			fmt.Fprintf(&hb, "%s: %s\n", turn.Role, turn.Content)
		}
		messages = append(messages, domain.ChatMessage{Role: "user", Content: hb.String()})
	}

	messages = append(messages, domain.ChatMessage{Role: "user", Content: "Question: " + in.Question})
	return messages
}

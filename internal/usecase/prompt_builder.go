package usecase

import (
	"fmt"
	"strings"

	"answer-pipeline/internal/domain"
)

// ResponseType shapes the structure the answer must follow.
type ResponseType string

const (
	ResponseSalesRecommendation ResponseType = "SALES_RECOMMENDATION"
	ResponseProofStory          ResponseType = "PROOF_STORY"
	ResponseObjectionHandling   ResponseType = "OBJECTION_HANDLING"
	ResponseExplanation         ResponseType = "EXPLANATION"
	ResponseComparison          ResponseType = "COMPARISON"
	ResponseEndToEndStory       ResponseType = "END_TO_END_STORY"
)

// Advisor roles the system prompt can take.
const (
	RoleSales    = "Sales"
	RolePreSales = "Pre-Sales"
)

// BannedPhrases leak the retrieval machinery into the answer and fail the
// accuracy check.
var BannedPhrases = []string{
	"According to",
	"The document says",
	"as per the document",
}

// SelectRole picks the advisor persona from the sales intent.
func SelectRole(salesIntent string) string {
	if salesIntent == "Proof" {
		return RolePreSales
	}
	return RoleSales
}

// SelectResponseType picks the answer structure from intent and phrasing.
func SelectResponseType(salesIntent, question string) ResponseType {
	q := strings.ToLower(question)
	switch {
	case salesIntent == "Objection":
		return ResponseObjectionHandling
	case strings.Contains(q, "compare") || strings.Contains(q, " vs "):
		return ResponseComparison
	case salesIntent == "Proof":
		return ResponseProofStory
	case salesIntent != "":
		return ResponseSalesRecommendation
	default:
		return ResponseExplanation
	}
}

// PromptInput is everything the synthesis prompt is assembled from.
type PromptInput struct {
	Question         string
	Role             string
	ResponseType     ResponseType
	Mode             domain.AnswerMode
	CoreFear         string
	SelectedSolution string
	Retrieval        *domain.RetrievalResult
}

// PromptBuilder assembles the synthesis prompt.
type PromptBuilder interface {
	BuildSystemPrompt(role string, isFollowUp, isClarification bool) string
	BuildUserPrompt(in PromptInput) string
}

type promptBuilder struct{}

// NewPromptBuilder returns the standard prompt assembly.
func NewPromptBuilder() PromptBuilder {
	return &promptBuilder{}
}

func (p *promptBuilder) BuildSystemPrompt(role string, isFollowUp, isClarification bool) string {
	var b strings.Builder
	if role == RolePreSales {
		b.WriteString("You are a Senior Pre-Sales Engineer. You back every claim with concrete evidence from the provided material and translate it into business outcomes.")
	} else {
		b.WriteString("You are a Senior Sales Advisor. You turn the provided material into confident, outcome-focused guidance a prospect can act on.")
	}
	if isFollowUp {
		b.WriteString(" This is a follow-up: build on the prior exchange instead of repeating it.")
	}
	if isClarification {
		b.WriteString(" The user is asking for clarification: restate the earlier point more plainly before adding anything new.")
	}
	return b.String()
}

func (p *promptBuilder) BuildUserPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString(buildPromptHeader(in))
	b.WriteString("\n")
	b.WriteString(buildBehavioralDirectives(in.CoreFear))
	b.WriteString("\n")
	b.WriteString(buildContextBlocks(in))
	b.WriteString("\n")
	b.WriteString(modeInstructions(in.Mode, in.ResponseType))
	if in.SelectedSolution != "" {
		fmt.Fprintf(&b, "\n\nYou must recommend only **%s** as the offering. Do not pitch any other offering even if the material mentions one.", in.SelectedSolution)
	}
	b.WriteString("\n\n")
	b.WriteString(qualitySelfEvalChecklist)
	return b.String()
}

func buildPromptHeader(in PromptInput) string {
	var b strings.Builder
	b.WriteString("## QUESTION TYPE\n")
	fmt.Fprintf(&b, "Answer mode: %s\n", in.Mode)
	b.WriteString("## ROLE\n")
	fmt.Fprintf(&b, "%s\n", in.Role)
	b.WriteString("## RESPONSE TYPE\n")
	fmt.Fprintf(&b, "%s\n", in.ResponseType)
	if in.CoreFear != "" {
		b.WriteString("## CORE CONCERN\n")
		fmt.Fprintf(&b, "The prospect's underlying concern is %s.\n", in.CoreFear)
	}
	return b.String()
}

func buildBehavioralDirectives(coreFear string) string {
	var b strings.Builder
	b.WriteString("## DIRECTIVES\n")
	if coreFear != "" {
		fmt.Fprintf(&b, "- Address the prospect's %s concern before anything else.\n", coreFear)
	}
	b.WriteString("- Lead with the outcome, not the feature.\n")
	b.WriteString("- Ground every number and claim in the source material below.\n")
	b.WriteString("- Name the source document on a Source: line at the end.\n")
	b.WriteString("- Speak from experience (\"we have seen\", \"typically\"), never from the documents' point of view.\n")
	b.WriteString("- Never use the phrases: " + strings.Join(BannedPhrases, "; ") + ".\n")
	b.WriteString("- No hedging. If the material does not support a claim, leave the claim out.\n")
	b.WriteString("- Keep bullet lists short; prose carries the argument.\n")
	b.WriteString("- End with a concrete next step the prospect can take.\n")
	return b.String()
}

func buildContextBlocks(in PromptInput) string {
	var b strings.Builder
	r := in.Retrieval

	b.WriteString("## DATA QUALITY\n")
	fmt.Fprintf(&b, "%s\n", qualityWarning(r.Quality))

	b.WriteString("## DOCUMENT SUMMARIES\n")
	b.WriteString(r.EncodedSummaries)
	b.WriteString("## DOCUMENT CHUNKS\n")
	b.WriteString("Your ONLY source material:\n")
	b.WriteString(r.EncodedChunks)
	b.WriteString("## USER QUESTION\n")
	b.WriteString(in.Question)
	b.WriteString("\n")
	return b.String()
}

func qualityWarning(q domain.DataQuality) string {
	var banner string
	switch q.Tier {
	case domain.QualityExcellent:
		banner = "RICH DATA: the material covers the question thoroughly. Answer with full confidence."
	case domain.QualityGood:
		banner = "SOLID DATA: the material covers the question well. Answer directly."
	case domain.QualitySufficient:
		banner = "ADEQUATE DATA: the material covers the core of the question. Stay close to it."
	default:
		banner = "LIMITED DATA: the material is thin. Answer only what it supports and say what is missing."
	}
	switch q.Relevance {
	case domain.RelevanceLow:
		banner += " Relevance is low; double-check each chunk actually addresses the question."
	case domain.RelevanceVeryLow:
		banner += " Relevance is very low; most chunks may be off-topic."
	}
	return banner
}

func modeInstructions(mode domain.AnswerMode, rt ResponseType) string {
	var b strings.Builder
	b.WriteString("## ANSWER INSTRUCTIONS\n")
	switch mode {
	case domain.ModeExtract:
		b.WriteString("Return the specific figure or fact asked for, with one sentence of context.")
	case domain.ModeBrief:
		b.WriteString("Answer in two or three sentences. Yes/no first, evidence second.")
	case domain.ModeSummarize:
		b.WriteString("Summarize the relevant material in a short structured overview.")
	default:
		b.WriteString("Explain fully: situation, what was done, and the measurable outcome.")
	}
	b.WriteString("\n")
	switch rt {
	case ResponseSalesRecommendation:
		b.WriteString("Structure the answer as **Recommendation**, **Why**, **How**, **Proof** sections and close with a call to action.")
	case ResponseProofStory:
		b.WriteString("Tell it as a customer story: the problem, the intervention, the measured result, the source.")
	case ResponseObjectionHandling:
		b.WriteString("Acknowledge the concern, reframe it with evidence, and offer a low-risk next step.")
	case ResponseComparison:
		b.WriteString("Compare the options on the dimensions the prospect cares about, then state a clear pick.")
	case ResponseEndToEndStory:
		b.WriteString("Walk the full engagement from first contact to outcome.")
	default:
		b.WriteString("Explain plainly; structure only where it helps comprehension.")
	}
	return b.String()
}

const qualitySelfEvalChecklist = `## BEFORE YOU ANSWER
Check your draft against:
1. Every claim is grounded in the chunks above.
2. The named entity, if any, is addressed explicitly.
3. The required sections are present.
4. A Source: line names the document(s) used.
5. No banned phrases, no hedging.`

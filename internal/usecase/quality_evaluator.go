package usecase

import (
	"strings"

	"answer-pipeline/internal/domain"
)

// Deterministic answer rubric. Five factors scored 0-5, combined with
// weights 5/5/4/3/3 into a total out of 20. Totals below 12 trigger the
// single refinement pass.

var experiencePhrases = []string{
	"we have seen", "in our experience", "typically", "we recommend",
}

var hedgingPhrases = []string{
	"i think", "it might be", "perhaps", "it seems",
}

var ctaPhrases = []string{
	"next step", "schedule a", "book a", "reach out", "let's set up", "happy to walk you",
}

var salesSections = []string{"recommendation", "why", "how", "proof"}

// EvalInput carries the request facts the rubric needs besides the answer.
type EvalInput struct {
	Entity       string
	Mode         domain.AnswerMode
	ResponseType ResponseType
}

// EvaluateQuality scores the answer against the rubric.
func EvaluateQuality(answer string, in EvalInput) domain.QualityScore {
	lowered := strings.ToLower(answer)

	accuracy := 5
	if containsBannedPhrase(lowered) {
		accuracy--
	}
	if !strings.Contains(lowered, "source:") {
		accuracy--
	}

	relevancy := 4
	if in.Entity != "" && !strings.Contains(lowered, strings.ToLower(in.Entity)) {
		relevancy--
	}

	completeness := 3
	if in.ResponseType == ResponseSalesRecommendation {
		found := 0
		for _, section := range salesSections {
			if strings.Contains(lowered, section) {
				found++
			}
		}
		switch {
		case found >= 3:
			completeness = 5
		case found >= 2:
			completeness = 4
		default:
			completeness = 2
		}
	}
	if containsAnyPhrase(lowered, ctaPhrases) && completeness < 5 {
		completeness++
	}

	clarity := 4
	if countBulletLines(answer) > 6 {
		clarity--
	}
	if in.Mode == domain.ModeBrief && len(strings.Fields(answer)) > 100 {
		clarity--
	}

	maturity := 3
	if containsAnyPhrase(lowered, experiencePhrases) {
		maturity++
	}
	if containsBannedPhrase(lowered) {
		maturity--
	}
	if containsAnyPhrase(lowered, hedgingPhrases) {
		maturity--
	}
	if maturity < 0 {
		maturity = 0
	}
	if maturity > 5 {
		maturity = 5
	}

	score := domain.QualityScore{
		Accuracy:      accuracy,
		Relevancy:     relevancy,
		Completeness:  completeness,
		Clarity:       clarity,
		SalesMaturity: maturity,
	}
	score.WeightedTotal = float64(5*accuracy+5*relevancy+4*completeness+3*clarity+3*maturity) / 5
	return score
}

// BuildRefinementInstruction turns the failed rubric factors into a
// targeted rewrite instruction for the refinement pass.
func BuildRefinementInstruction(score domain.QualityScore, entity string) string {
	var lines []string
	if score.Accuracy < 4 {
		lines = append(lines, "Remove any phrasing that references the documents themselves and end with a Source: line naming the document used.")
	}
	if score.Relevancy < 4 && entity != "" {
		lines = append(lines, "Address "+entity+" explicitly; the answer never mentions it.")
	}
	if score.Completeness < 4 {
		lines = append(lines, "Add the missing structure: Recommendation, Why, How, and Proof, and close with a call to action.")
	}
	if score.Clarity < 4 {
		lines = append(lines, "Tighten the answer: fewer bullets, shorter sentences, no repetition.")
	}
	if score.SalesMaturity < 3 {
		lines = append(lines, "Speak from experience and drop all hedging language.")
	}
	if len(lines) == 0 {
		lines = append(lines, "Improve the answer's grounding and directness without changing its meaning.")
	}
	return "Rewrite your previous answer with these corrections:\n- " + strings.Join(lines, "\n- ")
}

func containsBannedPhrase(lowered string) bool {
	for _, p := range BannedPhrases {
		if strings.Contains(lowered, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func containsAnyPhrase(lowered string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

func countBulletLines(answer string) int {
	n := 0
	for _, line := range strings.Split(answer, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") || strings.HasPrefix(trimmed, "• ") {
			n++
		}
	}
	return n
}

package domain

import "strings"

// SolutionInfo describes one offering in the catalog: what it is for, what
// it assumes, and where it must not be pitched.
type SolutionInfo struct {
	Name        string
	Scope       string
	Constraints string
	NotFor      string
}

// solutionOrder fixes the evaluation order for keyword recommendation so
// results are deterministic regardless of map iteration.
var solutionOrder = []string{"BugBuster", "Fastrack Automation", "QA Ownership", "MoolyAImpact"}

var solutionKeywords = map[string][]string{
	"BugBuster": {
		"production bug", "production bugs", "hotfix", "stabilize", "stability",
		"crash", "urgent", "emergency", "customer complaint", "customer complaints",
		"critical defect",
	},
	"Fastrack Automation": {
		"flaky test", "flaky tests", "flaky", "automation", "ci/cd",
		"regression time", "slow release", "speed up", "pipeline", "ci", "cd",
		"test suite",
	},
	"QA Ownership": {
		"hiring", "team size", "resource crunch", "manage qa", "qa ownership",
		"outsourcing", "take ownership", "scale team",
	},
	"MoolyAImpact": {
		"process", "audit", "strategy", "transformation", "ai adoption",
		"what should we do", "consulting", "process chaos", "modernize",
		"strategy advice",
	},
}

// SolutionCatalog is the metadata rendered into the solution-selector prompt.
var SolutionCatalog = []SolutionInfo{
	{
		Name:        "BugBuster",
		Scope:       "Rapid stabilization squad for production-critical defects and firefighting.",
		Constraints: "Short engagements, needs direct access to the defect backlog.",
		NotFor:      "Long-term process change or test automation buildout.",
	},
	{
		Name:        "Fastrack Automation",
		Scope:       "Test automation and CI/CD acceleration to shrink regression cycles.",
		Constraints: "Assumes an existing pipeline and a testable application surface.",
		NotFor:      "Teams without any automation appetite or throwaway prototypes.",
	},
	{
		Name:        "QA Ownership",
		Scope:       "Managed QA team that takes end-to-end ownership of quality.",
		Constraints: "Needs a multi-month commitment and product context transfer.",
		NotFor:      "One-off audits or single-sprint firefighting.",
	},
	{
		Name:        "MoolyAImpact",
		Scope:       "Consulting on QA process, strategy, and AI adoption.",
		Constraints: "Advisory output; execution capacity is contracted separately.",
		NotFor:      "Hands-on defect fixing or staffing gaps.",
	},
}

// RecommendSolution returns the first catalog entry whose keywords appear in
// the question, or "" when none matches.
func RecommendSolution(question string) string {
	return MatchSolutionKeywords(question)
}

// MatchSolutionKeywords matches the question against the per-solution
// keyword sets in a fixed order. Short tokens like "ci" are matched on word
// boundaries so they do not fire inside unrelated words.
func MatchSolutionKeywords(text string) string {
	q := strings.ToLower(text)
	for _, name := range solutionOrder {
		for _, kw := range solutionKeywords[name] {
			if matchKeyword(q, kw) {
				return name
			}
		}
	}
	return ""
}

func matchKeyword(q, kw string) bool {
	if len(kw) > 3 {
		return strings.Contains(q, kw)
	}
	for _, tok := range strings.Fields(q) {
		if strings.Trim(tok, ".,!?:;()\"'") == kw {
			return true
		}
	}
	return false
}

// Fixed objection playbook. Each entry answers a recognized pushback with a
// Recommendation / Why / How / Proof block so the reply stays on message
// without an LLM round trip.
const (
	objectionPriceAnswer = "**Recommendation:** Start with a scoped BugBuster engagement instead of a full program.\n" +
		"**Why:** It caps spend while proving value on the defects that hurt you today.\n" +
		"**How:** Two-week stabilization sprint with a fixed price and an exit report.\n" +
		"**Proof:** Teams typically recover the engagement cost within the first release cycle."

	objectionCompetitorAnswer = "**Recommendation:** Run a side-by-side pilot before committing either way.\n" +
		"**Why:** Vendor claims converge; measured outcomes on your codebase do not.\n" +
		"**How:** Same backlog slice, same two weeks, compare defect closure and regression time.\n" +
		"**Proof:** We publish the pilot metrics whether we win or lose."

	objectionDIYAnswer = "**Recommendation:** Keep ownership in-house and bring us in for the setup phase only.\n" +
		"**Why:** The expensive part is the first ninety days of tooling and process decisions.\n" +
		"**How:** We co-build with your engineers and hand over runbooks, not dependencies.\n" +
		"**Proof:** Handover-first engagements are our default model, not the exception."
)

var objectionTriggers = []struct {
	answer string
	words  []string
}{
	{objectionPriceAnswer, []string{"too expensive", "cheaper", "cost too much", "over budget", "price is high"}},
	{objectionCompetitorAnswer, []string{"competitor", "other vendor", "another vendor", "why you over"}},
	{objectionDIYAnswer, []string{"build it ourselves", "do it in-house", "do it ourselves", "hire our own"}},
}

// HandleObjection returns the canned playbook answer for a recognized
// objection, or "" when the question does not match one.
func HandleObjection(question string) string {
	q := strings.ToLower(question)
	for _, t := range objectionTriggers {
		for _, w := range t.words {
			if strings.Contains(q, w) {
				return t.answer
			}
		}
	}
	return ""
}

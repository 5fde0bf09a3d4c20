package domain

import (
	"regexp"
	"strings"
)

// AnswerMode controls how much material is retrieved and how the final
// answer is shaped.
type AnswerMode string

const (
	ModeExtract   AnswerMode = "extract"
	ModeBrief     AnswerMode = "brief"
	ModeSummarize AnswerMode = "summarize"
	ModeExplain   AnswerMode = "explain"
)

// ValidAnswerMode reports whether s is one of the four answer modes.
func ValidAnswerMode(s string) bool {
	switch AnswerMode(s) {
	case ModeExtract, ModeBrief, ModeSummarize, ModeExplain:
		return true
	}
	return false
}

// Capitalized tokens that look like entities but are not.
var nonEntities = map[string]struct{}{
	"DR": {}, "QA": {}, "CI": {}, "CD": {}, "API": {}, "AWS": {}, "GCP": {},
	"Azure": {}, "EKS": {}, "The": {}, "This": {}, "That": {}, "What": {},
	"How": {}, "Why": {}, "When": {}, "Where": {}, "Which": {}, "Who": {},
	"Does": {}, "Can": {}, "Show": {}, "List": {}, "Is": {}, "Are": {},
	"Do": {}, "Give": {}, "Tell": {},
}

var (
	possessiveRe  = regexp.MustCompile(`([A-Z][a-zA-Z0-9_\-]+)'s`)
	prepositionRe = regexp.MustCompile(`(?:for|about|in|of|at|from|by)\s+([A-Z][a-zA-Z0-9_\-]+)`)
	capitalizedRe = regexp.MustCompile(`\b([A-Z][a-zA-Z0-9_\-]+)\b`)
	counterRe     = regexp.MustCompile(`\s*\(\d+\)\s*`)
	multiSpaceRe  = regexp.MustCompile(`\s+`)
	fillerRe      = regexp.MustCompile(`(?i)\b(solutions?|presentation|report|updated)\b`)
	extensionRe   = regexp.MustCompile(`(?i)\.(pdf|docx?|pptx?)$`)
)

// ExtractEntity pulls the most likely proper noun out of a question.
// Possessive forms win, then preposition-led names, then any capitalized
// token that is not the first word. Returns "" when nothing qualifies.
func ExtractEntity(question string) string {
	if m := possessiveRe.FindStringSubmatch(question); m != nil {
		if _, skip := nonEntities[m[1]]; !skip {
			return m[1]
		}
	}
	if m := prepositionRe.FindStringSubmatch(question); m != nil {
		if _, skip := nonEntities[m[1]]; !skip {
			return m[1]
		}
	}
	matches := capitalizedRe.FindAllStringSubmatchIndex(question, -1)
	for _, loc := range matches {
		if loc[0] == 0 {
			continue // leading word is capitalized by grammar, not by name
		}
		tok := question[loc[2]:loc[3]]
		if len(tok) <= 2 {
			continue
		}
		if _, skip := nonEntities[tok]; skip {
			continue
		}
		return tok
	}
	return ""
}

// Known product names whose canonical casing is lost in filenames.
var brandCasing = map[string]string{
	"bugbuster":           "BugBuster",
	"fastrack automation": "Fastrack Automation",
	"codeprobe":           "CodeProbe",
	"moolyaimpact":        "MoolyAImpact",
	"continuouscare":      "ContinuousCare",
}

// HumanizeTitle turns a stored filename-ish title into a display title.
func HumanizeTitle(raw string) string {
	t := extensionRe.ReplaceAllString(raw, "")
	t = strings.ReplaceAll(t, "_", " ")
	t = fillerRe.ReplaceAllString(t, "")
	t = counterRe.ReplaceAllString(t, " ")
	t = strings.TrimSpace(multiSpaceRe.ReplaceAllString(t, " "))
	if canonical, ok := brandCasing[strings.ToLower(t)]; ok {
		return canonical
	}
	return t
}

// NormalizeCollectionName lower-cases and underscores a collection name so
// LLM-returned names can be matched against registry names.
func NormalizeCollectionName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, " ", "_")
	n = strings.ReplaceAll(n, "-", "_")
	return n
}

// InferDocTypeFromQuestion guesses the preferred document type, or "".
func InferDocTypeFromQuestion(question string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "case stud") || strings.Contains(q, "success story"):
		return "case_study"
	case strings.Contains(q, "proposal"):
		return "proposal"
	case strings.Contains(q, "solution") || strings.Contains(q, "service"):
		return "solution"
	}
	return ""
}

var coreFearKeywords = []struct {
	fear  string
	words []string
}{
	{"cost", []string{"expensive", "budget", "cost", "price", "afford", "cheap"}},
	{"speed", []string{"slow", "deadline", "faster", "speed", "time to market", "urgent"}},
	{"risk", []string{"risk", "fail", "security", "compliance", "breach", "outage"}},
	{"scale", []string{"scale", "grow", "volume", "load", "capacity"}},
	{"trust", []string{"trust", "proven", "reliable", "track record", "credib"}},
}

// InferCoreFear detects the buyer concern driving the question, or "".
func InferCoreFear(question string) string {
	q := strings.ToLower(question)
	for _, set := range coreFearKeywords {
		for _, w := range set.words {
			if strings.Contains(q, w) {
				return set.fear
			}
		}
	}
	return ""
}

var (
	extractModeKeywords = []string{
		"what is the", "what's the", "what are the", "how much", "how many",
		"percentage", "number of",
	}
	briefModeKeywords = []string{
		"is there", "do we have", "does it", "can we", "is it possible", "are there",
	}
	summarizeModeKeywords = []string{
		"summarize", "summary", "overview", "list", "outline", "key points",
	}
)

// InferAnswerMode picks the answer mode from the question phrasing.
func InferAnswerMode(question string) AnswerMode {
	q := strings.ToLower(question)
	if containsAny(q, extractModeKeywords) {
		return ModeExtract
	}
	if containsAny(q, briefModeKeywords) {
		return ModeBrief
	}
	if containsAny(q, summarizeModeKeywords) {
		return ModeSummarize
	}
	return ModeExplain
}

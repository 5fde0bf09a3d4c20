package domain

import (
	"regexp"
	"strings"
)

// Rule-based intent classification. The order of the rule blocks matters:
// registry-shaped questions must win before the generic factual triggers so
// that cheap metadata lookups never hit the vector indices.

var (
	listDomainsRe   = regexp.MustCompile(`\b(show|list)\b.+\bdomains?\b`)
	countDomainsRe  = regexp.MustCompile(`\bhow many\b.+\bdomains?\b`)
	existsDomainRe  = regexp.MustCompile(`\b(is there|do we have|are there)\b.+\bdomains?\b`)
	whichDomainsRe  = regexp.MustCompile(`\b(what|which|all)\b.*\bdomains?\b`)
	anyDocumentRe   = regexp.MustCompile(`\bany\b.+\b(document|doc|file|report)s?\b`)
	whichDocsRe     = regexp.MustCompile(`\bwhich\s+documents?\b`)
	domainRelatedRe = regexp.MustCompile(`\bdomains?\s+(related|relevant)\s+to\b`)
	hybridRe        = regexp.MustCompile(`\b(find|show).+\b(and|then)\b.+\b(explain|summarize|describe)\b`)
	domainHintRe    = regexp.MustCompile(`(?:under|in|from|of)\s+(?:the\s+)?(.+?)\s+domain`)
	categoryHintRe  = regexp.MustCompile(`(?:under|in|from|of)\s+(?:the\s+)?(.+?)\s+(?:category|collection)`)
)

var countTriggers = []string{"how many", "count", "number of", "total count", "total number"}

var existenceTriggers = []string{
	"is there", "do we have", "are there", "have any", "got any", "available",
}

var classificationTriggers = []string{
	"which category", "belongs to which", "what category", "categorized as", "classified as",
}

var factualTriggers = []string{
	"percentage", "modules", "roi", "cost", "revenue", "profit",
	"efficiency", "metrics", "analysis", "performance",
}

var greetings = []string{
	"hi", "hello", "hey", "thanks", "thank you", "bye", "goodbye", "ok", "okay",
	"good morning", "good afternoon", "good evening",
}

// Ordered so the first matching phrase wins when a question mentions
// several document kinds.
var docTypeKeywords = []struct {
	phrase  string
	docType string
}{
	{"case studies", "case_study"},
	{"case study", "case_study"},
	{"success story", "case_study"},
	{"proposals", "proposal"},
	{"proposal", "proposal"},
	{"solutions", "solution"},
	{"solution", "solution"},
	{"service", "solution"},
	{"policies", "policy"},
	{"policy", "policy"},
	{"presentations", "presentation"},
	{"presentation", "presentation"},
}

// Sales-intent vocabularies. A match only annotates the decision; it never
// decides the execution path by itself.
var salesIntentKeywords = []struct {
	intent string
	stage  SalesStage
	words  []string
}{
	{"Discovery", StageTop, []string{"pain point", "struggling", "challenge we face", "need help with", "looking for a way"}},
	{"Objection", StageMiddle, []string{"too expensive", "cheaper", "competitor", "why not just", "build it ourselves", "do it in-house", "already have a tool"}},
	{"Proof", StageMiddle, []string{"case study", "success story", "proof", "evidence", "reference customer", "results you achieved"}},
	{"Decision", StageBottom, []string{"pricing", "contract", "proposal for us", "next steps", "timeline to start", "sign"}},
	{"Solutioning", StageMiddle, []string{"how can you", "how would you", "recommend", "your approach", "help us with", "what solution"}},
}

// ClassifyIntent inspects the question and returns the routing decision.
func ClassifyIntent(question string) IntentDecision {
	q := strings.ToLower(strings.TrimSpace(question))
	var d IntentDecision
	d.SalesIntent, d.SalesStage = detectSalesIntent(q)

	isDocQuery := strings.Contains(q, "document") || strings.Contains(q, " doc") ||
		strings.Contains(q, "file") || strings.Contains(q, "report")
	if !isDocQuery {
		for _, kw := range docTypeKeywords {
			if strings.Contains(q, kw.phrase) {
				isDocQuery = true
				break
			}
		}
	}

	switch {
	case !isDocQuery && (listDomainsRe.MatchString(q) || whichDomainsRe.MatchString(q)):
		d.Intent = IntentDomainQuery
	case !isDocQuery && countDomainsRe.MatchString(q):
		d.Intent = IntentDomainQuery
	case !isDocQuery && existsDomainRe.MatchString(q):
		d.Intent = IntentDomainQuery

	case isStructuredCount(q):
		d.Intent = IntentCount
		extractCountHints(q, &d.Hints)

	case isListingQuery(q):
		d.Intent = IntentDocumentListing
		extractCountHints(q, &d.Hints)

	case isConversational(q):
		d.Intent = IntentConversational

	case containsAny(q, factualTriggers):
		d.Intent = IntentFactualContent

	case containsAny(q, countTriggers):
		d.Intent = IntentCount
		extractCountHints(q, &d.Hints)

	case containsAny(q, existenceTriggers) || anyDocumentRe.MatchString(q):
		d.Intent = IntentExistence
		extractExistenceHints(q, &d.Hints)

	case containsAny(q, classificationTriggers):
		d.Intent = IntentClassification
		extractClassificationHints(q, &d.Hints)

	case whichDocsRe.MatchString(q):
		d.Intent = IntentDocumentListing
		extractCountHints(q, &d.Hints)

	case domainRelatedRe.MatchString(q):
		d.Intent = IntentDomainQuery

	case hybridRe.MatchString(q):
		d.Intent = IntentHybrid

	default:
		d.Intent = IntentFactualContent
	}

	d.Attribute = AttributeFor(d.Intent)
	return d
}

func isStructuredCount(q string) bool {
	for _, t := range countTriggers {
		if strings.Contains(q, t) {
			// "how many users does X support" is factual, not a registry count.
			if strings.Contains(q, "document") || strings.Contains(q, "file") ||
				strings.Contains(q, "report") || strings.Contains(q, "case stud") ||
				strings.Contains(q, "proposal") || strings.Contains(q, "propos") {
				return true
			}
		}
	}
	return false
}

func isListingQuery(q string) bool {
	if whichDocsRe.MatchString(q) {
		return true
	}
	hasVerb := strings.Contains(q, "list") || strings.Contains(q, "show")
	hasNoun := strings.Contains(q, "document") || strings.Contains(q, "file") || strings.Contains(q, "report")
	return hasVerb && hasNoun
}

func isConversational(q string) bool {
	if q == "" {
		return true
	}
	words := strings.Fields(q)
	if len(words) <= 1 {
		return true
	}
	trimmed := strings.Trim(q, "!.,?")
	for _, g := range greetings {
		if trimmed == g || strings.HasPrefix(trimmed, g+" ") || strings.HasPrefix(trimmed, g+",") {
			return true
		}
	}
	return false
}

func detectSalesIntent(q string) (string, SalesStage) {
	for _, set := range salesIntentKeywords {
		for _, w := range set.words {
			if strings.Contains(q, w) {
				return set.intent, set.stage
			}
		}
	}
	return "", ""
}

func extractCountHints(q string, hints *QueryHints) {
	hints.DocType = matchDocType(q)
	if m := domainHintRe.FindStringSubmatch(q); m != nil {
		hints.Domain = strings.TrimSpace(m[1])
	}
	if m := categoryHintRe.FindStringSubmatch(q); m != nil {
		hints.Category = strings.TrimSpace(m[1])
	}
}

func extractExistenceHints(q string, hints *QueryHints) {
	hints.SearchType = matchDocType(q)
}

func extractClassificationHints(q string, hints *QueryHints) {
	if m := categoryHintRe.FindStringSubmatch(q); m != nil {
		hints.TargetCategory = strings.TrimSpace(m[1])
	}
	if m := domainHintRe.FindStringSubmatch(q); m != nil {
		hints.TargetDomain = strings.TrimSpace(m[1])
	}
}

func matchDocType(q string) string {
	for _, kw := range docTypeKeywords {
		if strings.Contains(q, kw.phrase) {
			return kw.docType
		}
	}
	return ""
}

func containsAny(q string, triggers []string) bool {
	for _, t := range triggers {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}

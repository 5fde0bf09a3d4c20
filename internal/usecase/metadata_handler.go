package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"answer-pipeline/internal/domain"
)

// Fixed messages returned from the metadata path.
const (
	msgCategoryUnresolved = "I couldn't determine the category/domain classification from the registry. Could you rephrase your question?"
	msgNonFactualGate     = "This request was routed to a non-factual handler. Please rephrase your question."
)

const (
	listingWithDomainsCap = 200
	listingGenericCap     = 20
	existenceTitlesCap    = 5
)

// MetadataHandler answers registry-shaped questions without touching the
// vector indices. TryShortCircuit returns "" only for the factual attribute.
type MetadataHandler interface {
	TryShortCircuit(ctx context.Context, decision domain.IntentDecision, question string) (string, error)
}

type metadataHandler struct {
	registry domain.Registry
}

// NewMetadataHandler builds the short-circuit handler over the registry.
func NewMetadataHandler(registry domain.Registry) MetadataHandler {
	return &metadataHandler{registry: registry}
}

func (h *metadataHandler) TryShortCircuit(ctx context.Context, decision domain.IntentDecision, question string) (string, error) {
	// A recognized objection wins over everything: the playbook reply is
	// cheaper and more on-message than any retrieval round trip.
	if decision.SalesIntent == "Objection" {
		if answer := domain.HandleObjection(question); answer != "" {
			slog.Info("objection_short_circuit", slog.String("sales_intent", decision.SalesIntent))
			return answer, nil
		}
	}

	switch decision.Attribute {
	case domain.AttributeDocumentCount:
		return h.handleCount(ctx, decision.Hints)
	case domain.AttributeDocumentCategory:
		answer, err := h.handleClassification(ctx, question, decision.Hints)
		if err != nil {
			return "", err
		}
		if answer == "" {
			return msgCategoryUnresolved, nil
		}
		return answer, nil
	case domain.AttributeDocumentListing:
		return h.handleListing(ctx, decision.Hints)
	case domain.AttributeDomainQuery:
		return h.handleDomainQuery(ctx, question)
	case domain.AttributeDocumentExist, domain.AttributeDocumentReference:
		return h.handleExistence(ctx, question, decision.Hints)
	case domain.AttributeMetadataOnly:
		return h.handleConversational(ctx, question)
	case domain.AttributeFactual:
		return "", nil
	default:
		return "", nil
	}
}

func (h *metadataHandler) handleCount(ctx context.Context, hints domain.QueryHints) (string, error) {
	if cat := hints.Category; cat != "" {
		n, err := h.registry.CountDocuments(ctx, domain.DocumentFilter{Category: cat})
		if err != nil {
			return "", fmt.Errorf("count by category: %w", err)
		}
		return fmt.Sprintf("There are **%d documents** in the **%s** category.", n, cat), nil
	}

	if dom := hints.Domain; dom != "" {
		resolved, err := h.resolveDomain(ctx, dom)
		if err != nil {
			return "", err
		}
		if resolved == "" {
			return fmt.Sprintf("Domain '%s' is not found in our system.", dom), nil
		}
		n, err := h.registry.CountDocuments(ctx, domain.DocumentFilter{Domain: resolved})
		if err != nil {
			return "", fmt.Errorf("count by domain: %w", err)
		}
		return fmt.Sprintf("There are **%d documents** under the **%s** domain.", n, resolved), nil
	}

	if dt := hints.DocType; dt != "" {
		n, err := h.registry.CountDocuments(ctx, domain.DocumentFilter{DocType: dt})
		if err != nil {
			return "", fmt.Errorf("count by doc type: %w", err)
		}
		return fmt.Sprintf("There are **%d %s documents**.", n, strings.ReplaceAll(dt, "_", " ")), nil
	}

	total, err := h.registry.CountDocuments(ctx, domain.DocumentFilter{})
	if err != nil {
		return "", fmt.Errorf("count total: %w", err)
	}
	breakdown, err := h.registry.CategoryBreakdown(ctx)
	if err != nil {
		return "", fmt.Errorf("category breakdown: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "There are **%d documents** in total.", total)
	if len(breakdown) > 0 {
		b.WriteString("\n")
		for _, cat := range sortedKeys(breakdown) {
			fmt.Fprintf(&b, "\n- %s: %d", cat, breakdown[cat])
		}
	}
	return b.String(), nil
}

func (h *metadataHandler) handleClassification(ctx context.Context, question string, hints domain.QueryHints) (string, error) {
	if entity := domain.ExtractEntity(question); entity != "" {
		docs, err := h.registry.FindDocumentsByTitle(ctx, entity, existenceTitlesCap)
		if err != nil {
			return "", fmt.Errorf("find by title: %w", err)
		}
		if len(docs) > 0 {
			doc := docs[0]
			return fmt.Sprintf("**%s** → Category: **%s** | Domain: **%s**",
				domain.HumanizeTitle(doc.Title), doc.Category, doc.Domain), nil
		}
	}

	if cat := hints.TargetCategory; cat != "" {
		docs, err := h.registry.ListDocuments(ctx, domain.DocumentFilter{Category: cat}, listingGenericCap)
		if err != nil {
			return "", fmt.Errorf("list by category: %w", err)
		}
		if len(docs) > 0 {
			var b strings.Builder
			fmt.Fprintf(&b, "Documents in the **%s** category:", cat)
			for _, d := range docs {
				fmt.Fprintf(&b, "\n- %s", domain.HumanizeTitle(d.Title))
			}
			return b.String(), nil
		}
	}

	// Unresolvable; the caller substitutes the rephrase message.
	return "", nil
}

func (h *metadataHandler) handleListing(ctx context.Context, hints domain.QueryHints) (string, error) {
	if cat := hints.Category; cat != "" {
		docs, err := h.registry.ListDocuments(ctx, domain.DocumentFilter{Category: cat}, listingWithDomainsCap)
		if err != nil {
			return "", fmt.Errorf("list by category: %w", err)
		}
		return formatListing(fmt.Sprintf("Documents in the **%s** category", cat), docs, true), nil
	}

	if dom := hints.Domain; dom != "" {
		resolved, err := h.resolveDomain(ctx, dom)
		if err != nil {
			return "", err
		}
		if resolved == "" {
			return fmt.Sprintf("Domain '%s' is not found in our system.", dom), nil
		}
		docs, err := h.registry.ListDocuments(ctx, domain.DocumentFilter{Domain: resolved}, listingWithDomainsCap)
		if err != nil {
			return "", fmt.Errorf("list by domain: %w", err)
		}
		return formatListing(fmt.Sprintf("Documents under the **%s** domain", resolved), docs, false), nil
	}

	docs, err := h.registry.ListDocuments(ctx, domain.DocumentFilter{}, listingGenericCap)
	if err != nil {
		return "", fmt.Errorf("list recent: %w", err)
	}
	return formatListing("Most recent documents", docs, true), nil
}

func (h *metadataHandler) handleDomainQuery(ctx context.Context, question string) (string, error) {
	q := strings.ToLower(question)

	if topic := extractDomainTopic(q); topic != "" {
		domains, err := h.registry.FindDomains(ctx, topic)
		if err != nil {
			return "", fmt.Errorf("find domains: %w", err)
		}
		if len(domains) == 0 {
			return fmt.Sprintf("No domains related to '%s' were found.", topic), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Domains related to '%s':", topic)
		for _, d := range domains {
			fmt.Fprintf(&b, "\n- **%s**: %s", d.Name, d.Description)
		}
		return b.String(), nil
	}

	if strings.Contains(q, "how many") {
		domains, err := h.registry.ListDomains(ctx)
		if err != nil {
			return "", fmt.Errorf("list domains: %w", err)
		}
		return fmt.Sprintf("There are **%d domains** in the system.", len(domains)), nil
	}

	if strings.Contains(q, "list") || strings.Contains(q, "show") ||
		strings.Contains(q, "what") || strings.Contains(q, "which") || strings.Contains(q, "all") {
		domains, err := h.registry.ListDomains(ctx)
		if err != nil {
			return "", fmt.Errorf("list domains: %w", err)
		}
		var b strings.Builder
		b.WriteString("Here are the domains in the system:")
		for _, d := range domains {
			fmt.Fprintf(&b, "\n- **%s**: %s", d.Name, d.Description)
		}
		return b.String(), nil
	}

	if strings.Contains(q, "is there") || strings.Contains(q, "do we have") || strings.Contains(q, "are there") {
		domains, err := h.registry.ListDomains(ctx)
		if err != nil {
			return "", fmt.Errorf("list domains: %w", err)
		}
		for _, d := range domains {
			if strings.Contains(q, strings.ToLower(d.Name)) {
				return fmt.Sprintf("Yes, **%s** is one of our domains: %s", d.Name, d.Description), nil
			}
		}
		return "I couldn't find that domain in the system.", nil
	}

	breakdown, err := h.registry.DomainBreakdown(ctx)
	if err != nil {
		return "", fmt.Errorf("domain breakdown: %w", err)
	}
	var b strings.Builder
	b.WriteString("Document coverage by domain:")
	for _, dom := range sortedKeysNested(breakdown) {
		fmt.Fprintf(&b, "\n**%s**:", dom)
		cats := breakdown[dom]
		for _, cat := range sortedKeys(cats) {
			fmt.Fprintf(&b, "\n  - %s: %d", cat, cats[cat])
		}
	}
	return b.String(), nil
}

func (h *metadataHandler) handleExistence(ctx context.Context, question string, hints domain.QueryHints) (string, error) {
	if entity := domain.ExtractEntity(question); entity != "" {
		docs, err := h.registry.FindDocumentsByTitle(ctx, entity, existenceTitlesCap+1)
		if err != nil {
			return "", fmt.Errorf("find by title: %w", err)
		}
		if len(docs) > 0 {
			var b strings.Builder
			fmt.Fprintf(&b, "Yes, I found documents matching **%s**:", entity)
			shown := docs
			more := 0
			if len(docs) > existenceTitlesCap {
				shown = docs[:existenceTitlesCap]
				more = len(docs) - existenceTitlesCap
			}
			for _, d := range shown {
				fmt.Fprintf(&b, "\n- %s", domain.HumanizeTitle(d.Title))
			}
			if more > 0 {
				fmt.Fprintf(&b, "\n…and %d more", more)
			}
			return b.String(), nil
		}
	}

	if st := hints.SearchType; st != "" {
		keyword := strings.ReplaceAll(st, "_", " ")
		docs, err := h.registry.SearchDocuments(ctx, keyword, existenceTitlesCap)
		if err != nil {
			return "", fmt.Errorf("search documents: %w", err)
		}
		if len(docs) == 0 {
			return fmt.Sprintf("I couldn't find any %s documents.", keyword), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Yes, we have %s documents:", keyword)
		for _, d := range docs {
			fmt.Fprintf(&b, "\n- %s", domain.HumanizeTitle(d.Title))
		}
		return b.String(), nil
	}

	total, err := h.registry.CountDocuments(ctx, domain.DocumentFilter{})
	if err != nil {
		return "", fmt.Errorf("count total: %w", err)
	}
	return fmt.Sprintf("Yes, I have **%d documents** across all collections.", total), nil
}

func (h *metadataHandler) handleConversational(ctx context.Context, question string) (string, error) {
	q := strings.ToLower(strings.TrimSpace(question))
	switch {
	case strings.Contains(q, "thank"):
		return "You're welcome! Ask me anything about our documents whenever you need.", nil
	case strings.Contains(q, "bye"):
		return "Goodbye! Come back anytime you need something from the knowledge base.", nil
	case q == "ok" || q == "okay":
		return "Great! Let me know if there's anything else you'd like to look up.", nil
	}

	cats, err := h.registry.ListCategories(ctx)
	if err != nil {
		return "", fmt.Errorf("list categories: %w", err)
	}
	var names []string
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return fmt.Sprintf("Hello! 👋 I'm your document assistant. I can answer questions from our knowledge base, "+
		"count and list documents, and tell you what exists. Available collections: %s.",
		strings.Join(names, ", ")), nil
}

func (h *metadataHandler) resolveDomain(ctx context.Context, hint string) (string, error) {
	domains, err := h.registry.ListDomains(ctx)
	if err != nil {
		return "", fmt.Errorf("list domains: %w", err)
	}
	want := domain.NormalizeCollectionName(hint)
	for _, d := range domains {
		if domain.NormalizeCollectionName(d.Name) == want {
			return d.Name, nil
		}
	}
	return "", nil
}

func extractDomainTopic(q string) string {
	for _, marker := range []string{"domains related to ", "domains relevant to ", "domain related to "} {
		if idx := strings.Index(q, marker); idx >= 0 {
			topic := q[idx+len(marker):]
			topic = strings.Trim(topic, " ?.!")
			return topic
		}
	}
	return ""
}

func formatListing(header string, docs []domain.Document, withDomains bool) string {
	if len(docs) == 0 {
		return "No documents matched."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):", header, len(docs))
	for _, d := range docs {
		if withDomains && d.Domain != "" {
			fmt.Fprintf(&b, "\n- %s (domain: %s)", domain.HumanizeTitle(d.Title), d.Domain)
		} else {
			fmt.Fprintf(&b, "\n- %s", domain.HumanizeTitle(d.Title))
		}
	}
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysNested(m map[string]map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

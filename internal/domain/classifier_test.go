package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent_Routing(t *testing.T) {
	tests := []struct {
		name      string
		question  string
		intent    QuestionIntent
		attribute QuestionAttribute
	}{
		{"greeting", "Hello there!", IntentConversational, AttributeMetadataOnly},
		{"single word", "thanks", IntentConversational, AttributeMetadataOnly},
		{"empty", "", IntentConversational, AttributeMetadataOnly},
		{"document count", "How many documents do we have?", IntentCount, AttributeDocumentCount},
		{"count in category", "how many case studies are in the fintech category?", IntentCount, AttributeDocumentCount},
		{"listing", "List all documents in the proposals collection", IntentDocumentListing, AttributeDocumentListing},
		{"which documents", "which documents mention onboarding?", IntentDocumentListing, AttributeDocumentListing},
		{"existence", "Do we have any proposals for Keysight?", IntentExistence, AttributeDocumentExist},
		{"classification", "Which category does the BugBuster deck belong to?", IntentClassification, AttributeDocumentCategory},
		{"domain listing", "show me all domains", IntentDomainQuery, AttributeDomainQuery},
		{"domain count", "how many domains are there?", IntentDomainQuery, AttributeDomainQuery},
		{"factual metrics", "What percentage of regressions did BugBuster catch?", IntentFactualContent, AttributeFactual},
		{"factual roi", "Explain the ROI we delivered in healthcare", IntentFactualContent, AttributeFactual},
		{"default factual", "Tell me what happened in the Keysight engagement", IntentFactualContent, AttributeFactual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ClassifyIntent(tt.question)
			assert.Equal(t, tt.intent, d.Intent)
			assert.Equal(t, tt.attribute, d.Attribute)
		})
	}
}

func TestClassifyIntent_AttributeAlwaysConsistent(t *testing.T) {
	questions := []string{
		"hi", "how many documents", "list documents", "do we have any reports",
		"which category is this in", "show domains", "what is the ROI",
	}
	for _, q := range questions {
		d := ClassifyIntent(q)
		assert.Equal(t, AttributeFor(d.Intent), d.Attribute, q)
	}
}

func TestClassifyIntent_CountHints(t *testing.T) {
	d := ClassifyIntent("How many case studies do we have under the fintech domain?")
	assert.Equal(t, IntentCount, d.Intent)
	assert.Equal(t, "case_study", d.Hints.DocType)
	assert.Equal(t, "fintech", d.Hints.Domain)
}

func TestClassifyIntent_CategoryHint(t *testing.T) {
	d := ClassifyIntent("How many documents are in the proposals category?")
	assert.Equal(t, IntentCount, d.Intent)
	assert.Equal(t, "proposals", d.Hints.Category)
}

func TestClassifyIntent_SalesIntentAnnotation(t *testing.T) {
	tests := []struct {
		question string
		intent   string
		stage    SalesStage
	}{
		{"Your competitor quoted us half the price", "Objection", StageMiddle},
		{"Do you have a case study in banking?", "Proof", StageMiddle},
		{"What is the pricing for QA Ownership?", "Decision", StageBottom},
		{"How can you help us with flaky tests?", "Solutioning", StageMiddle},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			d := ClassifyIntent(tt.question)
			assert.Equal(t, tt.intent, d.SalesIntent)
			assert.Equal(t, tt.stage, d.SalesStage)
		})
	}
}

func TestClassifyIntent_FactualBeatsGenericCount(t *testing.T) {
	// Metrics vocabulary keeps the question on the retrieval path even when
	// a count trigger is present.
	d := ClassifyIntent("how many percentage points did efficiency improve?")
	assert.Equal(t, IntentFactualContent, d.Intent)
	assert.Equal(t, AttributeFactual, d.Attribute)
}

func TestClassifyIntent_DomainGuardedByDocQuery(t *testing.T) {
	// "list ... documents" must not be captured by the domain rules even
	// though it mentions a domain.
	d := ClassifyIntent("list the documents under the fintech domain")
	assert.Equal(t, IntentDocumentListing, d.Intent)
}

package domain

// QuestionIntent is the coarse category a user question falls into.
type QuestionIntent string

const (
	IntentCount           QuestionIntent = "count"
	IntentClassification  QuestionIntent = "classification"
	IntentExistence       QuestionIntent = "existence"
	IntentDocumentListing QuestionIntent = "document_listing"
	IntentDomainQuery     QuestionIntent = "domain_query"
	IntentFactualContent  QuestionIntent = "factual_content"
	IntentHybrid          QuestionIntent = "hybrid"
	IntentConversational  QuestionIntent = "conversational"
)

// QuestionAttribute decides which execution path handles the question:
// every attribute except AttributeFactual is answerable from the registry
// alone and never touches the vector indices.
type QuestionAttribute string

const (
	AttributeMetadataOnly      QuestionAttribute = "metadata_only"
	AttributeDocumentExist     QuestionAttribute = "document_exist"
	AttributeDocumentCount     QuestionAttribute = "document_count"
	AttributeDocumentCategory  QuestionAttribute = "document_category"
	AttributeDocumentReference QuestionAttribute = "document_reference"
	AttributeDocumentListing   QuestionAttribute = "document_listing"
	AttributeDomainQuery       QuestionAttribute = "domain_query"
	AttributeFactual           QuestionAttribute = "factual"
)

// QueryHints carries the optional slots the classifier fills for the
// metadata handlers. Every routing decision reads a named field; Debug is
// for open-ended annotations that must never drive execution.
type QueryHints struct {
	DocType        string
	Domain         string
	Category       string
	SearchType     string
	TargetCategory string
	TargetDomain   string
	Debug          map[string]string
}

// SalesStage positions the question in the sales funnel.
type SalesStage string

const (
	StageTop    SalesStage = "Top"
	StageMiddle SalesStage = "Middle"
	StageBottom SalesStage = "Bottom"
)

// IntentDecision is the classifier output consumed by the orchestrator.
type IntentDecision struct {
	Intent      QuestionIntent
	Attribute   QuestionAttribute
	SalesIntent string
	SalesStage  SalesStage
	Hints       QueryHints
}

// AttributeFor maps an intent onto its execution attribute.
func AttributeFor(intent QuestionIntent) QuestionAttribute {
	switch intent {
	case IntentConversational:
		return AttributeMetadataOnly
	case IntentCount:
		return AttributeDocumentCount
	case IntentExistence:
		return AttributeDocumentExist
	case IntentClassification:
		return AttributeDocumentCategory
	case IntentDocumentListing:
		return AttributeDocumentListing
	case IntentDomainQuery:
		return AttributeDomainQuery
	case IntentHybrid:
		return AttributeDocumentReference
	case IntentFactualContent:
		return AttributeFactual
	default:
		return AttributeFactual
	}
}

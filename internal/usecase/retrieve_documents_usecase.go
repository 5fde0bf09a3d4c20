package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"answer-pipeline/internal/domain"
	"answer-pipeline/internal/usecase/retrieval"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RetrieveInput drives the two-stage retrieval.
type RetrieveInput struct {
	Question            string
	SelectedCollections []string
	Mode                domain.AnswerMode
	Entity              string
	PreferredDocType    string
	SelectedSolution    string
	TPMLimit            int
}

// RetrieveUsecase runs document search, heuristic reordering, per-collection
// chunk fan-out, and the retrieval post-processing.
type RetrieveUsecase interface {
	Retrieve(ctx context.Context, in RetrieveInput) (*domain.RetrievalResult, error)
}

type retrieveUsecase struct {
	docSearcher   domain.DocumentSearcher
	chunkSearcher domain.ChunkSearcher
	registry      domain.Registry
	maxParallel   int
}

// NewRetrieveUsecase wires the retrieval stage. maxParallel bounds the
// per-collection chunk fan-out.
func NewRetrieveUsecase(
	docSearcher domain.DocumentSearcher,
	chunkSearcher domain.ChunkSearcher,
	registry domain.Registry,
	maxParallel int,
) RetrieveUsecase {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &retrieveUsecase{
		docSearcher:   docSearcher,
		chunkSearcher: chunkSearcher,
		registry:      registry,
		maxParallel:   maxParallel,
	}
}

const (
	maxTopKDocs         = 50
	maxSearchN          = 50
	docsPerCollection   = 5
	defaultTopKDocs     = 10
	maxCollectionChunks = 200
)

// Per-document chunk allowance by answer mode, bounded to [2,8].
var perDocTopK = map[domain.AnswerMode]int{
	domain.ModeExtract:   3,
	domain.ModeBrief:     4,
	domain.ModeSummarize: 5,
	domain.ModeExplain:   6,
}

func (u *retrieveUsecase) Retrieve(ctx context.Context, in RetrieveInput) (*domain.RetrievalResult, error) {
	topKDocs := defaultTopKDocs
	searchN := defaultTopKDocs
	if n := len(in.SelectedCollections); n > 0 {
		topKDocs = n * docsPerCollection
		if topKDocs < 1 {
			topKDocs = 1
		}
		if topKDocs > maxTopKDocs {
			topKDocs = maxTopKDocs
		}
		searchN = topKDocs * 3
	}
	if searchN > maxSearchN {
		searchN = maxSearchN
	}

	hits, err := u.docSearcher.SearchDocuments(ctx, in.Question, searchN)
	if err != nil {
		return nil, classifyIndexError(err)
	}
	if len(hits) == 0 {
		slog.Info("retrieval_no_documents", slog.String("question", in.Question))
		return emptyResult(), nil
	}

	docs, err := u.resolveDocuments(ctx, hits)
	if err != nil {
		return nil, err
	}

	docs = filterByCollections(docs, in.SelectedCollections)
	docs = boostByDocType(docs, in.PreferredDocType)
	docs = boostBySolution(docs, in.SelectedSolution, in.Question)
	docs = filterByEntity(docs, in.Entity, in.Mode)
	if len(docs) > topKDocs {
		docs = docs[:topKDocs]
	}
	if len(docs) == 0 {
		slog.Info("retrieval_all_documents_filtered")
		return emptyResult(), nil
	}

	allowance := perDocTopK[in.Mode]
	if allowance < 2 {
		allowance = 2
	}
	if allowance > 8 {
		allowance = 8
	}
	for i := range docs {
		docs[i].TopK = allowance
	}

	chunks := u.fetchChunks(ctx, in.Question, docs)

	budgetCap := retrieval.TokenBudgetCap(in.Mode, in.TPMLimit)
	chunks = retrieval.ScoreAndPrune(chunks, in.Mode, budgetCap)
	quality := retrieval.AssessQuality(chunks, len(docs))

	result := &domain.RetrievalResult{
		Documents: docs,
		Chunks:    chunks,
		Quality:   quality,
	}

	var jsonTokens, toonTokens int
	result.EncodedSummaries, jsonTokens, toonTokens = retrieval.EncodeSummaries(docs)
	result.Savings.SummariesJSONTokens = jsonTokens
	result.Savings.SummariesToonTokens = toonTokens
	result.EncodedChunks, jsonTokens, toonTokens = retrieval.EncodeChunks(chunks)
	result.Savings.ChunksJSONTokens = jsonTokens
	result.Savings.ChunksToonTokens = toonTokens

	slog.Info("retrieval_complete",
		slog.Int("documents", len(docs)),
		slog.Int("chunks", len(chunks)),
		slog.String("quality", string(quality.Tier)),
		slog.Int("confidence", quality.Confidence))

	return result, nil
}

func emptyResult() *domain.RetrievalResult {
	return &domain.RetrievalResult{Quality: retrieval.AssessQuality(nil, 0)}
}

// Message fragments that mean the vector index itself is missing or broken
// rather than the query being bad.
var indexUnavailableFragments = []string{
	"nothing found on disk",
	"hnsw",
	"segment",
	"does not exist",
}

func classifyIndexError(err error) error {
	var unavailable *domain.IndexUnavailableError
	if errors.As(err, &unavailable) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range indexUnavailableFragments {
		if strings.Contains(msg, fragment) {
			return &domain.IndexUnavailableError{Err: err}
		}
	}
	return fmt.Errorf("document search: %w", err)
}

func (u *retrieveUsecase) resolveDocuments(ctx context.Context, hits []domain.DocumentHit) ([]domain.RetrievedDocument, error) {
	ids := make([]uuid.UUID, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.DocumentID)
	}
	rows, err := u.registry.GetDocuments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve documents: %w", err)
	}

	docs := make([]domain.RetrievedDocument, 0, len(hits))
	for _, h := range hits {
		row, ok := rows[h.DocumentID]
		if !ok {
			slog.Warn("retrieval_unresolved_document", slog.String("document_id", h.DocumentID.String()))
			continue
		}
		docs = append(docs, domain.RetrievedDocument{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			Category:    row.Category,
			Domain:      row.Domain,
			DocType:     inferDocType(row),
			Distance:    h.Distance,
		})
	}
	return docs, nil
}

// inferDocType prefers title and filename keywords over the category name.
func inferDocType(doc domain.Document) string {
	if doc.DocType != "" {
		return doc.DocType
	}
	text := strings.ToLower(doc.Title + " " + doc.Filename)
	switch {
	case strings.Contains(text, "proposal"):
		return "proposal"
	case strings.Contains(text, "case study") || strings.Contains(text, "case_study") ||
		strings.Contains(text, "success story") || strings.Contains(text, "success_story"):
		return "case_study"
	case strings.Contains(text, "solution") || strings.Contains(text, "service"):
		return "solution"
	case strings.Contains(text, "policy"):
		return "policy"
	}
	cat := strings.ToLower(doc.Category)
	switch {
	case strings.Contains(cat, "proposal"):
		return "proposal"
	case strings.Contains(cat, "case"):
		return "case_study"
	case strings.Contains(cat, "solution") || strings.Contains(cat, "service"):
		return "solution"
	case strings.Contains(cat, "polic"):
		return "policy"
	}
	return "other"
}

// filterByCollections keeps documents from the selected collections. An
// empty selection keeps everything resolvable.
func filterByCollections(docs []domain.RetrievedDocument, selected []string) []domain.RetrievedDocument {
	if len(selected) == 0 {
		return docs
	}
	allowed := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		allowed[domain.NormalizeCollectionName(s)] = struct{}{}
	}
	var out []domain.RetrievedDocument
	for _, d := range docs {
		if _, ok := allowed[domain.NormalizeCollectionName(d.Category)]; ok {
			out = append(out, d)
		}
	}
	return out
}

// boostByDocType stably moves documents of the preferred type to the front.
func boostByDocType(docs []domain.RetrievedDocument, preferred string) []domain.RetrievedDocument {
	if preferred == "" {
		return docs
	}
	var matched, rest []domain.RetrievedDocument
	for _, d := range docs {
		if d.DocType == preferred {
			matched = append(matched, d)
		} else {
			rest = append(rest, d)
		}
	}
	return append(matched, rest...)
}

// boostBySolution stably moves documents mentioning the pitched solution to
// the front. When no solution was selected the keyword heuristic over the
// question decides whether there is one worth boosting.
func boostBySolution(docs []domain.RetrievedDocument, selected, question string) []domain.RetrievedDocument {
	solution := selected
	if solution == "" {
		solution = domain.RecommendSolution(question)
	}
	if solution == "" {
		return docs
	}
	target := strings.ToLower(solution)
	var matched, rest []domain.RetrievedDocument
	for _, d := range docs {
		text := strings.ToLower(d.Title + " " + d.Description)
		if strings.Contains(text, target) || domain.MatchSolutionKeywords(text) == solution {
			matched = append(matched, d)
		} else {
			rest = append(rest, d)
		}
	}
	return append(matched, rest...)
}

// filterByEntity restricts documents to the named entity. Extract and brief
// answers demand precision, so only matching titles survive; the looser
// modes just move matches to the front. No matches leaves the set unchanged.
func filterByEntity(docs []domain.RetrievedDocument, entity string, mode domain.AnswerMode) []domain.RetrievedDocument {
	if entity == "" {
		return docs
	}
	needle := strings.ToLower(entity)
	var matched, rest []domain.RetrievedDocument
	for _, d := range docs {
		if strings.Contains(strings.ToLower(d.Title), needle) {
			matched = append(matched, d)
		} else {
			rest = append(rest, d)
		}
	}
	if len(matched) == 0 {
		return docs
	}
	if mode == domain.ModeExtract || mode == domain.ModeBrief {
		return matched
	}
	return append(matched, rest...)
}

// fetchChunks fans out one chunk query per collection. A failing collection
// logs and contributes nothing; siblings are never cancelled for it.
func (u *retrieveUsecase) fetchChunks(ctx context.Context, question string, docs []domain.RetrievedDocument) []domain.RetrievedChunk {
	byCollection := map[string][]domain.RetrievedDocument{}
	var order []string
	for _, d := range docs {
		if _, seen := byCollection[d.Category]; !seen {
			order = append(order, d.Category)
		}
		byCollection[d.Category] = append(byCollection[d.Category], d)
	}

	var (
		mu     sync.Mutex
		chunks []domain.RetrievedChunk
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.maxParallel)

	for _, collection := range order {
		collection := collection
		group := byCollection[collection]
		g.Go(func() error {
			got, err := u.fetchCollectionChunks(gctx, collection, question, group)
			if err != nil {
				slog.Warn("collection_chunk_fetch_failed",
					slog.String("collection", collection),
					slog.String("error", err.Error()))
				return nil // non-fatal
			}
			mu.Lock()
			chunks = append(chunks, got...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return chunks
}

func (u *retrieveUsecase) fetchCollectionChunks(ctx context.Context, collection, question string, docs []domain.RetrievedDocument) ([]domain.RetrievedChunk, error) {
	titles := make(map[uuid.UUID]string, len(docs))
	limits := make(map[uuid.UUID]int, len(docs))
	ids := make([]uuid.UUID, 0, len(docs))
	totalK := 0
	for _, d := range docs {
		ids = append(ids, d.ID)
		titles[d.ID] = d.Title
		limits[d.ID] = d.TopK
		totalK += d.TopK
	}

	queryLimit := totalK + totalK/2 + 5
	if queryLimit > maxCollectionChunks {
		queryLimit = maxCollectionChunks
	}

	hits, err := u.chunkSearcher.SearchChunks(ctx, collection, question, ids, queryLimit)
	if err != nil {
		return nil, err
	}

	// Hits arrive in ascending distance order; the per-document allowance
	// keeps one document from crowding out the rest.
	taken := make(map[uuid.UUID]int, len(docs))
	var out []domain.RetrievedChunk
	for _, h := range hits {
		limit, ok := limits[h.DocumentID]
		if !ok {
			continue
		}
		if taken[h.DocumentID] >= limit {
			continue
		}
		taken[h.DocumentID]++
		out = append(out, domain.RetrievedChunk{
			ChunkID:    h.ChunkID,
			DocumentID: h.DocumentID,
			Collection: collection,
			Title:      titles[h.DocumentID],
			Text:       h.Text,
			Score:      h.Distance,
		})
	}
	return out, nil
}

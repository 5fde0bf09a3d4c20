package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"answer-pipeline/internal/adapter/openai"
	"answer-pipeline/internal/adapter/repository"
	"answer-pipeline/internal/domain"
	"answer-pipeline/internal/infra/config"
	"answer-pipeline/internal/usecase"
	"answer-pipeline/internal/worker"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	Registry     domain.Registry
	Orchestrator usecase.Orchestrator

	// Warm collection snapshot serving the stage-1 hot path.
	CategoryCache *worker.CategoryCache
}

// NewApplicationComponents wires all dependencies from config and database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) *ApplicationComponents {
	// Repositories
	registry := repository.NewRegistryRepository(pool)
	embedder := openai.NewEmbedder(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel)
	vectorSearch := repository.NewVectorSearchRepository(pool, embedder)

	// LLM client shared by every stage
	llm := openai.NewChatClient(cfg.LLMBaseURL, cfg.LLMAPIKey)

	// Stage 1
	metadataHandler := usecase.NewMetadataHandler(registry)
	queryRewriter := usecase.NewQueryRewriter(llm, cfg.MiniModel)
	solutionSelector := usecase.NewSolutionSelector(llm, cfg.MiniModel)
	categoryCache := worker.NewCategoryCache(registry,
		time.Duration(cfg.CategoryRefresh)*time.Second, log)

	// Stage 2
	retrieveUsecase := usecase.NewRetrieveUsecase(
		vectorSearch, vectorSearch, registry, cfg.RetrieveParallel)

	// Stage 3
	synthesizeUsecase := usecase.NewSynthesizeAnswerUsecase(llm, usecase.NewPromptBuilder())

	orchestrator := usecase.NewOrchestrator(
		categoryCache,
		metadataHandler,
		queryRewriter,
		solutionSelector,
		retrieveUsecase,
		synthesizeUsecase,
		cfg.TPMLimit,
	)

	return &ApplicationComponents{
		Registry:      registry,
		Orchestrator:  orchestrator,
		CategoryCache: categoryCache,
	}
}

package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"answer-pipeline/internal/domain"
	"answer-pipeline/internal/infra/logger"
	"answer-pipeline/internal/usecase"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
)

// Returned for index outages so clients know a retry is worthwhile.
const msgIndexUnavailable = "The search index is being rebuilt. Please try again in a minute."

// Returned for any other pipeline failure. The cause goes to the log, never
// to the client.
const msgInternalError = "Something went wrong while answering your question. Please try again."

// AskRequest is the POST /v1/ask payload.
type AskRequest struct {
	Question        string        `json:"question"`
	UserEmail       string        `json:"user_email,omitempty"`
	MessageID       string        `json:"message_id,omitempty"`
	History         []HistoryTurn `json:"history,omitempty"`
	ModelPreference string        `json:"model_preference,omitempty"`
	MaxTokens       int           `json:"max_tokens,omitempty"`
}

// HistoryTurn is one prior exchange in the conversation.
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskResponse is the POST /v1/ask result.
type AskResponse struct {
	Answer      string         `json:"answer"`
	Sources     []string       `json:"sources,omitempty"`
	FollowUps   []string       `json:"follow_ups,omitempty"`
	ModelUsed   string         `json:"model_used"`
	Confidence  int            `json:"confidence"`
	Quality     string         `json:"quality,omitempty"`
	Refined     bool           `json:"refined"`
	TokensSaved int            `json:"tokens_saved,omitempty"`
	TotalTokens int            `json:"total_tokens"`
	TimingsMS   map[string]int `json:"timings_ms,omitempty"`
	Cached      bool           `json:"cached,omitempty"`
}

type Handler struct {
	orchestrator usecase.Orchestrator
	ready        func() error
	logs         *logger.ContextLogger
	// Replays of the same message ID (client retries, at-least-once
	// chat connectors) get the original response back.
	dedup *lru.Cache[string, *AskResponse]
}

func NewHandler(orchestrator usecase.Orchestrator, dedupSize int, ready func() error) (*Handler, error) {
	cache, err := lru.New[string, *AskResponse](dedupSize)
	if err != nil {
		return nil, err
	}
	return &Handler{
		orchestrator: orchestrator,
		ready:        ready,
		logs:         logger.NewContextLogger("answer-pipeline"),
		dedup:        cache,
	}, nil
}

// Register mounts the routes on the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/v1/ask", h.Ask)
	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)
}

// Ask runs the full answer pipeline for one question.
// (POST /v1/ask)
func (h *Handler) Ask(ctx echo.Context) error {
	var req AskRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}

	if req.MessageID != "" {
		if cached, ok := h.dedup.Get(req.MessageID); ok {
			replay := *cached
			replay.Cached = true
			return ctx.JSON(http.StatusOK, &replay)
		}
	}

	history := make([]domain.ConversationTurn, 0, len(req.History))
	for _, t := range req.History {
		history = append(history, domain.ConversationTurn{Role: t.Role, Content: t.Content})
	}

	reqCtx := ctx.Request().Context()
	if req.UserEmail != "" {
		reqCtx = logger.WithUser(reqCtx, req.UserEmail)
	}
	log := h.logs.WithContext(reqCtx)

	result, err := h.orchestrator.Ask(reqCtx, usecase.AskRequest{
		Question:          req.Question,
		UserEmail:         req.UserEmail,
		History:           history,
		ModelPreference:   req.ModelPreference,
		MaxTokensOverride: req.MaxTokens,
	})
	if err != nil {
		var unavailable *domain.IndexUnavailableError
		if errors.As(err, &unavailable) {
			log.Warn("ask_index_unavailable",
				slog.String("collection", unavailable.Collection),
				slog.String("error", err.Error()))
			return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"error": msgIndexUnavailable})
		}
		log.Error("ask_pipeline_failed", slog.String("error", err.Error()))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": msgInternalError})
	}

	resp := toAskResponse(result)
	if req.MessageID != "" {
		h.dedup.Add(req.MessageID, resp)
	}
	return ctx.JSON(http.StatusOK, resp)
}

// Healthz is the liveness probe.
// (GET /healthz)
func (h *Handler) Healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz is the readiness probe; it checks the registry datastore.
// (GET /readyz)
func (h *Handler) Readyz(ctx echo.Context) error {
	if h.ready != nil {
		if err := h.ready(); err != nil {
			return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
		}
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func toAskResponse(result *domain.FinalResponse) *AskResponse {
	timings := make(map[string]int, len(result.Metadata.StageTimings))
	for stage, d := range result.Metadata.StageTimings {
		timings[stage] = int(d / time.Millisecond)
	}
	return &AskResponse{
		Answer:      result.Answer,
		Sources:     result.Sources,
		FollowUps:   result.FollowUps,
		ModelUsed:   result.Metadata.ModelUsed,
		Confidence:  result.Metadata.Confidence,
		Quality:     string(result.Metadata.Quality),
		Refined:     result.Metadata.Refined,
		TokensSaved: result.Metadata.TokensSaved,
		TotalTokens: result.Metadata.TokenUsage.TotalTokens,
		TimingsMS:   timings,
	}
}

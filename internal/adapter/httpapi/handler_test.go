package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"answer-pipeline/internal/adapter/httpapi"
	"answer-pipeline/internal/domain"
	"answer-pipeline/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOrchestrator struct {
	mock.Mock
}

func (m *mockOrchestrator) Ask(ctx context.Context, req usecase.AskRequest) (*domain.FinalResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FinalResponse), args.Error(1)
}

func newTestHandler(t *testing.T, orch usecase.Orchestrator) *httpapi.Handler {
	t.Helper()
	h, err := httpapi.NewHandler(orch, 16, nil)
	require.NoError(t, err)
	return h
}

func doAsk(h *httpapi.Handler, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	_ = h.Ask(e.NewContext(req, rec))
	return rec
}

func TestAskHandler_Success(t *testing.T) {
	orch := new(mockOrchestrator)
	orch.On("Ask", mock.Anything, mock.Anything).Return(&domain.FinalResponse{
		Answer:  "Yes, we have a proposal for Keysight.",
		Sources: []string{"keysight proposal"},
		Metadata: domain.PipelineMetadata{
			ModelUsed:  "gpt-4o-mini",
			Confidence: 75,
			Quality:    domain.QualityGood,
			StageTimings: map[string]time.Duration{
				"stage1_intent": 12 * time.Millisecond,
			},
			TokenUsage: domain.TokenUsage{TotalTokens: 500},
		},
	}, nil)

	rec := doAsk(newTestHandler(t, orch), `{"question": "do we have a proposal for Keysight?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp httpapi.AskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Yes, we have a proposal for Keysight.", resp.Answer)
	assert.Equal(t, "gpt-4o-mini", resp.ModelUsed)
	assert.Equal(t, 75, resp.Confidence)
	assert.Equal(t, 12, resp.TimingsMS["stage1_intent"])
	assert.Equal(t, 500, resp.TotalTokens)
}

func TestAskHandler_EmptyQuestionRejected(t *testing.T) {
	orch := new(mockOrchestrator)
	rec := doAsk(newTestHandler(t, orch), `{"question": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	orch.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestAskHandler_IndexUnavailableMapsTo503(t *testing.T) {
	orch := new(mockOrchestrator)
	orch.On("Ask", mock.Anything, mock.Anything).Return(nil,
		&domain.IndexUnavailableError{Collection: "proposals", Err: errors.New("hnsw segment missing")})

	rec := doAsk(newTestHandler(t, orch), `{"question": "pricing details?"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "try again")
}

func TestAskHandler_PipelineFailureHidesInternalError(t *testing.T) {
	orch := new(mockOrchestrator)
	orch.On("Ask", mock.Anything, mock.Anything).Return(nil,
		errors.New(`metadata short circuit: count total: failed to connect to "registry-db:5432"`))

	rec := doAsk(newTestHandler(t, orch), `{"question": "how many documents?"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "registry-db")
	assert.NotContains(t, rec.Body.String(), "failed to connect")
	assert.Contains(t, rec.Body.String(), "Please try again")
}

func TestAskHandler_MessageIDDeduplicated(t *testing.T) {
	orch := new(mockOrchestrator)
	orch.On("Ask", mock.Anything, mock.Anything).Return(&domain.FinalResponse{
		Answer: "first answer",
	}, nil).Once()

	h := newTestHandler(t, orch)
	body := `{"question": "how many documents?", "message_id": "msg-1"}`

	first := doAsk(h, body)
	require.Equal(t, http.StatusOK, first.Code)

	second := doAsk(h, body)
	require.Equal(t, http.StatusOK, second.Code)

	var resp httpapi.AskResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, "first answer", resp.Answer)
	assert.True(t, resp.Cached)
	orch.AssertNumberOfCalls(t, "Ask", 1)
}

package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"answer-pipeline/internal/adapter/httpapi"
	"answer-pipeline/internal/infra/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRequestContext(t *testing.T, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	var seen string
	handler := httpapi.RequestContextMiddleware()(func(c echo.Context) error {
		v := c.Request().Context().Value(logger.RequestIDKey)
		id, ok := v.(string)
		require.True(t, ok)
		seen = id
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(ctx))
	return seen, rec
}

func TestRequestContextMiddleware_GeneratesID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/ask", nil)
	seen, rec := runRequestContext(t, req)

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRequestContextMiddleware_HonorsIncomingID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/ask", nil)
	req.Header.Set(echo.HeaderXRequestID, "upstream-42")
	seen, rec := runRequestContext(t, req)

	assert.Equal(t, "upstream-42", seen)
	assert.Equal(t, "upstream-42", rec.Header().Get(echo.HeaderXRequestID))
}

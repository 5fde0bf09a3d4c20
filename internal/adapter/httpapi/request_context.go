package httpapi

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"answer-pipeline/internal/infra/logger"
)

// RequestContextMiddleware assigns each request an ID (honoring an incoming
// X-Request-ID) and binds it into the request context, so every log line
// emitted while answering can be correlated. The ID is echoed back in the
// response header.
func RequestContextMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			requestID := ctx.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)

			req := ctx.Request()
			ctx.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), requestID)))
			return next(ctx)
		}
	}
}

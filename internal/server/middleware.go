package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/xid"

	"composewait/internal/logger"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// ContextKeyRequestID is the key for request ID in context
const ContextKeyRequestID contextKey = "request_id"

// generateRequestID generates a unique request ID
func generateRequestID() string {
	return xid.New().String()
}

// contextEnricher adds the request ID to the request context
func contextEnricher() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := requestID(c)
			if reqID != "" {
				ctx := context.WithValue(c.Request().Context(), ContextKeyRequestID, reqID)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

func requestID(c echo.Context) string {
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// ErrorHandler is a custom error handler for the server
func ErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "Internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		}
	}

	reqID := requestID(c)
	logger.WithFields(logger.Fields{
		"request_id": reqID,
		"method":     c.Request().Method,
		"path":       c.Request().URL.Path,
		"status":     code,
	}).WithError(err).Warn("Request error")

	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			c.NoContent(code)
		} else {
			c.JSON(code, ErrorResponse{Error: message, RequestID: reqID})
		}
	}
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

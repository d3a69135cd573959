// Package response writes the JSON error envelope shared by handlers and middleware.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	pkgerrors "book-review-service/pkg/errors"
	"book-review-service/pkg/logger"
)

// internalMessage replaces the text of every 5xx error sent to clients
const internalMessage = "An internal error occurred"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Error aborts the request with the status and code carried by err.
// Errors without an HTTP mapping, and all 5xx errors, are logged and
// reported with a generic message.
func Error(c *gin.Context, log *zap.Logger, err error) {
	he, ok := pkgerrors.AsHTTPError(err)
	if !ok || he.HTTPStatus() >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context(), log).Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: internalMessage,
		})
		return
	}

	c.AbortWithStatusJSON(he.HTTPStatus(), ErrorResponse{
		Error:   he.Code(),
		Message: he.Error(),
	})
}

// Abort writes an error envelope with an explicit status and code.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Message: message})
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/handyhub/booking-api/pkg/errors"
	"github.com/handyhub/booking-api/pkg/logger"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler converts errors attached to the gin context into JSON
// responses. Errors that carry a StatusCode are mapped onto it,
// everything else becomes a 500.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)

		for _, e := range c.Errors {
			log.Error(e.Err, "request error",
				"request_id", requestID,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"client_ip", c.ClientIP())
		}

		// Services wrap domain errors with call context, so the AppError
		// must be pulled out of the chain, not type-asserted directly.
		lastErr := c.Errors.Last()
		status := http.StatusInternalServerError
		message := "internal server error"
		var appErr *apperrors.AppError
		if errors.As(lastErr.Err, &appErr) && appErr.StatusCode() != http.StatusInternalServerError {
			status = appErr.StatusCode()
			message = appErr.Message
		}

		c.JSON(status, ErrorResponse{
			Code:      status,
			Message:   message,
			RequestID: requestID,
		})
	}
}

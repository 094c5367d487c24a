package middleware

import (
	"errors"
	"net/http"

	"contact-relay/internal/delivery/http/response"
	"contact-relay/pkg/apperror"
	"contact-relay/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error attached with c.Error as plain text
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				logger.Log.Error("request failed",
					"request_id", c.GetString("RequestID"),
					"path", c.FullPath(),
					"status", appErr.Code,
					"error", errString(appErr.Err))
			}
			response.Text(c, appErr.Code, appErr.Message)
			return
		}

		// Never expose internal error details to clients
		logger.Log.Error("unhandled error", "request_id", c.GetString("RequestID"), "error", err)
		response.Text(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.")
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

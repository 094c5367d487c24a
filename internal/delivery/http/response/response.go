package response

import (
	"github.com/gin-gonic/gin"
)

// Response standardizes the API JSON response
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Success sends a JSON response (health and docs endpoints)
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success:   code < 400,
		Message:   message,
		Data:      data,
		RequestID: c.GetString("RequestID"),
	})
}

// Text sends a plain text body. The contact endpoint answers with text only.
func Text(c *gin.Context, code int, message string) {
	c.String(code, message)
}

package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psybot/psybot-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Fields  interface{} `json:"fields,omitempty"`
}

// RespondWithData sends a success response with the given status
func RespondWithData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Status: "success",
		Data:   data,
	})
}

// RespondWithMessage sends a bare success message
func RespondWithMessage(c *gin.Context, status int, message string) {
	c.JSON(status, Response{
		Status:  "success",
		Message: message,
	})
}

// RespondWithError renders an error response, mapping AppError codes to
// HTTP statuses and exposing field-level validation detail when present.
func RespondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"
	var fields interface{}

	if appErr, ok := errors.AsAppError(err); ok {
		status = appErr.StatusCode()
		message = appErr.Message
		if len(appErr.Fields) > 0 {
			fields = appErr.Fields
		}
	}

	c.Error(err)
	c.JSON(status, Response{
		Status:  "error",
		Message: message,
		Fields:  fields,
	})
}

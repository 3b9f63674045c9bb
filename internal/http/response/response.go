package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studyladder/internal/platform/ctxutil"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = "unknown error"
	}
	apiErr := APIError{Message: msg, Code: code, RequestID: ctxutil.RequestID(c.Request.Context())}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: apiErr})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

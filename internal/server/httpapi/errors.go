package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"todo/internal/service"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Details map[string][]string `json:"details,omitempty"`
}

func abort(c *gin.Context, status int, body errorResponse) {
	c.AbortWithStatusJSON(status, body)
}

// writeError maps a service error to its status and envelope. Unexpected
// errors are logged and reported without their cause.
func (h *handler) writeError(c *gin.Context, err error) {
	var se *service.Error
	if !errors.As(err, &se) {
		se = service.NewServerError("", err)
	}

	var status int
	body := errorResponse{Message: se.Message, Code: se.Code, Details: se.Details}
	switch se.Kind {
	case service.KindValidation:
		status = http.StatusBadRequest
	case service.KindAuth:
		status = http.StatusUnauthorized
	case service.KindNotFound:
		status = http.StatusNotFound
	default:
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		status = http.StatusInternalServerError
		body = errorResponse{Message: "Internal server error", Code: service.CodeInternal}
	}
	if body.Code == "" {
		body.Code = defaultCode(status)
	}
	abort(c, status, body)
}

func defaultCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return service.CodeValidation
	case http.StatusUnauthorized:
		return service.CodeUnauthorized
	case http.StatusNotFound:
		return service.CodeNotFound
	default:
		return service.CodeInternal
	}
}

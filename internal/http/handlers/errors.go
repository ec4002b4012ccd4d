package handlers

import (
	"net/http"

	"ferryops/internal/domain"
	"ferryops/internal/http/middleware"
	"ferryops/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	c.JSON(status, gin.H{
		"error":      message,
		"code":       code,
		"details":    details,
		"request_id": middleware.GetRequestID(c),
		"message":    message,
	})
}

// RespondDomainError maps domain errors to HTTP responses. Integrity
// errors read as bad requests to the client but the full cause goes to
// the server log, since they usually mean client/server drift or a
// concurrency anomaly worth investigating.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsIntegrity(err):
		utils.LogEvent(middleware.GetRequestID(c), "http", "integrity_error", err.Error())
		respondError(c, http.StatusBadRequest, "integrity_error", err.Error(), nil)
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		utils.LogEvent(middleware.GetRequestID(c), "http", "internal_error", err.Error())
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong", nil)
	}
}

package handlers

import (
	"net/http"

	"ferryops/internal/domain"
	"ferryops/internal/http/middleware"
	"ferryops/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	Svc services.AuthService
}

// POST /api/auth/login
func (h AuthHandler) Login(c *gin.Context) {
	var req services.LoginInput
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := h.Svc
	svc.RequestID = middleware.GetRequestID(c)

	result, err := svc.Login(req)
	if err != nil {
		// never leak which part of the credentials was wrong
		if domain.IsValidation(err) {
			RespondError(c, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// POST /api/auth/register
func (h AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := h.Svc
	svc.RequestID = middleware.GetRequestID(c)

	user, err := svc.Register(req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registered", "user": user})
}

package handlers

import (
	"net/http"

	"ferryops/internal/http/middleware"
	"ferryops/internal/services"

	"github.com/gin-gonic/gin"
)

type VerificationHandler struct {
	Svc services.VerificationService
}

func (h VerificationHandler) svc(c *gin.Context) services.VerificationService {
	s := h.Svc
	s.RequestID = middleware.GetRequestID(c)
	return s
}

type scanRequest struct {
	Payload string `json:"payload"`
}

// POST /api/verification/scan
func (h VerificationHandler) Scan(c *gin.Context) {
	ctx, ok := middleware.GetAuthContext(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing auth context", nil)
		return
	}
	var req scanRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	result, err := h.svc(c).Lookup(ctx, req.Payload)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// POST /api/verification/check-in
func (h VerificationHandler) CheckIn(c *gin.Context) {
	ctx, ok := middleware.GetAuthContext(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing auth context", nil)
		return
	}
	var req scanRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	result, err := h.svc(c).CheckIn(ctx, req.Payload)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "checked in", "result": result})
}

// GET /api/verification/tickets?branch_id=&ticket_no=
//
// Manual fallback when the printed code cannot be scanned.
func (h VerificationHandler) TicketByNo(c *gin.Context) {
	ctx, ok := middleware.GetAuthContext(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing auth context", nil)
		return
	}
	branchID := queryInt64(c, "branch_id")
	ticketNo := queryInt64(c, "ticket_no")
	if branchID <= 0 || ticketNo <= 0 {
		RespondError(c, http.StatusBadRequest, "branch_id and ticket_no are required", nil)
		return
	}
	result, err := h.svc(c).LookupTicketByNo(ctx, branchID, ticketNo)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

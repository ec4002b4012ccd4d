package handlers

import (
	"net/http"

	"ferryops/internal/http/middleware"
	"ferryops/internal/services"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	Svc  services.BookingService
	Docs services.DocsService
}

func (h BookingHandler) svc(c *gin.Context) services.BookingService {
	s := h.Svc
	s.RequestID = middleware.GetRequestID(c)
	return s
}

// POST /api/bookings
func (h BookingHandler) Create(c *gin.Context) {
	ctx, ok := middleware.GetAuthContext(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing auth context", nil)
		return
	}
	var req services.BookingCreateInput
	if !BindJSONOrError(c, &req) {
		return
	}
	detail, err := h.svc(c).CreateBooking(ctx.UserID, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// GET /api/bookings
func (h BookingHandler) List(c *gin.Context) {
	ctx, ok := middleware.GetAuthContext(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing auth context", nil)
		return
	}
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 10)

	list, total, err := h.svc(c).ListBookings(ctx.UserID, page, pageSize)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bookings":  list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GET /api/bookings/:id
func (h BookingHandler) Get(c *gin.Context) {
	ctx, ok := middleware.GetAuthContext(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing auth context", nil)
		return
	}
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc(c).GetBooking(id, ctx.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// POST /api/bookings/:id/confirm-payment
//
// Called by the payment collaborator once funds are captured.
func (h BookingHandler) ConfirmPayment(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc(c).ConfirmPayment(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment confirmed", "booking": detail})
}

// DELETE /api/bookings/:id
func (h BookingHandler) Cancel(c *gin.Context) {
	ctx, ok := middleware.GetAuthContext(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing auth context", nil)
		return
	}
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc(c).CancelBooking(id, ctx.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "booking cancelled", "booking": detail})
}

// GET /api/bookings/:id/receipt
func (h BookingHandler) Receipt(c *gin.Context) {
	ctx, ok := middleware.GetAuthContext(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing auth context", nil)
		return
	}
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	// ownership check before rendering
	if _, err := h.svc(c).GetBooking(id, ctx.UserID); err != nil {
		RespondDomainError(c, err)
		return
	}
	docs := h.Docs
	docs.RequestID = middleware.GetRequestID(c)

	pdf, filename, err := docs.GenerateBookingReceipt(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

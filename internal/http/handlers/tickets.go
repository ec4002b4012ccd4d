package handlers

import (
	"net/http"

	"ferryops/internal/http/middleware"
	"ferryops/internal/repositories"
	"ferryops/internal/services"

	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	Svc  services.TicketService
	Docs services.DocsService
}

func (h TicketHandler) svc(c *gin.Context) services.TicketService {
	s := h.Svc
	s.RequestID = middleware.GetRequestID(c)
	return s
}

// POST /api/tickets
func (h TicketHandler) Create(c *gin.Context) {
	var req services.TicketCreateInput
	if !BindJSONOrError(c, &req) {
		return
	}
	detail, err := h.svc(c).CreateTicket(req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

type multiTicketRequest struct {
	Tickets []services.TicketCreateInput `json:"tickets"`
}

// POST /api/multi-tickets
//
// Off-hours batch issuance for the operator's assigned route. The
// whole batch commits or none of it does.
func (h TicketHandler) CreateMulti(c *gin.Context) {
	ctx, ok := middleware.GetAuthContext(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing auth context", nil)
		return
	}
	var req multiTicketRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	details, err := h.svc(c).CreateMultiTickets(ctx.RouteID, req.Tickets)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tickets": details, "count": len(details)})
}

// GET /api/tickets
func (h TicketHandler) List(c *gin.Context) {
	dateFrom, ok := queryDate(c, "date_from")
	if !ok {
		return
	}
	dateTo, ok := queryDate(c, "date_to")
	if !ok {
		return
	}
	filter := repositories.TicketFilter{
		BranchID:  queryInt64(c, "branch_id"),
		RouteID:   queryInt64(c, "route_id"),
		TicketNo:  queryInt64(c, "ticket_no"),
		Status:    c.Query("status"),
		DateFrom:  dateFrom,
		DateTo:    dateTo,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 10)
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}
	filter.Limit = pageSize
	filter.Offset = (page - 1) * pageSize

	list, total, err := h.svc(c).ListTickets(filter)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tickets":   list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GET /api/tickets/:id
func (h TicketHandler) Get(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc(c).GetTicket(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// PUT /api/tickets/:id
func (h TicketHandler) Update(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req services.TicketUpdateInput
	if !BindJSONOrError(c, &req) {
		return
	}
	detail, err := h.svc(c).UpdateTicket(id, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// DELETE /api/tickets/:id
func (h TicketHandler) Cancel(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc(c).UpdateTicket(id, services.TicketUpdateInput{Cancel: true})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ticket cancelled", "ticket": detail})
}

// GET /api/tickets/:id/receipt
func (h TicketHandler) Receipt(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	docs := h.Docs
	docs.RequestID = middleware.GetRequestID(c)

	pdf, filename, err := docs.GenerateTicketReceipt(id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

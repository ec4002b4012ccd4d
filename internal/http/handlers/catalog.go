package handlers

import (
	"net/http"

	"ferryops/internal/http/middleware"
	"ferryops/internal/services"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the read-only reference data the booking form
// and the multi-ticket screen are built from.
type CatalogHandler struct {
	Svc services.RateService
}

func (h CatalogHandler) svc(c *gin.Context) services.RateService {
	s := h.Svc
	s.RequestID = middleware.GetRequestID(c)
	return s
}

// GET /api/catalog/to-branches?from_branch_id=
func (h CatalogHandler) ToBranches(c *gin.Context) {
	fromID := queryInt64(c, "from_branch_id")
	if fromID <= 0 {
		RespondError(c, http.StatusBadRequest, "from_branch_id is required", nil)
		return
	}
	branches, err := h.svc(c).ToBranches(fromID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"branches": branches})
}

// GET /api/catalog/items?from_branch_id=&to_branch_id=
func (h CatalogHandler) OnlineItems(c *gin.Context) {
	fromID := queryInt64(c, "from_branch_id")
	toID := queryInt64(c, "to_branch_id")
	if fromID <= 0 || toID <= 0 {
		RespondError(c, http.StatusBadRequest, "from_branch_id and to_branch_id are required", nil)
		return
	}
	items, err := h.svc(c).OnlineItems(fromID, toID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GET /api/catalog/departures?branch_id=
func (h CatalogHandler) Departures(c *gin.Context) {
	branchID := queryInt64(c, "branch_id")
	if branchID <= 0 {
		RespondError(c, http.StatusBadRequest, "branch_id is required", nil)
		return
	}
	schedules, err := h.svc(c).DepartureOptions(branchID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"departures": schedules})
}

// GET /api/catalog/rates?item_id=&route_id=
func (h CatalogHandler) CurrentRate(c *gin.Context) {
	itemID := queryInt64(c, "item_id")
	routeID := queryInt64(c, "route_id")
	if itemID <= 0 || routeID <= 0 {
		RespondError(c, http.StatusBadRequest, "item_id and route_id are required", nil)
		return
	}
	rate, err := h.svc(c).CurrentRate(itemID, routeID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rate)
}

// GET /api/multi-tickets/init
func (h CatalogHandler) MultiTicketInit(c *gin.Context) {
	ctx, ok := middleware.GetAuthContext(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "missing auth context", nil)
		return
	}
	data, err := h.svc(c).MultiTicketInitData(ctx.RouteID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

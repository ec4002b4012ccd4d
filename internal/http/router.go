package api

import (
	"log"
	stdhttp "net/http"

	intconfig "ferryops/internal/config"
	"ferryops/internal/domain"
	h "ferryops/internal/http/handlers"
	"ferryops/internal/http/middleware"
	"ferryops/internal/services"

	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	authSvc := services.AuthService{Secret: []byte(env.JWTSecret)}
	verifySvc := services.VerificationService{Secret: env.VerifySecret}
	docsSvc := services.DocsService{VerifySvc: verifySvc}

	authH := h.AuthHandler{Svc: authSvc}
	ticketH := h.TicketHandler{Docs: docsSvc}
	bookingH := h.BookingHandler{Docs: docsSvc}
	verifyH := h.VerificationHandler{Svc: verifySvc}
	catalogH := h.CatalogHandler{}

	staff := []string{domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleManager, domain.RoleOperator}
	checkers := []string{domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleManager, domain.RoleTicketChecker}
	elevated := []string{domain.RoleSuperAdmin, domain.RoleAdmin, domain.RoleManager}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		auth := api.Group("/auth")
		auth.POST("/login", authH.Login)
		auth.POST("/register", authH.Register)

		catalog := api.Group("/catalog")
		catalog.GET("/to-branches", catalogH.ToBranches)
		catalog.GET("/items", catalogH.OnlineItems)
		catalog.GET("/departures", catalogH.Departures)
		catalog.GET("/rates", middleware.RequireAuth(authSvc, staff...), catalogH.CurrentRate)

		tickets := api.Group("/tickets", middleware.RequireAuth(authSvc, staff...))
		tickets.POST("", ticketH.Create)
		tickets.GET("", ticketH.List)
		tickets.GET("/:id", ticketH.Get)
		tickets.PUT("/:id", ticketH.Update)
		tickets.DELETE("/:id", ticketH.Cancel)
		tickets.GET("/:id/receipt", ticketH.Receipt)

		multi := api.Group("/multi-tickets", middleware.RequireAuth(authSvc, staff...))
		multi.GET("/init", catalogH.MultiTicketInit)
		multi.POST("", ticketH.CreateMulti)

		bookings := api.Group("/bookings", middleware.RequireAuth(authSvc, domain.RolePortalUser))
		bookings.POST("", bookingH.Create)
		bookings.GET("", bookingH.List)
		bookings.GET("/:id", bookingH.Get)
		bookings.DELETE("/:id", bookingH.Cancel)
		bookings.GET("/:id/receipt", bookingH.Receipt)

		// payment confirmation comes from back-office, not the portal
		api.POST("/bookings/:id/confirm-payment",
			middleware.RequireAuth(authSvc, elevated...), bookingH.ConfirmPayment)

		verification := api.Group("/verification", middleware.RequireAuth(authSvc, checkers...))
		verification.POST("/scan", verifyH.Scan)
		verification.POST("/check-in", verifyH.CheckIn)
		verification.GET("/tickets", verifyH.TicketByNo)
	}

	return r
}

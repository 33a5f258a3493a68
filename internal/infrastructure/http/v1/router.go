// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/auth"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/documents/invoice"
	pr "stockledger/internal/domain/documents/purchase_request"
	sr "stockledger/internal/domain/documents/scheduling_request"
	"stockledger/internal/domain/registers/stock"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/pkg/logger"
)

// RouterConfig holds everything the router wires into handlers.
type RouterConfig struct {
	Logger *logger.Logger

	// JWTValidator resolves the caller from the bearer token.
	JWTValidator middleware.JWTValidator

	// Roles re-reads the caller's profile role for privileged routes.
	Roles middleware.RoleChecker

	// Idempotency is optional; nil disables X-Idempotency-Key handling.
	Idempotency middleware.IdempotencyStore

	// Health backs the readiness check.
	Health handlers.Pinger

	CORSAllowedOrigins []string

	Stock             *stock.Service
	Products          *product.Service
	PurchaseRequests  *pr.Service
	Invoices          *invoice.Service
	SchedulingRequest *sr.Service
}

// NewRouter creates and configures the Gin router.
// Call dto.RegisterValidators before the first request.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Global middleware (order matters!)
	// Recovery sits inside ErrorHandler so a recovered panic is still rendered.
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	// Preflight without an Origin header still gets an empty 200.
	router.OPTIONS("/*path", handlers.Preflight)

	healthHandler := handlers.NewHealthHandler(cfg.Health)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))
	if cfg.Idempotency != nil {
		protected.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()
	registerStockRoutes(protected, base, cfg)
	registerProductRoutes(protected, base, cfg)
	registerPurchaseRequestRoutes(protected, base, cfg)
	registerInvoiceRoutes(protected, base, cfg)
	registerSchedulingRoutes(protected, base, cfg)

	return router
}

func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewStockHandler(base, cfg.Stock, cfg.Products)
	managers := middleware.RequireProfileRole(cfg.Roles, auth.StockManagers...)

	g := rg.Group("/stock")
	g.POST("/transactions", h.Transaction)
	g.POST("/transfers", managers, h.Transfer)
	g.POST("/adjustments", managers, h.Adjust)
	g.GET("/inventory", h.Inventory)
	g.GET("/ledger", h.Ledger)
	g.GET("/reconcile", h.Reconcile)
	g.GET("/low-stock", h.LowStock)
}

func registerProductRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewProductHandler(base, cfg.Products)

	g := rg.Group("/products")
	g.GET("", h.List)
	g.POST("", middleware.RequireProfileRole(cfg.Roles, auth.StockManagers...), h.Create)
	g.GET("/:id", h.Get)
}

func registerPurchaseRequestRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewPurchaseRequestHandler(base, cfg.PurchaseRequests)
	admins := middleware.RequireProfileRole(cfg.Roles, auth.Admins...)

	g := rg.Group("/purchase-requests")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.POST("/close", middleware.RequireProfileRole(cfg.Roles, auth.StockManagers...), h.Close)
	g.GET("/:id", h.Get)
	g.POST("/:id/approve", admins, h.Approve)
	g.POST("/:id/reject", admins, h.Reject)
	g.POST("/:id/document", h.AttachDocument)
}

func registerInvoiceRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewInvoiceHandler(base, cfg.Invoices)

	g := rg.Group("/invoices")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
}

func registerSchedulingRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewSchedulingRequestHandler(base, cfg.SchedulingRequest)
	managers := middleware.RequireProfileRole(cfg.Roles, auth.StockManagers...)

	g := rg.Group("/scheduling-requests")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.POST("/:id/approve", managers, h.Approve)
	g.POST("/:id/reject", managers, h.Reject)
}

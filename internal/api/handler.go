package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"pasteleria/internal/auth"
	"pasteleria/internal/service"
	"pasteleria/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services groups the application services served over HTTP
type Services struct {
	Catalog       *service.CatalogService
	Cart          *service.CartService
	Orders        *service.OrderService
	Invoices      *service.InvoiceService
	Reviews       *service.ReviewService
	Notifications *service.NotificationService
	Dashboard     *service.DashboardService
	Auth          *service.AuthService
}

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	svc    Services
	tokens *auth.TokenManager
	checks []readinessDep
	logger *zap.Logger
}

type readinessDep struct {
	name string
	p    Pinger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, tokens *auth.TokenManager, db Pinger) *Handler {
	return &Handler{
		svc:    svc,
		tokens: tokens,
		checks: []readinessDep{{name: "database", p: db}},
		logger: util.Component("api"),
	}
}

// AddReadinessCheck makes /ready also depend on p answering
func (h *Handler) AddReadinessCheck(name string, p Pinger) {
	h.checks = append(h.checks, readinessDep{name: name, p: p})
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authn := router.Group("/auth")
	{
		authn.POST("/registro", h.register)
		authn.POST("/login", h.login)
	}

	products := router.Group("/productos")
	{
		products.GET("", h.listProducts)
		products.GET("/categorias", h.listCategories)
		products.GET("/:id", h.getProduct)
		products.GET("/:id/resenas", h.listProductReviews)
	}

	signedIn := h.authRequired()
	admin := requireRole(auth.RoleAdmin)

	cart := router.Group("/carrito/api", signedIn)
	{
		cart.GET("", h.getCart)
		cart.POST("/add", h.addCartItem)
		cart.PUT("/update", h.updateCartItem)
		cart.DELETE("/remove", h.removeCartItem)
	}

	orders := router.Group("/pedidos/api", signedIn)
	{
		orders.POST("/checkout", h.checkout)
		orders.GET("/mis-compras", h.myOrders)
		orders.GET("/:id", h.getMyOrder)
	}

	router.POST("/resenas/crear", signedIn, h.createReview)

	invoices := router.Group("/factura", signedIn)
	{
		invoices.GET("/descargar/:id", h.downloadInvoice)
		invoices.GET("/estado/:id", h.invoiceStatus)
		invoices.GET("/admin/descargar/:id", admin, h.downloadInvoice)
	}

	backOffice := router.Group("/admin", signedIn, admin)
	{
		backOffice.GET("/dashboard", h.dashboard)

		backOffice.GET("/productos", h.listProducts)
		backOffice.POST("/productos", h.createProduct)
		backOffice.PUT("/productos/:id", h.updateProduct)
		backOffice.DELETE("/productos/:id", h.deleteProduct)

		backOffice.GET("/pedidos", h.listOrders)
		backOffice.GET("/pedidos/:id", h.getOrder)
		backOffice.POST("/pedidos/:id/estado", h.updateOrderStatus)

		backOffice.GET("/resenas", h.listPendingReviews)
		backOffice.POST("/resenas/:id/aprobar", h.approveReview)
		backOffice.POST("/resenas/:id/rechazar", h.rejectReview)

		backOffice.GET("/clientes/:id/estadisticas", h.customerStats)
	}

	notifications := router.Group("/api/admin/notificaciones", signedIn, admin)
	{
		notifications.GET("/alertas", h.alerts)
		notifications.GET("/mensajes", h.messages)
		notifications.GET("/resumen", h.notificationSummary)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only while every dependency answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	for _, dep := range h.checks {
		if err := dep.p.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", dep.name), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "unavailable",
				"dependency": dep.name,
				"time":       time.Now().Unix(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

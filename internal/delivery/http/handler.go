package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "orderdesk/docs"
	"orderdesk/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handler struct {
	svc     service.API
	origins []string
}

type Option func(*Handler)

// WithAllowedOrigins restricts CORS to origins; "*" or none allows all.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) { h.origins = origins }
}

func NewHandler(s service.API, opts ...Option) *Handler {
	h := &Handler{svc: s}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), observe(), corsMiddleware(h.origins))

	router.GET("/healthz", h.health)
	router.GET("/readyz", h.ready)

	api := router.Group("/api")
	{
		api.GET("/dashboard", h.GetDashboard)

		customers := api.Group("/customers")
		{
			customers.GET("", h.ListCustomers)
			customers.POST("", h.CreateCustomer)
			customers.GET("/:id", h.GetCustomer)
			customers.PUT("/:id", h.UpdateCustomer)
			customers.DELETE("/:id", h.DeleteCustomer)
			customers.GET("/:id/orders", h.GetCustomerOrders)
			customers.POST("/:id/addresses", h.AddAddress)
			customers.DELETE("/:id/addresses/:addressId", h.RemoveAddress)
			customers.PUT("/:id/addresses/:addressId/default", h.SetDefaultAddress)
		}

		orders := api.Group("/orders")
		{
			orders.GET("", h.ListOrders)
			orders.POST("", h.CreateOrder)
			orders.GET("/:id", h.GetOrder)
			orders.PUT("/:id", h.UpdateOrder)
			orders.DELETE("/:id", h.DeleteOrder)
			orders.PUT("/:id/status", h.UpdateOrderStatus)
			orders.POST("/:id/comments", h.AddOrderComment)
		}

		shipments := api.Group("/shipments")
		{
			shipments.GET("", h.ListShipments)
			shipments.GET("/:id", h.GetShipment)
			shipments.PUT("/:id/status", h.UpdateShipmentStatus)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			newErrorResponse(c, http.StatusNotFound, "not found")
			return
		}
		newErrorResponse(c, http.StatusNotFound, "page not found")
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}

func (h *Handler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.svc.Ready(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, statusResponse{Status: "unavailable"})
		return
	}
	c.JSON(http.StatusOK, statusResponse{Status: "ready"})
}

func pathID(c *gin.Context, name string) (string, bool) {
	id := strings.TrimSpace(c.Param(name))
	if id == "" {
		newErrorResponse(c, http.StatusBadRequest, "missing "+name)
		return "", false
	}
	return id, true
}

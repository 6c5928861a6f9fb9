package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"cafeteria-system/internal/domain"
	"cafeteria-system/internal/metrics"
	"cafeteria-system/internal/notify"
	"cafeteria-system/internal/order"
)

// OrderService is the placement/listing surface the handlers call.
type OrderService interface {
	Place(ctx context.Context, req domain.CreateOrderRequest) (int64, error)
	List(ctx context.Context) ([]domain.Order, error)
	SetStatus(ctx context.Context, id int64, status domain.OrderStatus) error
}

// CatalogStore is the admin-facing store surface.
type CatalogStore interface {
	Menu(ctx context.Context) (domain.Menu, error)
	CreateCategory(ctx context.Context, name string) (int64, error)
	UpdateCategory(ctx context.Context, id int64, name string) error
	DeleteCategory(ctx context.Context, id int64) error
	CreateItem(ctx context.Context, item domain.Item, toppingIDs []int64) (int64, error)
	UpdateItem(ctx context.Context, id int64, upd domain.ItemUpdate) error
	DeleteItem(ctx context.Context, id int64) error
	CreateTopping(ctx context.Context, t domain.Topping) (int64, error)
	DeleteTopping(ctx context.Context, id int64) error
	StatusLog(ctx context.Context, orderID int64) ([]domain.StatusChange, error)
}

type Handler struct {
	orders  OrderService
	catalog CatalogStore
	hub     *notify.Hub
	bus     order.Bus
	ping    func() error // broker liveness, nil when running without one
	log     *logrus.Entry
}

func NewHandler(orders OrderService, catalog CatalogStore, hub *notify.Hub, bus order.Bus, ping func() error, log *logrus.Entry) *Handler {
	return &Handler{orders: orders, catalog: catalog, hub: hub, bus: bus, ping: ping, log: log}
}

// NewRouter wires all routes. No authentication exists on the admin
// mutations; an authorization boundary has to sit in front of this
// router before it is exposed beyond the counter network.
func NewRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.PrometheusMiddleware("cafeteria-system"))

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/menu", h.getMenu)
		api.GET("/events", h.streamEvents)

		api.POST("/orders", h.createOrder)
		api.GET("/orders", h.listOrders)
		api.PATCH("/orders/:id/status", h.updateOrderStatus)
		api.GET("/orders/:id/log", h.orderStatusLog)

		api.POST("/items", h.createItem)
		api.PATCH("/items/:id", h.updateItem)
		api.DELETE("/items/:id", h.deleteItem)

		api.POST("/categories", h.createCategory)
		api.PATCH("/categories/:id", h.updateCategory)
		api.DELETE("/categories/:id", h.deleteCategory)

		api.POST("/toppings", h.createTopping)
		api.DELETE("/toppings/:id", h.deleteTopping)
	}
	return r
}

func (h *Handler) health(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

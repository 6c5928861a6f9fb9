package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cafeteria-system/internal/domain"
	"cafeteria-system/internal/order"
)

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func (h *Handler) createOrder(c *gin.Context) {
	var req domain.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := h.orders.Place(c.Request.Context(), req)
	if err != nil {
		status, msg := orderErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.log.WithError(err).Error("order placement failed")
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, domain.CreateOrderResponse{Success: true, OrderID: id})
}

// orderErrorStatus maps placement failures to responses. Validation
// failures are 400, a stock conflict is 409 naming the item (the client
// should re-fetch the menu and adjust), everything else is a generic 500
// that is safe to retry.
func orderErrorStatus(err error) (int, string) {
	var (
		stockErr *order.InsufficientStockError
		qtyErr   *order.InvalidQuantityError
	)
	switch {
	case errors.Is(err, order.ErrEmptyOrder):
		return http.StatusBadRequest, "No items in order"
	case errors.Is(err, order.ErrMissingCustomer):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &qtyErr):
		return http.StatusBadRequest, qtyErr.Error()
	case errors.As(err, &stockErr):
		return http.StatusConflict, stockErr.Error()
	default:
		return http.StatusInternalServerError, "Failed to create order"
	}
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("list orders failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req domain.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := h.orders.SetStatus(c.Request.Context(), id, domain.OrderStatus(req.Status))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, order.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, order.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.WithFields(logrus.Fields{"order_id": id}).WithError(err).Error("status update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) orderStatusLog(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	log, err := h.catalog.StatusLog(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, log)
	case errors.Is(err, order.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cafeteria-system/internal/domain"
	"cafeteria-system/internal/repository"
)

// Admin mutations. Each broadcasts menu_updated after the write commits
// so every connected viewer re-fetches the menu.

func (h *Handler) createCategory(c *gin.Context) {
	var req domain.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	id, err := h.catalog.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.bus.Broadcast(domain.MenuUpdated)
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req domain.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := h.catalog.UpdateCategory(c.Request.Context(), id, req.Name); err != nil {
		h.adminError(c, err)
		return
	}
	h.bus.Broadcast(domain.MenuUpdated)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		h.adminError(c, err)
		return
	}
	h.bus.Broadcast(domain.MenuUpdated)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) createItem(c *gin.Context) {
	var req domain.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.CategoryID == 0 || req.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category_id and a non-negative price are required"})
		return
	}
	item := domain.Item{
		CategoryID:  req.CategoryID,
		NameHe:      req.NameHe,
		NameEn:      req.NameEn,
		Price:       req.Price,
		HasToppings: req.HasToppings,
		MaxToppings: req.MaxToppings,
		Stock:       req.Stock,
		IsHidden:    req.IsHidden,
	}
	id, err := h.catalog.CreateItem(c.Request.Context(), item, req.Toppings)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.bus.Broadcast(domain.MenuUpdated)
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func (h *Handler) updateItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req domain.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	upd, err := resolveItemUpdate(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.catalog.UpdateItem(c.Request.Context(), id, upd); err != nil {
		h.adminError(c, err)
		return
	}
	h.bus.Broadcast(domain.MenuUpdated)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// resolveItemUpdate turns the raw stock field into the tri-state the
// store expects: absent, explicit null (clear the ceiling), or a number.
func resolveItemUpdate(req domain.UpdateItemRequest) (domain.ItemUpdate, error) {
	upd := domain.ItemUpdate{
		Price:       req.Price,
		NameHe:      req.NameHe,
		NameEn:      req.NameEn,
		HasToppings: req.HasToppings,
		MaxToppings: req.MaxToppings,
		IsHidden:    req.IsHidden,
		Toppings:    req.Toppings,
	}
	if len(req.Stock) > 0 {
		upd.StockSet = true
		if !bytes.Equal(bytes.TrimSpace(req.Stock), []byte("null")) {
			var n int
			if err := json.Unmarshal(req.Stock, &n); err != nil {
				return domain.ItemUpdate{}, errors.New("stock must be a number or null")
			}
			if n < 0 {
				return domain.ItemUpdate{}, errors.New("stock must not be negative")
			}
			upd.Stock = &n
		}
	}
	return upd, nil
}

func (h *Handler) deleteItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteItem(c.Request.Context(), id); err != nil {
		h.adminError(c, err)
		return
	}
	h.bus.Broadcast(domain.MenuUpdated)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) createTopping(c *gin.Context) {
	var req domain.CreateToppingRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Price < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := h.catalog.CreateTopping(c.Request.Context(), domain.Topping{
		NameHe: req.NameHe,
		NameEn: req.NameEn,
		Price:  req.Price,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.bus.Broadcast(domain.MenuUpdated)
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func (h *Handler) deleteTopping(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.catalog.DeleteTopping(c.Request.Context(), id); err != nil {
		h.adminError(c, err)
		return
	}
	h.bus.Broadcast(domain.MenuUpdated)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) adminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, repository.ErrCategoryNotEmpty), errors.Is(err, repository.ErrItemInUse):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.WithError(err).Error("admin operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getMenu(c *gin.Context) {
	menu, err := h.catalog.Menu(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("menu fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, menu)
}

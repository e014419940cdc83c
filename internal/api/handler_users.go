package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListUsers handles GET /api/users.
func (h *Handler) ListUsers(c *gin.Context) {
	all, err := h.users.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

// UserEquipment handles GET /api/users/:legajo/equipment, the
// equipment currently assigned to one user.
func (h *Handler) UserEquipment(c *gin.Context) {
	legajo := c.Param("legajo")
	if _, err := h.users.FindByBusinessKey(c.Request.Context(), legajo); err != nil {
		abortWithError(c, err)
		return
	}
	items, err := h.registry.ListByAssignee(c.Request.Context(), legajo)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

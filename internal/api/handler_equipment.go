package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"asset-registry-backend/internal/model"
	"asset-registry-backend/internal/registry"
)

// equipmentRequest is the external write shape for equipment. Enum
// fields arrive as wire tokens and are parsed, never defaulted.
type equipmentRequest struct {
	Category        string  `json:"category" binding:"required"`
	Brand           string  `json:"brand" binding:"required"`
	Model           string  `json:"model" binding:"required"`
	SerialNumber    *string `json:"serial_number"`
	InventoryNumber string  `json:"inventory_number"`
	State           string  `json:"state" binding:"required"`
	Site            string  `json:"site" binding:"required"`
	RegisteredOn    *string `json:"registered_on"` // RFC3339, optional
	Notes           string  `json:"notes"`
	UserKey         string  `json:"user_key"` // create-and-assign when set
}

func (r *equipmentRequest) toSpec() (registry.Spec, error) {
	category, err := model.ParseCategory(r.Category)
	if err != nil {
		return registry.Spec{}, err
	}
	state, err := model.ParseLifecycleState(r.State)
	if err != nil {
		return registry.Spec{}, err
	}
	site, err := model.ParseSite(r.Site)
	if err != nil {
		return registry.Spec{}, err
	}

	var registeredOn *time.Time
	if r.RegisteredOn != nil && *r.RegisteredOn != "" {
		t, err := time.Parse(time.RFC3339, *r.RegisteredOn)
		if err != nil {
			return registry.Spec{}, &model.InvalidEnumError{Kind: "registered_on", Value: *r.RegisteredOn}
		}
		registeredOn = &t
	}

	return registry.Spec{
		Category:        category,
		Brand:           r.Brand,
		Model:           r.Model,
		SerialNumber:    r.SerialNumber,
		InventoryNumber: r.InventoryNumber,
		State:           state,
		Site:            site,
		RegisteredOn:    registeredOn,
		Notes:           r.Notes,
	}, nil
}

// CreateEquipment handles POST /api/equipment. With a user_key the
// creation and first assignment happen atomically.
func (h *Handler) CreateEquipment(c *gin.Context) {
	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	spec, err := req.toSpec()
	if err != nil {
		abortWithError(c, err)
		return
	}

	var created *model.Equipment
	if req.UserKey != "" {
		created, err = h.coordinator.CreateAndAssign(c.Request.Context(), h.actor(c), spec, req.UserKey)
	} else {
		created, err = h.coordinator.Create(c.Request.Context(), h.actor(c), spec)
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetEquipment handles GET /api/equipment/:id.
func (h *Handler) GetEquipment(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		return
	}
	equipment, err := h.registry.FindByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, equipment)
}

// UpdateEquipment handles PUT /api/equipment/:id.
func (h *Handler) UpdateEquipment(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		return
	}
	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	spec, err := req.toSpec()
	if err != nil {
		abortWithError(c, err)
		return
	}

	updated, err := h.coordinator.Update(c.Request.Context(), h.actor(c), id, spec)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteEquipment handles DELETE /api/equipment/:id.
func (h *Handler) DeleteEquipment(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		return
	}
	if err := h.coordinator.Delete(c.Request.Context(), h.actor(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SearchEquipment handles GET /api/equipment with q, category and page
// query parameters.
func (h *Handler) SearchEquipment(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))

	var category *model.Category
	if raw := c.Query("category"); raw != "" {
		parsed, err := model.ParseCategory(raw)
		if err != nil {
			abortWithError(c, err)
			return
		}
		category = &parsed
	}

	result, err := h.registry.Search(c.Request.Context(), c.Query("q"), category, page)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type assignRequest struct {
	UserKey     string `json:"user_key" binding:"required"`
	Attribution string `json:"attribution"`
}

// AssignEquipment handles POST /api/equipment/:id/assign.
func (h *Handler) AssignEquipment(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.coordinator.Assign(c.Request.Context(), h.actor(c), id, req.UserKey, req.Attribution); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "assigned"})
}

// UnassignEquipment handles POST /api/equipment/:id/unassign.
func (h *Handler) UnassignEquipment(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		return
	}
	if err := h.coordinator.Unassign(c.Request.Context(), h.actor(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unassigned"})
}

// EquipmentHistory handles GET /api/equipment/:id/history.
func (h *Handler) EquipmentHistory(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		return
	}
	if _, err := h.registry.FindByID(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	history, err := h.ledger.HistoryFor(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// BackfillEquipment handles POST /api/equipment/:id/backfill, the
// maintenance repair for pre-tracking assignment data.
func (h *Handler) BackfillEquipment(c *gin.Context) {
	id, ok := equipmentID(c)
	if !ok {
		return
	}
	created, err := h.coordinator.Backfill(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"backfilled": created})
}

// EquipmentStats handles GET /api/stats.
func (h *Handler) EquipmentStats(c *gin.Context) {
	stats, err := h.registry.Stats(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func equipmentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid equipment id"})
		return 0, false
	}
	return id, true
}

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"asset-registry-backend/internal/audit"
	"asset-registry-backend/internal/model"
)

// GetAuditPage handles GET /api/audit with actor, critical,
// entity_type, verb and page query parameters.
func (h *Handler) GetAuditPage(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := audit.Filter{
		Actor:        c.Query("actor"),
		CriticalOnly: c.Query("critical") == "true",
		EntityType:   c.Query("entity_type"),
		Verb:         model.Verb(c.Query("verb")),
	}

	result, err := h.recorder.FindPage(c.Request.Context(), filter, page, size)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAuditStats handles GET /api/audit/stats: totals, critical count
// and failed logins since midnight UTC.
func (h *Handler) GetAuditStats(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.recorder.Count(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}
	critical, err := h.recorder.CountCritical(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}
	todayStart := time.Now().UTC().Truncate(24 * time.Hour)
	failedLogins, err := h.recorder.CountByVerbSince(ctx, model.VerbLoginFailed, todayStart)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_activities":    total,
		"critical_activities": critical,
		"failed_logins_today": failedLogins,
	})
}

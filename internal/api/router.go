package api

import (
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"asset-registry-backend/config"
	"asset-registry-backend/internal/mw"
)

// NewRouter creates and configures the Gin router. Reads are public
// and cached; mutating routes require an authenticated actor so every
// audit entry carries a real actor name.
func NewRouter(h *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst,
		mw.ClientIPKey(cfg.RequestIPHeader))

	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/login", h.Login)

		api.GET("/equipment", caching, h.SearchEquipment)
		api.GET("/equipment/:id", h.GetEquipment)
		api.GET("/equipment/:id/history", h.EquipmentHistory)
		api.GET("/users", caching, h.ListUsers)
		api.GET("/users/:legajo/equipment", h.UserEquipment)
		api.GET("/audit", h.GetAuditPage)
		api.GET("/audit/stats", h.GetAuditStats)
		api.GET("/stats", caching, h.EquipmentStats)

		authed := api.Group("")
		authed.Use(h.auth.RequireActor())
		{
			authed.POST("/logout", h.Logout)
			authed.POST("/equipment", h.CreateEquipment)
			authed.PUT("/equipment/:id", h.UpdateEquipment)
			authed.DELETE("/equipment/:id", h.DeleteEquipment)
			authed.POST("/equipment/:id/assign", h.AssignEquipment)
			authed.POST("/equipment/:id/unassign", h.UnassignEquipment)
			authed.POST("/equipment/:id/backfill", h.BackfillEquipment)
		}
	}

	return r
}

package api

import (
	"github.com/gin-gonic/gin"

	"asset-registry-backend/internal/audit"
	"asset-registry-backend/internal/auth"
	"asset-registry-backend/internal/ledger"
	"asset-registry-backend/internal/lifecycle"
	"asset-registry-backend/internal/registry"
	"asset-registry-backend/internal/users"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	coordinator *lifecycle.Coordinator
	registry    *registry.Registry
	ledger      *ledger.Ledger
	recorder    *audit.Recorder
	users       *users.Directory
	auth        *auth.Service
}

// NewHandler creates a new API handler.
func NewHandler(coordinator *lifecycle.Coordinator, reg *registry.Registry, led *ledger.Ledger,
	recorder *audit.Recorder, dir *users.Directory, authSvc *auth.Service) *Handler {
	return &Handler{
		coordinator: coordinator,
		registry:    reg,
		ledger:      led,
		recorder:    recorder,
		users:       dir,
		auth:        authSvc,
	}
}

// actor builds the explicit actor identity for coordinator calls from
// the authenticated request.
func (h *Handler) actor(c *gin.Context) lifecycle.Actor {
	return lifecycle.Actor{
		Name: c.GetString(auth.ActorKey),
		IP:   c.ClientIP(),
	}
}

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"asset-registry-backend/internal/auth"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password, c.ClientIP())
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout handles POST /api/logout for an authenticated actor.
func (h *Handler) Logout(c *gin.Context) {
	h.auth.Logout(c.Request.Context(), c.GetString(auth.ActorKey), c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

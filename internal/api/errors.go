package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"asset-registry-backend/internal/model"
)

// abortWithError translates domain errors into specific responses and
// everything else into a generic 500 without leaking internals.
func abortWithError(c *gin.Context, err error) {
	var notFound *model.NotFoundError
	var duplicate *model.DuplicateSerialError
	var invalidEnum *model.InvalidEnumError

	switch {
	case errors.As(err, &notFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &duplicate):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": duplicate.Error()})
	case errors.As(err, &invalidEnum):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": invalidEnum.Error()})
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

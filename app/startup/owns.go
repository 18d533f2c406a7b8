// Package startup holds the handlers of the /api/startups routes
package startup

import (
	"errors"
	"hungrypanda/hub-api/internal"
	"hungrypanda/hub-api/internal/model"
	"hungrypanda/hub-api/internal/store"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// parseID reads the :id path parameter. It writes the error response
// itself and returns false when the ID is invalid.
func parseID(c *gin.Context, requestID string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid startup ID",
			"requestID": requestID,
		})
		return 0, false
	}

	return uint(id), true
}

// ownedStartup loads the startup in the path and checks it belongs to
// the caller. It writes the error response itself and returns false on
// any failure.
func ownedStartup(c *gin.Context, d *internal.Deps, requestID string) (*model.Startup, bool) {
	userID := c.MustGet("userID").(string)

	id, ok := parseID(c, requestID)
	if !ok {
		return nil, false
	}

	s, err := d.Startups.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Startup not found",
				"requestID": requestID,
			})
			return nil, false
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch startup", zap.Error(err), zap.String("requestID", requestID))
		return nil, false
	}

	if s.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "You don't own this startup",
			"requestID": requestID,
		})
		return nil, false
	}

	return s, true
}

package startup

import (
	"errors"
	"hungrypanda/hub-api/internal"
	"hungrypanda/hub-api/internal/model"
	"hungrypanda/hub-api/internal/store"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func StartupList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	startups, err := d.Startups.List(c.Request.Context(), model.StartupFilter{
		Industry: c.Query("industry"),
		Stage:    c.Query("stage"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list startups", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, startups)
}

func StartupFetch(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	id, ok := parseID(c, requestID)
	if !ok {
		return
	}

	s, err := d.Startups.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Startup not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch startup", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, s)
}

package startup

import (
	"hungrypanda/hub-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func StartupDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	s, ok := ownedStartup(c, d, requestID)
	if !ok {
		return
	}

	if err := d.Startups.Delete(c.Request.Context(), s.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete startup", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	// The startup is gone either way, leftover objects are only logged
	if err := d.Logos.Purge(c.Request.Context(), s.ID); err != nil {
		zap.L().Error("Failed to purge startup logos", zap.Error(err), zap.String("requestID", requestID))
	}

	c.Status(http.StatusNoContent)
}

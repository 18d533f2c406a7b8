package auth

import (
	"errors"
	"hungrypanda/hub-api/internal"
	"hungrypanda/hub-api/internal/store"
	"hungrypanda/hub-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Me returns the stored record of the token subject, not the claims
func Me(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	id := middleware.CurrentIdentity(c)

	u, err := d.Users.GetByID(c.Request.Context(), id.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "User not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, u)
}

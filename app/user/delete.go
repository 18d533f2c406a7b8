package user

import (
	"errors"
	"hungrypanda/hub-api/internal"
	"hungrypanda/hub-api/internal/store"
	"hungrypanda/hub-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserDelete removes the account of the calling user. Their access tokens
// stay valid until expiry but /auth/me stops finding them.
func UserDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	id := middleware.CurrentIdentity(c)

	if c.Param("id") != id.ID {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "You can only delete your own account",
			"requestID": requestID,
		})
		return
	}

	if err := d.Users.Delete(c.Request.Context(), id.ID); err != nil {
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

		zap.L().Error("Failed to delete user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Status(http.StatusNoContent)
}

package user

import (
	"errors"
	"hungrypanda/hub-api/internal"
	"hungrypanda/hub-api/internal/model"
	"hungrypanda/hub-api/internal/store"
	"hungrypanda/hub-api/pkg/middleware"
	"hungrypanda/hub-api/pkg/validators"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserUpdate changes the profile of the calling user. Tokens minted before
// the change keep carrying the old username.
func UserUpdate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	id := middleware.CurrentIdentity(c)

	if c.Param("id") != id.ID {
		c.JSON(http.StatusForbidden, gin.H{
			"error":     "You can only update your own profile",
			"requestID": requestID,
		})
		return
	}

	var data model.UserProfile
	if err := c.ShouldBindJSON(&data); err != nil {
		if middleware.IsBodyTooLarge(err) {
			c.Error(err)
			return
		}

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})
		return
	}

	if data.Username != nil {
		username := strings.TrimSpace(*data.Username)
		if err := validators.UsernameValidator(username); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     err.Error(),
				"requestID": requestID,
			})
			return
		}
		data.Username = &username
	}

	if data.FullName != nil {
		fullName := strings.TrimSpace(*data.FullName)
		data.FullName = &fullName
	}

	u, err := d.Users.UpdateProfile(c.Request.Context(), id.ID, &data)
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

		zap.L().Error("Failed to update user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, u)
}

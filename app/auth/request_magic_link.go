// Package auth holds the handlers of the /auth routes
package auth

import (
	"errors"
	"hungrypanda/hub-api/internal"
	"hungrypanda/hub-api/internal/service"
	"hungrypanda/hub-api/pkg/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type magicLinkBody struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

func RequestMagicLink(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data magicLinkBody
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

	link, err := d.MagicLinks.Issue(c.Request.Context(), data.Email, data.Username)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     err.Error(),
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to issue magic link", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"magic_link": link,
	})
}

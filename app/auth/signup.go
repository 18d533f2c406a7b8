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

func Signup(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data service.SignupRequest
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

	u, err := d.Accounts.Signup(c.Request.Context(), &data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Email already registered",
				"requestID": requestID,
			})
		case errors.Is(err, service.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     err.Error(),
				"requestID": requestID,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to register user", zap.Error(err), zap.String("requestID", requestID))
		}
		return
	}

	c.JSON(http.StatusCreated, u)
}

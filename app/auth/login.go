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

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Login(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data loginBody
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

	if data.Email == "" || data.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Email and password are required",
			"requestID": requestID,
		})
		return
	}

	u, err := d.Accounts.Login(c.Request.Context(), data.Email, data.Password)
	if err != nil {
		if errors.Is(err, service.ErrBadCredentials) {
			c.Header("WWW-Authenticate", "Bearer")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":     "Incorrect email or password",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to log in user", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	accessToken, err := d.Tokens.Mint(u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to mint access token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	})
}

// Logout only exists for clients that expect it. Access tokens are
// stateless and stay valid until they expire.
func Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Successfully logged out",
	})
}

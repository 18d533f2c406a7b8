package auth

import (
	"errors"
	"hungrypanda/hub-api/internal"
	"hungrypanda/hub-api/internal/model"
	"hungrypanda/hub-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        *model.User `json:"user,omitempty"`
}

// Verify redeems the magic link token in the query for an access token
func Verify(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "No magic link token provided",
			"requestID": requestID,
		})
		return
	}

	// The link is spent before the access token is minted. A failed mint
	// costs the user a new link, never a second redemption.
	u, err := d.MagicLinks.Redeem(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrExpired) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Invalid or expired magic link",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to redeem magic link", zap.Error(err), zap.String("requestID", requestID))
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
		User:        u,
	})
}

package startup

import (
	"hungrypanda/hub-api/internal"
	"hungrypanda/hub-api/internal/model"
	"hungrypanda/hub-api/pkg/middleware"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createBody struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Industry    *string `json:"industry"`
	Stage       *string `json:"stage"`
	Website     *string `json:"website"`
}

// StartupCreate registers a startup owned by the caller
func StartupCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	userID := c.MustGet("userID").(string)

	var data createBody
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

	data.Name = strings.TrimSpace(data.Name)
	data.Description = strings.TrimSpace(data.Description)

	if data.Name == "" || data.Description == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Name and description are required",
			"requestID": requestID,
		})
		return
	}

	s := &model.Startup{
		Name:        data.Name,
		Description: data.Description,
		Industry:    data.Industry,
		Stage:       data.Stage,
		Website:     data.Website,
		OwnerID:     userID,
	}

	if err := d.Startups.Create(c.Request.Context(), s); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create startup", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, s)
}

package startup

import (
	"hungrypanda/hub-api/internal"
	"hungrypanda/hub-api/internal/model"
	"hungrypanda/hub-api/pkg/middleware"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type updateBody struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Industry    *string `json:"industry"`
	Stage       *string `json:"stage"`
	Website     *string `json:"website"`
}

// StartupUpdate applies the provided fields to a startup of the caller
func StartupUpdate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	s, ok := ownedStartup(c, d, requestID)
	if !ok {
		return
	}

	var data updateBody
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

	for _, f := range []*string{data.Name, data.Description} {
		if f != nil && strings.TrimSpace(*f) == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "Name and description can't be empty",
				"requestID": requestID,
			})
			return
		}
	}

	updated, err := d.Startups.Update(c.Request.Context(), s.ID, &model.StartupUpdate{
		Name:        data.Name,
		Description: data.Description,
		Industry:    data.Industry,
		Stage:       data.Stage,
		Website:     data.Website,
	}, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to update startup", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, updated)
}

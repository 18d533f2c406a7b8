// Package resource holds the handlers of the /api/resources routes
package resource

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
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	URL         *string `json:"url"`
	Content     *string `json:"content"`
}

func ResourceCreate(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

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

	r := &model.Resource{
		Title:       strings.TrimSpace(data.Title),
		Description: strings.TrimSpace(data.Description),
		Category:    strings.TrimSpace(data.Category),
		URL:         data.URL,
		Content:     data.Content,
	}

	if r.Title == "" || r.Description == "" || r.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Title, description and category are required",
			"requestID": requestID,
		})
		return
	}

	if err := d.Resources.Create(c.Request.Context(), r); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to create resource", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusCreated, r)
}

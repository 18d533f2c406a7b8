package resource

import (
	"errors"
	"hungrypanda/hub-api/internal"
	"hungrypanda/hub-api/internal/store"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func parseID(c *gin.Context, requestID string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid resource ID",
			"requestID": requestID,
		})
		return 0, false
	}

	return uint(id), true
}

func ResourceList(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	resources, err := d.Resources.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list resources", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, resources)
}

func ResourceCategories(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	cats, err := d.Resources.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to list resource categories", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, cats)
}

// ResourceFetch returns a resource and counts the request as a view
func ResourceFetch(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	id, ok := parseID(c, requestID)
	if !ok {
		return
	}

	r, err := d.Resources.View(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Resource not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch resource", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, r)
}

func ResourceDelete(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	id, ok := parseID(c, requestID)
	if !ok {
		return
	}

	if err := d.Resources.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":     "Resource not found",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to delete resource", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Status(http.StatusNoContent)
}

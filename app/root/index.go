package root

import (
	"hungrypanda/hub-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Index(c *gin.Context, d *internal.Deps) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the " + d.Config.App.Name,
		"version": d.Config.App.Version,
		"status":  "healthy",
	})
}

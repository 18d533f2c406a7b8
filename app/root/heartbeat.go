// Package root holds the handlers that aren't tied to a resource
package root

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Validate is only reachable through the auth middleware, so getting here
// means the token is valid
func Validate(c *gin.Context) {
	c.Status(http.StatusOK)
}

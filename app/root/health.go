package root

import (
	"context"
	"hungrypanda/hub-api/internal"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// Health pings every external dependency and reports 503 if any of them
// is unreachable
func Health(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if d.DB != nil {
		checks["database"] = "ok"

		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}

		if err != nil {
			checks["database"] = "unavailable"
			healthy = false

			zap.L().Error("Database health check failed", zap.Error(err), zap.String("requestID", requestID))
		}
	} else {
		checks["database"] = "memory"
	}

	if d.Redis != nil {
		checks["redis"] = "ok"

		if err := d.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unavailable"
			healthy = false

			zap.L().Error("Redis health check failed", zap.Error(err), zap.String("requestID", requestID))
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "degraded",
			"checks":    checks,
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": d.Config.App.Version,
		"checks":  checks,
	})
}

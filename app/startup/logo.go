package startup

import (
	"errors"
	"hungrypanda/hub-api/internal"
	"hungrypanda/hub-api/internal/model"
	"hungrypanda/hub-api/internal/service"
	"hungrypanda/hub-api/pkg/middleware"
	"hungrypanda/hub-api/pkg/validators"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StartupLogo stores the image in the "logo" form field as the logo of a
// startup of the caller
func StartupLogo(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	if !d.Logos.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":     "Logo uploads are disabled",
			"requestID": requestID,
		})
		return
	}

	s, ok := ownedStartup(c, d, requestID)
	if !ok {
		return
	}

	fh, err := c.FormFile("logo")
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			c.Error(err)
			return
		}

		c.JSON(http.StatusBadRequest, gin.H{
			"error":     validators.ErrImageEmpty.Error(),
			"requestID": requestID,
		})
		return
	}

	if fh.Size > validators.MaxImageSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":     validators.ErrImageTooLarge.Error(),
			"requestID": requestID,
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to open uploaded logo", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, validators.MaxImageSize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to read uploaded logo", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	url, err := d.Logos.Upload(c.Request.Context(), s.ID, data)
	if err != nil {
		switch {
		case errors.Is(err, validators.ErrImageTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":     validators.ErrImageTooLarge.Error(),
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

			zap.L().Error("Failed to upload logo", zap.Error(err), zap.String("requestID", requestID))
		}
		return
	}

	updated, err := d.Startups.Update(c.Request.Context(), s.ID, &model.StartupUpdate{LogoURL: &url}, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to save logo url", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, updated)
}

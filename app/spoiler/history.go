package spoiler

import (
	"net/http"

	"spoileralert/spoiler-api/internal"
	"spoileralert/spoiler-api/internal/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SpoilerHistory lists every spoiler the caller has scheduled, newest first.
func SpoilerHistory(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	fromEmail := c.MustGet("userEmail").(string)

	var records []model.SentSpoiler

	err := d.DB.
		Where("from_email = ?", fromEmail).
		Order("date_sent DESC").
		Find(&records).
		Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch spoiler history", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, records)
}

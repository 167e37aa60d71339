package spoiler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"spoileralert/spoiler-api/internal"
	"spoileralert/spoiler-api/internal/model"
	"spoileralert/spoiler-api/pkg/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const spoilerSubject = "This is not a spoiler"

type scheduleBody struct {
	VictimEmail string `json:"victim_email"`
	Spoiler     string `json:"spoiler"`
	// Optional RFC3339 delivery time, empty means as soon as possible
	SendAt string `json:"send_at"`
}

// ScheduleSpoiler persists the spoiler record and hands the email off to the
// dispatcher. The two writes are not transactional: the record lands first,
// so a crash in between leaves a record without a send, never the reverse.
func ScheduleSpoiler(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)
	fromEmail := c.MustGet("userEmail").(string)

	var data scheduleBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Error("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	victim := strings.TrimSpace(data.VictimEmail)

	if err := validators.EmailValidator(victim); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	if err := validators.SpoilerValidator(data.Spoiler); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"requestID": requestID,
		})
		return
	}

	triggerAt := time.Now()
	if data.SendAt != "" {
		t, err := time.Parse(time.RFC3339, data.SendAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "send_at must be a RFC3339 timestamp",
				"requestID": requestID,
			})
			return
		}

		triggerAt = t
	}

	record := model.SentSpoiler{
		FromEmail: fromEmail,
		ToEmail:   victim,
		Spoiler:   data.Spoiler,
		DateSent:  time.Now(),
	}

	// The legacy schema only ever allows one spoiler per recipient
	// system-wide. The insert is the only race-free place to find that out,
	// so the constraint violation is mapped to a friendly conflict here
	// instead of being pre-checked.
	if err := d.DB.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "This person already got their spoiler, pick another victim",
				"requestID": requestID,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Whoops something went wrong, this is still a work in progress so sorry about that",
			"requestID": requestID,
		})

		zap.L().Error("Failed to persist spoiler record", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	jobID, err := d.Dispatcher.Schedule(victim, spoilerSubject, data.Spoiler, triggerAt)
	if err != nil {
		// The record is already in, only the delivery is lost. Say sorry and
		// leave a diagnostic behind.
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Whoops something went wrong, this is still a work in progress so sorry about that",
			"requestID": requestID,
		})

		zap.L().Error("Failed to schedule spoiler email",
			zap.Int("record_id", record.ID),
			zap.Error(err),
			zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Congrats your spoiler was sent to : " + victim,
		"jobID":   jobID,
	})
}

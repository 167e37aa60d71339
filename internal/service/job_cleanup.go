package service

import (
	"time"

	"spoileralert/spoiler-api/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// JobCleanup defines a function used to periodically purge delivered email
// jobs so the outbox table doesn't grow forever. Failed jobs are kept for
// inspection.
func JobCleanup(t time.Duration, keep time.Duration, db *gorm.DB) {
	ticker := time.NewTicker(t)

	zap.L().Debug("Job cleanup attached", zap.Duration("tick_every", t))

	go func() {
		for range ticker.C {
			err := db.
				Where("status = ? AND updated_at < ?", model.JobSent, time.Now().Add(-keep)).
				Delete(&model.EmailJob{}).
				Error
			if err != nil {
				zap.L().Error("Failed to cleanup delivered email jobs", zap.Error(err))
			}
		}
	}()
}

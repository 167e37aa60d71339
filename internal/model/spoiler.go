package model

import "time"

// SentSpoiler logs a spoiler a user scheduled for delivery. The sender is
// stored as their email string, not a foreign key, so history survives
// account changes.
type SentSpoiler struct {
	ID        int    `gorm:"primaryKey;autoIncrement"`
	FromEmail string `gorm:"not null"`
	// Unique in the legacy schema: a recipient address can only ever appear
	// once system-wide. Relaxing it needs a product decision and a migration,
	// so it's carried over as-is.
	ToEmail  string    `gorm:"unique;not null"`
	Spoiler  string    `gorm:"not null"`
	DateSent time.Time `gorm:"not null"`
}

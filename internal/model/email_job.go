package model

import "time"

const (
	JobPending = "pending"
	JobSending = "sending"
	JobSent    = "sent"
	JobFailed  = "failed"
)

// EmailJob is a row in the durable outbox polled by the dispatcher. The
// auto-increment ID doubles as the job id handed back to callers, so ids
// stay monotonic across restarts.
type EmailJob struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Recipient string    `gorm:"not null"`
	Subject   string    `gorm:"not null"`
	Body      string    `gorm:"not null"`
	TriggerAt time.Time `gorm:"not null;index"`
	Status    string    `gorm:"not null;default:pending;index"`
	Attempts  int       `gorm:"not null;default:0"`
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

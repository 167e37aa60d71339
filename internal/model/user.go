package model

import "time"

type User struct {
	ID           int    `gorm:"primaryKey;autoIncrement"`
	FullName     string `gorm:"not null"`
	Email        string `gorm:"unique;not null"`
	PasswordHash string `gorm:"not null"`
	// Optional, registration leaves it blank
	PhoneNumber  string
	DateJoined   time.Time `gorm:"not null"`
	Interactions int       `gorm:"not null;default:1"`
}

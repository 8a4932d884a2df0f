// Package model contains the database entities of the application
package model

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Otp is embedded into User. An empty Value means no code is pending.
type Otp struct {
	Value     string
	ExpiresAt time.Time
}

type User struct {
	ID            string `gorm:"primaryKey"`
	Name          string `gorm:"not null"`
	Email         string `gorm:"uniqueIndex;not null"`
	PasswordHash  string `gorm:"not null"`
	ProfileImage  string
	Role          string `gorm:"default:user"`
	EmailVerified bool   `gorm:"default:false"`
	Otp           Otp    `gorm:"embedded;embeddedPrefix:otp_"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

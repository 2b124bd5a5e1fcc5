package models

import (
	"time"
)

// User is a customer known by their Telegram user id.
type User struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ExternalID int64     `json:"external_id" gorm:"uniqueIndex;not null"`
	Name       string    `json:"name"`
	Handle     string    `json:"handle"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
}

// PlaceholderUserName is stored for users first seen at checkout rather than /start.
const PlaceholderUserName = "User"

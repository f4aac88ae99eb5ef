package models

import "time"

// Notification represents a persisted user notification (PostgreSQL).
// Immutable once created except for the IsRead flag.
type Notification struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

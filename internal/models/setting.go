package models

import (
	"time"
)

// Setting is a key/value runtime setting persisted across restarts, such as
// the current privacy level.
type Setting struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Key       string    `json:"key" gorm:"uniqueIndex;not null"`
	Value     string    `json:"value"`
	Category  string    `json:"category"`
	Type      string    `json:"type"` // string, number, boolean
	UpdatedAt time.Time `json:"updated_at"`
}

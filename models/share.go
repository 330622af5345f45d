package models

import (
	"time"

	"gorm.io/gorm"
)

// ShareLink grants temporary unauthenticated access to a closed poll's
// results via an opaque token.
type ShareLink struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Token     string         `gorm:"uniqueIndex;not null" json:"token"`
	PollID    uint           `gorm:"not null;index" json:"poll_id"`
	CreatedBy uint           `gorm:"not null" json:"created_by"`
	ExpiresAt time.Time      `json:"expires_at"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *ShareLink) Valid(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	EntityID   string    `gorm:"size:60;not null" json:"entity_id"`            // achievement id
	EntityType string    `gorm:"size:50;not null" json:"entity_type"`          // 'achievement'
	Type       string    `gorm:"size:50;not null" json:"type"`                 // 'achievement_unlocked'
	Message    string    `gorm:"type:text" json:"message"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the host platform's users table. This subsystem only reads
// it for display fields (leaderboard names, avatars); account management
// lives in the external auth service.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	AvatarURL *string   `gorm:"type:text" json:"avatar_url,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

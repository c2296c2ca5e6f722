package entity

import (
	"time"

	"github.com/google/uuid"
)

// Achievement criteria. Closed enumeration: catalog load rejects anything
// else, so evaluation never sees an unknown criteria.
const (
	CriteriaWorkoutsCompleted = "workouts_completed"
	CriteriaCaloriesBurned    = "calories_burned"
	CriteriaStepsTotal        = "steps_total"
	CriteriaWaterTotal        = "water_total"
	CriteriaPostsCreated      = "posts_created"
	CriteriaLikesReceived     = "likes_received"
	CriteriaStreakDays        = "streak_days"
)

// AchievementDefinition is static configuration, seeded at boot and
// immutable at evaluation time.
type AchievementDefinition struct {
	ID          string    `gorm:"size:60;primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Criteria    string    `gorm:"size:40;not null" json:"criteria"`
	Threshold   float64   `gorm:"not null" json:"threshold"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// AchievementProgress tracks one user's progress against one definition.
// IsUnlocked is monotonic: once set, recomputation never clears it, even
// if compensating events move the underlying counter back down.
type AchievementProgress struct {
	UserID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	AchievementID string     `gorm:"size:60;primaryKey" json:"achievement_id"`
	Progress      float64    `gorm:"not null;default:0" json:"progress"`
	IsUnlocked    bool       `gorm:"not null;default:false" json:"is_unlocked"`
	UnlockedAt    *time.Time `json:"unlocked_at,omitempty"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

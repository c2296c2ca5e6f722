package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workout session states. COMPLETED and ABANDONED are terminal. Activity
// events are emitted only on the COMPLETING -> COMPLETED edge.
const (
	SessionStarting   = "STARTING"
	SessionActive     = "ACTIVE"
	SessionCompleting = "COMPLETING"
	SessionCompleted  = "COMPLETED"
	SessionAbandoned  = "ABANDONED"
)

// WorkoutSession has a single logical writer at a time: the request
// driving its current transition.
type WorkoutSession struct {
	ID                      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                  uuid.UUID  `gorm:"type:uuid;index:idx_session_user_state,priority:1;not null" json:"user_id"`
	VideoID                 uuid.UUID  `gorm:"type:uuid;not null" json:"video_id"`
	State                   string     `gorm:"size:20;index:idx_session_user_state,priority:2;not null" json:"state"`
	StartedAt               time.Time  `json:"started_at"`
	CompletedAt             *time.Time `json:"completed_at,omitempty"`
	ReportedDurationSeconds int        `gorm:"default:0" json:"reported_duration_seconds"`
	ReportedCalories        float64    `gorm:"default:0" json:"reported_calories"`
	CreatedAt               time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *WorkoutSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity event types. The set is closed: ingestion rejects anything else.
const (
	ActivitySteps            = "STEPS"
	ActivityWorkout          = "WORKOUT"
	ActivityCaloriesBurned   = "CALORIES_BURNED"
	ActivityWater            = "WATER"
	ActivityPostCreated      = "POST_CREATED"
	ActivityLikeReceived     = "LIKE_RECEIVED"
	ActivityWorkoutCompleted = "WORKOUT_COMPLETED"
)

var activityTypes = map[string]bool{
	ActivitySteps:            true,
	ActivityWorkout:          true,
	ActivityCaloriesBurned:   true,
	ActivityWater:            true,
	ActivityPostCreated:      true,
	ActivityLikeReceived:     true,
	ActivityWorkoutCompleted: true,
}

// Fitness types count towards streaks; social events (posts, likes) do not.
var streakQualifyingTypes = map[string]bool{
	ActivitySteps:            true,
	ActivityWorkout:          true,
	ActivityCaloriesBurned:   true,
	ActivityWater:            true,
	ActivityWorkoutCompleted: true,
}

func IsValidActivityType(t string) bool {
	return activityTypes[t]
}

func IsStreakQualifying(t string) bool {
	return streakQualifyingTypes[t]
}

// Day truncates a timestamp to its calendar date (UTC midnight). All
// rollups are date-bucketed, so every date comparison goes through here.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ISOWeekStart returns the Monday of the ISO week containing t.
func ISOWeekStart(t time.Time) time.Time {
	d := Day(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return d.AddDate(0, 0, -offset)
}

// ActivityEvent is an immutable fact about a user action. Rows are
// append-only: corrections are new compensating events, never edits.
type ActivityEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;index:idx_event_user_day,priority:1;not null" json:"user_id"`
	Type       string    `gorm:"size:30;index;not null" json:"type"`
	Value      float64   `gorm:"not null" json:"value"`
	Unit       *string   `gorm:"size:20" json:"unit,omitempty"` // display-only label
	OccurredOn time.Time `gorm:"type:date;index:idx_event_user_day,priority:2;not null" json:"occurred_on"`
	RecordedAt time.Time `gorm:"autoCreateTime;index" json:"recorded_at"`
}

func (e *ActivityEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// DailySummary is one accumulated metric cell, keyed (user, date, metric).
// Derived state: fully reconstructible by replaying events for its key.
// Mutated only through atomic upsert-increments in the aggregator.
type DailySummary struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Date      time.Time `gorm:"type:date;primaryKey" json:"date"`
	Metric    string    `gorm:"size:30;primaryKey" json:"metric"`
	Value     float64   `gorm:"not null;default:0" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// SummaryApplication marks an event as folded into the daily summaries.
// The primary key on event_id is what makes replays no-ops: the marker
// insert and the increment share one transaction.
type SummaryApplication struct {
	EventID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"event_id"`
	AppliedAt time.Time `gorm:"autoCreateTime" json:"applied_at"`
}

package dto

import "time"

type AchievementStatus struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Criteria        string     `json:"criteria"`
	Threshold       float64    `json:"threshold"`
	Progress        float64    `json:"progress"`
	ProgressPercent int        `json:"progress_percent"` // 0-100, clamped
	IsUnlocked      bool       `json:"is_unlocked"`
	UnlockedAt      *time.Time `json:"unlocked_at,omitempty"`
}

type AchievementsResponse struct {
	Achievements  []AchievementStatus `json:"achievements"`
	TotalCount    int                 `json:"total_count"`
	UnlockedCount int                 `json:"unlocked_count"`
}

package dto

import (
	"github.com/google/uuid"
	"vigorfit.com/engagement/internal/entity"
)

type LogActivityRequest struct {
	Type  string  `json:"type" binding:"required"`
	Value float64 `json:"value" binding:"required,gt=0"`
	Unit  *string `json:"unit" binding:"omitempty,max=20"`
	// Calendar date (YYYY-MM-DD) resolved by the caller in the user's
	// locale; defaults to the server's current date.
	Date string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

type LogActivityResponse struct {
	EventID uuid.UUID `json:"event_id"`
}

// MetricMap maps an activity type to its accumulated value.
type MetricMap map[string]float64

type ActivitySummaryResponse struct {
	Today       MetricMap            `json:"today"`
	Weekly      MetricMap            `json:"weekly"`
	WeeklyDaily map[string]MetricMap `json:"weekly_daily"` // keyed by YYYY-MM-DD
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

type ActivityHistoryResponse struct {
	Data []entity.ActivityEvent `json:"data"`
	Meta PaginationMeta         `json:"meta"`
}

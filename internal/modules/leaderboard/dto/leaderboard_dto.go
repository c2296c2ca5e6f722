package dto

import "github.com/google/uuid"

// LeaderboardEntry is one ranked row. Rank is 1-based and computed on
// read, never stored as truth. Username/avatar are denormalized display
// fields owned by the host platform.
type LeaderboardEntry struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Rank      int       `json:"rank"`
	Score     float64   `json:"score"`
}

type LeaderboardResponse struct {
	Entries  []LeaderboardEntry `json:"entries"`
	MyRank   *LeaderboardEntry  `json:"my_rank"`
	Period   string             `json:"period"`
	Category string             `json:"category"`
}

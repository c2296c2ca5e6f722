package dto

type StartSessionRequest struct {
	VideoID string `json:"video_id" binding:"required,uuid"`
}

type CompleteSessionRequest struct {
	DurationSeconds int     `json:"duration_seconds" binding:"required,gt=0"`
	CaloriesBurned  float64 `json:"calories_burned" binding:"gte=0"`
}

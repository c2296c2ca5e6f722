package jobs

import (
	"context"
	"log"
	"time"

	leaderboardService "vigorfit.com/engagement/internal/modules/leaderboard/service"
	workoutService "vigorfit.com/engagement/internal/modules/workout/service"
)

// LeaderboardWarmJob precomputes the top entries for every (period,
// category) pair so request-path reads mostly hit Redis.
type LeaderboardWarmJob struct {
	Service leaderboardService.LeaderboardService
}

func (j *LeaderboardWarmJob) Name() string     { return "leaderboard-warm" }
func (j *LeaderboardWarmJob) Schedule() string { return "*/5 * * * *" }

func (j *LeaderboardWarmJob) Run(ctx context.Context) error {
	return j.Service.WarmCache(ctx)
}

// SessionSweepJob marks sessions stuck in STARTING/ACTIVE as abandoned.
// Abandoned sessions never emitted events, so no aggregate is touched.
type SessionSweepJob struct {
	Service workoutService.SessionService
	MaxAge  time.Duration
}

func (j *SessionSweepJob) Name() string     { return "session-sweep" }
func (j *SessionSweepJob) Schedule() string { return "@hourly" }

func (j *SessionSweepJob) Run(ctx context.Context) error {
	swept, err := j.Service.AbandonStale(ctx, j.MaxAge)
	if err != nil {
		return err
	}
	if swept > 0 {
		log.Printf("abandoned %d stale workout sessions", swept)
	}
	return nil
}

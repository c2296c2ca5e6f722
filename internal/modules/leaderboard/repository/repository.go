package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"vigorfit.com/engagement/internal/entity"
	"vigorfit.com/engagement/pkg/apperror"
)

// UserScore is a per-user aggregate for one (period, metric) pair.
// ReachedAt is when the user's counter last moved, i.e. the moment the
// current score was first achieved. It is the tie-break key.
type UserScore struct {
	UserID    uuid.UUID `json:"user_id"`
	Score     float64   `json:"score"`
	ReachedAt time.Time `json:"reached_at"`
}

// DayFact is one active calendar date for one user, with the timestamp of
// the first qualifying event on that date (streak tie-break input).
type DayFact struct {
	UserID  uuid.UUID
	Date    time.Time
	FirstAt time.Time
}

type LeaderboardRepository interface {
	// AggregateEventScores groups events of one type per user within the
	// window (nil since = all time). sum selects SUM(value), otherwise
	// COUNT(*). Only users with at least one event appear.
	AggregateEventScores(ctx context.Context, eventType string, sum bool, since *time.Time) ([]UserScore, error)
	// UserEventScore is the same aggregate for a single user; score 0 and
	// zero ReachedAt when the user has no events in the window.
	UserEventScore(ctx context.Context, eventType string, sum bool, since *time.Time, userID uuid.UUID) (UserScore, error)
	// CountAhead counts distinct users strictly ahead of the given score
	// under the fixed ordering (higher score, then earlier reach, then
	// smaller user id). rank = count + 1.
	CountAhead(ctx context.Context, eventType string, sum bool, since *time.Time, me UserScore) (int64, error)
	// ActiveDayFacts returns the distinct qualifying (user, date) pairs
	// since the cutoff, for streak computation over the population.
	ActiveDayFacts(ctx context.Context, since time.Time) ([]DayFact, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

func (r *leaderboardRepository) scoreQuery(ctx context.Context, eventType string, sum bool, since *time.Time) *gorm.DB {
	agg := "COUNT(*)"
	if sum {
		agg = "SUM(value)"
	}

	q := r.db.WithContext(ctx).Model(&entity.ActivityEvent{}).
		Select("user_id, "+agg+" AS score, MAX(recorded_at) AS reached_at").
		Where("type = ?", eventType).
		Group("user_id")
	if since != nil {
		q = q.Where("occurred_on >= ?", *since)
	}
	return q
}

func (r *leaderboardRepository) AggregateEventScores(ctx context.Context, eventType string, sum bool, since *time.Time) ([]UserScore, error) {
	var scores []UserScore
	err := r.scoreQuery(ctx, eventType, sum, since).
		Order("score DESC").
		Scan(&scores).Error
	if err != nil {
		return nil, apperror.WrapStorage(err)
	}
	return scores, nil
}

func (r *leaderboardRepository) UserEventScore(ctx context.Context, eventType string, sum bool, since *time.Time, userID uuid.UUID) (UserScore, error) {
	var scores []UserScore
	err := r.scoreQuery(ctx, eventType, sum, since).
		Where("user_id = ?", userID).
		Scan(&scores).Error
	if err != nil {
		return UserScore{}, apperror.WrapStorage(err)
	}
	if len(scores) == 0 {
		return UserScore{UserID: userID}, nil
	}
	return scores[0], nil
}

func (r *leaderboardRepository) CountAhead(ctx context.Context, eventType string, sum bool, since *time.Time, me UserScore) (int64, error) {
	sub := r.scoreQuery(ctx, eventType, sum, since)

	var count int64
	err := r.db.WithContext(ctx).Table("(?) AS s", sub).
		Where(
			"s.score > ? OR (s.score = ? AND s.reached_at < ?) OR (s.score = ? AND s.reached_at = ? AND s.user_id < ?)",
			me.Score, me.Score, me.ReachedAt, me.Score, me.ReachedAt, me.UserID,
		).
		Count(&count).Error
	if err != nil {
		return 0, apperror.WrapStorage(err)
	}
	return count, nil
}

func (r *leaderboardRepository) ActiveDayFacts(ctx context.Context, since time.Time) ([]DayFact, error) {
	var facts []DayFact
	err := r.db.WithContext(ctx).Model(&entity.ActivityEvent{}).
		Select("user_id, occurred_on AS date, MIN(recorded_at) AS first_at").
		Where("occurred_on >= ? AND type IN ?", since, []string{
			entity.ActivitySteps,
			entity.ActivityWorkout,
			entity.ActivityCaloriesBurned,
			entity.ActivityWater,
			entity.ActivityWorkoutCompleted,
		}).
		Group("user_id, occurred_on").
		Order("user_id, occurred_on ASC").
		Scan(&facts).Error
	if err != nil {
		return nil, apperror.WrapStorage(err)
	}
	return facts, nil
}

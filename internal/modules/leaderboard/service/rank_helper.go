package service

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"vigorfit.com/engagement/internal/entity"
	"vigorfit.com/engagement/internal/modules/leaderboard/repository"
)

// Periods and categories accepted by the ranking engine. Anything else is
// a validation error, never a silent default.
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodAllTime = "all_time"

	CategoryWorkouts = "workouts"
	CategoryCalories = "calories"
	CategoryStreak   = "streak"
)

// beats reports whether a ranks strictly ahead of b: higher score first,
// ties broken by who reached the score earlier, then by user id. This
// yields a strict total order, so ranks are always a dense 1..N with no
// shared positions.
func beats(a, b repository.UserScore) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.ReachedAt.Equal(b.ReachedAt) {
		return a.ReachedAt.Before(b.ReachedAt)
	}
	return a.UserID.String() < b.UserID.String()
}

// sortStanding orders scores into final leaderboard order.
func sortStanding(scores []repository.UserScore) {
	sort.Slice(scores, func(i, j int) bool {
		return beats(scores[i], scores[j])
	})
}

// rankAmong computes a user's rank by counting users strictly ahead,
// without sorting or materializing the full list. Equals the rank a full
// sort would assign.
func rankAmong(scores []repository.UserScore, me repository.UserScore) int {
	ahead := 0
	for _, s := range scores {
		if s.UserID == me.UserID {
			continue
		}
		if beats(s, me) {
			ahead++
		}
	}
	return ahead + 1
}

// streakFromDates computes the length of the current run of consecutive
// calendar dates ending today or yesterday, and the timestamp at which the
// run reached its current length (first event on its most recent date).
// A run broken more than one day ago counts as 0. dates must be ascending
// and deduplicated.
func streakFromDates(dates []time.Time, firstAt []time.Time, today time.Time) (int, time.Time) {
	if len(dates) == 0 {
		return 0, time.Time{}
	}

	today = entity.Day(today)
	last := entity.Day(dates[len(dates)-1])
	if last.Before(today.AddDate(0, 0, -1)) {
		return 0, time.Time{}
	}

	length := 1
	for i := len(dates) - 2; i >= 0; i-- {
		expected := last.AddDate(0, 0, -length)
		if !entity.Day(dates[i]).Equal(expected) {
			break
		}
		length++
	}

	return length, firstAt[len(firstAt)-1]
}

// CurrentStreak is the streak length for one user's ascending, distinct
// active dates. Shared with the achievement evaluator (streak_days).
func CurrentStreak(dates []time.Time, today time.Time) int {
	length, _ := streakFromDates(dates, make([]time.Time, len(dates)), today)
	return length
}

type userDays struct {
	userID  uuid.UUID
	dates   []time.Time
	firstAt []time.Time
}

// streakScores folds the population's active-day facts into per-user
// streak scores, dropping users whose streak is 0. facts must be grouped
// by user with dates ascending (the repository query guarantees both).
func streakScores(facts []repository.DayFact, today time.Time) []repository.UserScore {
	byUser := map[uuid.UUID]*userDays{}
	var order []*userDays

	for _, f := range facts {
		entry, ok := byUser[f.UserID]
		if !ok {
			entry = &userDays{userID: f.UserID}
			byUser[f.UserID] = entry
			order = append(order, entry)
		}
		entry.dates = append(entry.dates, f.Date)
		entry.firstAt = append(entry.firstAt, f.FirstAt)
	}

	var scores []repository.UserScore
	for _, entry := range order {
		length, reachedAt := streakFromDates(entry.dates, entry.firstAt, today)
		if length == 0 {
			continue
		}
		scores = append(scores, repository.UserScore{
			UserID:    entry.userID,
			Score:     float64(length),
			ReachedAt: reachedAt,
		})
	}
	return scores
}

// periodStart resolves a period name to its window start; nil means
// unbounded (all time).
func periodStart(period string, now time.Time) *time.Time {
	switch period {
	case PeriodWeekly:
		start := entity.ISOWeekStart(now)
		return &start
	case PeriodMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return &start
	default: // all_time
		return nil
	}
}

package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vigorfit.com/engagement/internal/modules/leaderboard/repository"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBeatsStrictTotalOrder(t *testing.T) {
	early := day(2026, 3, 1)
	late := day(2026, 3, 2)
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	cases := []struct {
		name string
		a, b repository.UserScore
		want bool
	}{
		{"higher score wins", repository.UserScore{UserID: low, Score: 50}, repository.UserScore{UserID: high, Score: 30}, true},
		{"lower score loses", repository.UserScore{UserID: low, Score: 30}, repository.UserScore{UserID: high, Score: 50}, false},
		{"tie broken by earlier reach", repository.UserScore{UserID: high, Score: 50, ReachedAt: early}, repository.UserScore{UserID: low, Score: 50, ReachedAt: late}, true},
		{"tie broken by smaller id", repository.UserScore{UserID: low, Score: 50, ReachedAt: early}, repository.UserScore{UserID: high, Score: 50, ReachedAt: early}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, beats(tc.a, tc.b))
			if tc.want {
				assert.False(t, beats(tc.b, tc.a), "order must be asymmetric")
			}
		})
	}
}

func TestRankAmongMatchesFullSort(t *testing.T) {
	reached := day(2026, 3, 1)
	scores := []repository.UserScore{
		{UserID: uuid.New(), Score: 10, ReachedAt: reached},
		{UserID: uuid.New(), Score: 50, ReachedAt: reached.Add(time.Hour)},
		{UserID: uuid.New(), Score: 50, ReachedAt: reached},
		{UserID: uuid.New(), Score: 30, ReachedAt: reached},
		{UserID: uuid.New(), Score: 50, ReachedAt: reached},
	}

	sorted := make([]repository.UserScore, len(scores))
	copy(sorted, scores)
	sortStanding(sorted)

	for i, s := range sorted {
		assert.Equal(t, i+1, rankAmong(scores, s), "counting rank must equal sorted position")
	}
}

func TestSortStandingDenseRanks(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	c := uuid.MustParse("00000000-0000-0000-0000-00000000000c")
	reached := day(2026, 3, 1)

	scores := []repository.UserScore{
		{UserID: c, Score: 30, ReachedAt: reached},
		{UserID: b, Score: 50, ReachedAt: reached},
		{UserID: a, Score: 50, ReachedAt: reached},
	}
	sortStanding(scores)

	// Tied scores still get distinct consecutive positions.
	require.Len(t, scores, 3)
	assert.Equal(t, a, scores[0].UserID)
	assert.Equal(t, b, scores[1].UserID)
	assert.Equal(t, c, scores[2].UserID)
}

func TestStreakFromDates(t *testing.T) {
	today := day(2026, 3, 10)

	cases := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{"empty", nil, 0},
		{"single day today", []time.Time{today}, 1},
		{"run ending today", []time.Time{day(2026, 3, 8), day(2026, 3, 9), today}, 3},
		{"run ending yesterday still counts", []time.Time{day(2026, 3, 8), day(2026, 3, 9)}, 2},
		{"run broken two days ago", []time.Time{day(2026, 3, 7), day(2026, 3, 8)}, 0},
		{"gap restarts the run", []time.Time{day(2026, 3, 5), day(2026, 3, 6), day(2026, 3, 9), today}, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := streakFromDates(tc.dates, make([]time.Time, len(tc.dates)), today)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want, CurrentStreak(tc.dates, today))
		})
	}
}

func TestStreakFromDatesReachedAt(t *testing.T) {
	today := day(2026, 3, 10)
	dates := []time.Time{day(2026, 3, 9), today}
	firstAt := []time.Time{
		day(2026, 3, 9).Add(7 * time.Hour),
		today.Add(6 * time.Hour),
	}

	length, reachedAt := streakFromDates(dates, firstAt, today)
	assert.Equal(t, 2, length)
	// The streak reached its current length with the first event on the
	// most recent active date.
	assert.Equal(t, today.Add(6*time.Hour), reachedAt)
}

func TestStreakScoresDropsInactiveUsers(t *testing.T) {
	today := day(2026, 3, 10)
	active := uuid.New()
	lapsed := uuid.New()

	facts := []repository.DayFact{
		{UserID: active, Date: day(2026, 3, 9), FirstAt: day(2026, 3, 9).Add(8 * time.Hour)},
		{UserID: active, Date: today, FirstAt: today.Add(9 * time.Hour)},
		{UserID: lapsed, Date: day(2026, 3, 1), FirstAt: day(2026, 3, 1)},
	}

	scores := streakScores(facts, today)
	require.Len(t, scores, 1)
	assert.Equal(t, active, scores[0].UserID)
	assert.Equal(t, 2.0, scores[0].Score)
	assert.Equal(t, today.Add(9*time.Hour), scores[0].ReachedAt)
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC) // Wednesday

	weekly := periodStart(PeriodWeekly, now)
	require.NotNil(t, weekly)
	assert.Equal(t, day(2026, 3, 2), *weekly) // Monday of the ISO week

	monthly := periodStart(PeriodMonthly, now)
	require.NotNil(t, monthly)
	assert.Equal(t, day(2026, 3, 1), *monthly)

	assert.Nil(t, periodStart(PeriodAllTime, now))
}

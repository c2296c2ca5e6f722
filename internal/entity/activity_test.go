package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayTruncatesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	stamp := time.Date(2026, 3, 4, 23, 45, 0, 0, loc)

	got := Day(stamp)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), got)
}

func TestISOWeekStart(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},  // Monday maps to itself
		{time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},  // Wednesday
		{time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},  // Sunday belongs to the prior Monday
		{time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},  // next Monday starts a new week
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ISOWeekStart(tc.in))
	}
}

func TestActivityTypeSets(t *testing.T) {
	assert.True(t, IsValidActivityType(ActivitySteps))
	assert.True(t, IsValidActivityType(ActivityLikeReceived))
	assert.False(t, IsValidActivityType("PUSHUPS"))

	assert.True(t, IsStreakQualifying(ActivityWorkoutCompleted))
	assert.False(t, IsStreakQualifying(ActivityPostCreated))
	assert.False(t, IsStreakQualifying(ActivityLikeReceived))
}

package achievement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"vigorfit.com/engagement/internal/entity"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	assert.NoError(t, ValidateCatalog(DefaultCatalog()))
}

func TestValidateCatalogRejections(t *testing.T) {
	cases := []struct {
		name string
		defs []entity.AchievementDefinition
	}{
		{"missing id", []entity.AchievementDefinition{
			{Name: "x", Criteria: entity.CriteriaWorkoutsCompleted, Threshold: 1},
		}},
		{"duplicate id", []entity.AchievementDefinition{
			{ID: "dup", Criteria: entity.CriteriaWorkoutsCompleted, Threshold: 1},
			{ID: "dup", Criteria: entity.CriteriaStepsTotal, Threshold: 2},
		}},
		{"unknown criteria", []entity.AchievementDefinition{
			{ID: "x", Criteria: "handstands_held", Threshold: 1},
		}},
		{"zero threshold", []entity.AchievementDefinition{
			{ID: "x", Criteria: entity.CriteriaWorkoutsCompleted, Threshold: 0},
		}},
		{"negative threshold", []entity.AchievementDefinition{
			{ID: "x", Criteria: entity.CriteriaWorkoutsCompleted, Threshold: -3},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, ValidateCatalog(tc.defs))
		})
	}
}

func TestCriteriaForEvent(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{entity.CriteriaWorkoutsCompleted, entity.CriteriaStreakDays},
		criteriaForEvent(entity.ActivityWorkoutCompleted))

	// Social events never move the streak.
	assert.ElementsMatch(t,
		[]string{entity.CriteriaPostsCreated},
		criteriaForEvent(entity.ActivityPostCreated))

	// Plain workouts qualify for streaks but have no counter of their own.
	assert.ElementsMatch(t,
		[]string{entity.CriteriaStreakDays},
		criteriaForEvent(entity.ActivityWorkout))

	assert.Empty(t, criteriaForEvent("UNKNOWN"))
}

package achievement

import (
	"fmt"

	"vigorfit.com/engagement/internal/entity"
)

// DefaultCatalog is the product's achievement set. Definitions are static
// configuration: validated and seeded at boot, immutable at evaluation
// time.
func DefaultCatalog() []entity.AchievementDefinition {
	return []entity.AchievementDefinition{
		{ID: "first_workout", Name: "First Steps", Description: "Complete your first workout", Criteria: entity.CriteriaWorkoutsCompleted, Threshold: 1},
		{ID: "workout_10", Name: "Regular", Description: "Complete 10 workouts", Criteria: entity.CriteriaWorkoutsCompleted, Threshold: 10},
		{ID: "workout_100", Name: "Centurion", Description: "Complete 100 workouts", Criteria: entity.CriteriaWorkoutsCompleted, Threshold: 100},
		{ID: "calories_5k", Name: "Burner", Description: "Burn 5,000 calories", Criteria: entity.CriteriaCaloriesBurned, Threshold: 5000},
		{ID: "calories_50k", Name: "Furnace", Description: "Burn 50,000 calories", Criteria: entity.CriteriaCaloriesBurned, Threshold: 50000},
		{ID: "steps_100k", Name: "Wanderer", Description: "Walk 100,000 steps", Criteria: entity.CriteriaStepsTotal, Threshold: 100000},
		{ID: "hydration_100", Name: "Well Watered", Description: "Log 100 glasses of water", Criteria: entity.CriteriaWaterTotal, Threshold: 100},
		{ID: "first_post", Name: "Icebreaker", Description: "Share your first post", Criteria: entity.CriteriaPostsCreated, Threshold: 1},
		{ID: "likes_50", Name: "Crowd Favorite", Description: "Receive 50 likes", Criteria: entity.CriteriaLikesReceived, Threshold: 50},
		{ID: "streak_7", Name: "One Week Strong", Description: "Stay active 7 days in a row", Criteria: entity.CriteriaStreakDays, Threshold: 7},
		{ID: "streak_30", Name: "Habit Formed", Description: "Stay active 30 days in a row", Criteria: entity.CriteriaStreakDays, Threshold: 30},
	}
}

var knownCriteria = map[string]bool{
	entity.CriteriaWorkoutsCompleted: true,
	entity.CriteriaCaloriesBurned:    true,
	entity.CriteriaStepsTotal:        true,
	entity.CriteriaWaterTotal:        true,
	entity.CriteriaPostsCreated:      true,
	entity.CriteriaLikesReceived:     true,
	entity.CriteriaStreakDays:        true,
}

// ValidateCatalog rejects misconfigured definitions up front so an
// unknown criteria can never reach evaluation.
func ValidateCatalog(defs []entity.AchievementDefinition) error {
	seen := map[string]bool{}
	for _, def := range defs {
		if def.ID == "" {
			return fmt.Errorf("achievement definition without id")
		}
		if seen[def.ID] {
			return fmt.Errorf("duplicate achievement id %q", def.ID)
		}
		seen[def.ID] = true

		if !knownCriteria[def.Criteria] {
			return fmt.Errorf("achievement %q: unknown criteria %q", def.ID, def.Criteria)
		}
		if def.Threshold <= 0 {
			return fmt.Errorf("achievement %q: threshold must be positive, got %v", def.ID, def.Threshold)
		}
	}
	return nil
}

// criteriaForEvent maps an ingested event type to the criteria whose
// accumulators it can move, so recomputation stays incremental.
func criteriaForEvent(eventType string) []string {
	var affected []string
	switch eventType {
	case entity.ActivityWorkoutCompleted:
		affected = append(affected, entity.CriteriaWorkoutsCompleted)
	case entity.ActivityCaloriesBurned:
		affected = append(affected, entity.CriteriaCaloriesBurned)
	case entity.ActivitySteps:
		affected = append(affected, entity.CriteriaStepsTotal)
	case entity.ActivityWater:
		affected = append(affected, entity.CriteriaWaterTotal)
	case entity.ActivityPostCreated:
		affected = append(affected, entity.CriteriaPostsCreated)
	case entity.ActivityLikeReceived:
		affected = append(affected, entity.CriteriaLikesReceived)
	}
	if entity.IsStreakQualifying(eventType) {
		affected = append(affected, entity.CriteriaStreakDays)
	}
	return affected
}

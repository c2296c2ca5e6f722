package achievement

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"vigorfit.com/engagement/internal/entity"
	achievementDto "vigorfit.com/engagement/internal/modules/achievement/dto"
	achievementRepo "vigorfit.com/engagement/internal/modules/achievement/repository"
	activityRepo "vigorfit.com/engagement/internal/modules/activity/repository"
	leaderboard "vigorfit.com/engagement/internal/modules/leaderboard/service"
	notifService "vigorfit.com/engagement/internal/modules/notification/service"
)

const streakLookbackDays = 400

type AchievementService interface {
	GetAchievements(ctx context.Context, userID uuid.UUID) (*achievementDto.AchievementsResponse, error)
	// RecomputeForEventAsync re-evaluates only the criteria the given
	// event type can move. Plugged into the activity ingestion path.
	RecomputeForEventAsync(userID uuid.UUID, eventType string)
}

type achievementService struct {
	repo                achievementRepo.AchievementRepository
	activityRepo        activityRepo.ActivityRepository
	notificationService notifService.NotificationService
	definitions         []entity.AchievementDefinition
	storageTimeout      time.Duration
	now                 func() time.Time
}

// NewAchievementService validates the catalog before anything else: a bad
// definition is a configuration error surfaced at load time, not at
// evaluation time.
func NewAchievementService(
	repo achievementRepo.AchievementRepository,
	actRepo activityRepo.ActivityRepository,
	notificationService notifService.NotificationService,
	definitions []entity.AchievementDefinition,
	storageTimeout time.Duration,
) (AchievementService, error) {
	if err := ValidateCatalog(definitions); err != nil {
		return nil, fmt.Errorf("achievement catalog: %w", err)
	}

	return &achievementService{
		repo:                repo,
		activityRepo:        actRepo,
		notificationService: notificationService,
		definitions:         definitions,
		storageTimeout:      storageTimeout,
		now:                 time.Now,
	}, nil
}

// SeedCatalog persists the validated definitions (insert-only, existing
// rows untouched). Called once at boot.
func SeedCatalog(ctx context.Context, repo achievementRepo.AchievementRepository, defs []entity.AchievementDefinition) error {
	if err := ValidateCatalog(defs); err != nil {
		return err
	}
	return repo.SeedDefinitions(ctx, defs)
}

func (s *achievementService) GetAchievements(ctx context.Context, userID uuid.UUID) (*achievementDto.AchievementsResponse, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()

	// Pull-based recompute: evaluate every criteria once, then score all
	// definitions off the accumulator values.
	values, err := s.accumulatorValues(opCtx, userID, nil)
	if err != nil {
		return nil, err
	}

	resp := &achievementDto.AchievementsResponse{
		Achievements: make([]achievementDto.AchievementStatus, 0, len(s.definitions)),
		TotalCount:   len(s.definitions),
	}

	for _, def := range s.definitions {
		progress, err := s.evaluate(opCtx, userID, def, values[def.Criteria])
		if err != nil {
			return nil, err
		}

		if progress.IsUnlocked {
			resp.UnlockedCount++
		}
		resp.Achievements = append(resp.Achievements, achievementDto.AchievementStatus{
			ID:              def.ID,
			Name:            def.Name,
			Description:     def.Description,
			Criteria:        def.Criteria,
			Threshold:       def.Threshold,
			Progress:        progress.Progress,
			ProgressPercent: progressPercent(progress.Progress, def.Threshold),
			IsUnlocked:      progress.IsUnlocked,
			UnlockedAt:      progress.UnlockedAt,
		})
	}

	return resp, nil
}

func (s *achievementService) RecomputeForEventAsync(userID uuid.UUID, eventType string) {
	affected := criteriaForEvent(eventType)
	if len(affected) == 0 {
		return
	}

	// Execute in background
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.storageTimeout)
		defer cancel()

		values, err := s.accumulatorValues(ctx, userID, affected)
		if err != nil {
			log.Printf("achievement recompute for user %s failed: %v", userID, err)
			return
		}

		for _, def := range s.definitions {
			value, ok := values[def.Criteria]
			if !ok {
				continue
			}
			if _, err := s.evaluate(ctx, userID, def, value); err != nil {
				log.Printf("achievement %s recompute for user %s failed: %v", def.ID, userID, err)
			}
		}
	}()
}

// evaluate writes the recomputed progress and fires the unlock
// notification on the locked -> unlocked transition.
func (s *achievementService) evaluate(ctx context.Context, userID uuid.UUID, def entity.AchievementDefinition, value float64) (*entity.AchievementProgress, error) {
	progress := &entity.AchievementProgress{
		UserID:        userID,
		AchievementID: def.ID,
		Progress:      value,
		IsUnlocked:    value >= def.Threshold,
	}
	if progress.IsUnlocked {
		now := s.now()
		progress.UnlockedAt = &now
	}

	newlyUnlocked, err := s.repo.UpsertProgress(ctx, progress)
	if err != nil {
		return nil, err
	}

	if newlyUnlocked && s.notificationService != nil {
		s.sendUnlockNotification(ctx, userID, def)
	}
	return progress, nil
}

func (s *achievementService) sendUnlockNotification(ctx context.Context, userID uuid.UUID, def entity.AchievementDefinition) {
	notification := &entity.Notification{
		UserID:     userID,
		EntityID:   def.ID,
		EntityType: "achievement",
		Type:       "achievement_unlocked",
		Message:    fmt.Sprintf("Achievement unlocked: %s (%s)", def.Name, def.Description),
	}

	if err := s.notificationService.CreateNotification(ctx, notification); err != nil {
		log.Printf("failed to send unlock notification to user %s: %v", userID, err)
	}
}

// accumulatorValues reads the current value of each requested criteria
// (nil = all known criteria). Sum criteria go through the daily
// summaries, count criteria through the event store, streaks through the
// streak calculator.
func (s *achievementService) accumulatorValues(ctx context.Context, userID uuid.UUID, only []string) (map[string]float64, error) {
	wanted := map[string]bool{}
	if only == nil {
		for criteria := range knownCriteria {
			wanted[criteria] = true
		}
	} else {
		for _, criteria := range only {
			wanted[criteria] = true
		}
	}

	values := map[string]float64{}
	for criteria := range wanted {
		value, err := s.accumulate(ctx, userID, criteria)
		if err != nil {
			return nil, err
		}
		values[criteria] = value
	}
	return values, nil
}

func (s *achievementService) accumulate(ctx context.Context, userID uuid.UUID, criteria string) (float64, error) {
	switch criteria {
	case entity.CriteriaWorkoutsCompleted:
		count, err := s.activityRepo.CountEventsByType(ctx, userID, entity.ActivityWorkoutCompleted)
		return float64(count), err
	case entity.CriteriaPostsCreated:
		count, err := s.activityRepo.CountEventsByType(ctx, userID, entity.ActivityPostCreated)
		return float64(count), err
	case entity.CriteriaLikesReceived:
		count, err := s.activityRepo.CountEventsByType(ctx, userID, entity.ActivityLikeReceived)
		return float64(count), err
	case entity.CriteriaCaloriesBurned:
		return s.activityRepo.SumDailyMetric(ctx, userID, entity.ActivityCaloriesBurned)
	case entity.CriteriaStepsTotal:
		return s.activityRepo.SumDailyMetric(ctx, userID, entity.ActivitySteps)
	case entity.CriteriaWaterTotal:
		return s.activityRepo.SumDailyMetric(ctx, userID, entity.ActivityWater)
	case entity.CriteriaStreakDays:
		cutoff := entity.Day(s.now()).AddDate(0, 0, -streakLookbackDays)
		dates, err := s.activityRepo.DistinctActiveDates(ctx, userID, cutoff)
		if err != nil {
			return 0, err
		}
		return float64(leaderboard.CurrentStreak(dates, s.now())), nil
	default:
		// Unreachable: the catalog was validated at load time.
		return 0, fmt.Errorf("unknown criteria %q", criteria)
	}
}

func progressPercent(progress, threshold float64) int {
	if threshold <= 0 {
		return 0
	}
	percent := int(math.Round(progress / threshold * 100))
	if percent > 100 {
		percent = 100
	}
	return percent
}

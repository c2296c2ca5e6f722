package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"vigorfit.com/engagement/internal/entity"
	"vigorfit.com/engagement/pkg/apperror"
)

type ActivityRepository interface {
	// CreateEvent appends an event. A replayed insert with the same id is
	// a no-op (the session tracker retries completion with deterministic ids).
	CreateEvent(ctx context.Context, event *entity.ActivityEvent) error
	// ApplyToSummary folds one event into its daily summary cell. Returns
	// false when the event was already applied (dedup marker conflict).
	ApplyToSummary(ctx context.Context, event *entity.ActivityEvent) (bool, error)
	GetDailySummaries(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.DailySummary, error)
	ListEvents(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.ActivityEvent, int64, error)

	// Lifetime accumulators, read by the achievement evaluator.
	SumDailyMetric(ctx context.Context, userID uuid.UUID, metric string) (float64, error)
	CountEventsByType(ctx context.Context, userID uuid.UUID, eventType string) (int64, error)
	DistinctActiveDates(ctx context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) CreateEvent(ctx context.Context, event *entity.ActivityEvent) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(event).Error
	return storageErr(err)
}

func (r *activityRepository) ApplyToSummary(ctx context.Context, event *entity.ActivityEvent) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Dedup marker first: a conflict here means the event already
		// took effect, so the increment must not run again.
		marker := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).Create(&entity.SummaryApplication{EventID: event.ID})
		if marker.Error != nil {
			return marker.Error
		}
		if marker.RowsAffected == 0 {
			return nil
		}

		// Atomic increment, never read-modify-write.
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}, {Name: "metric"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"value":      gorm.Expr("daily_summaries.value + ?", event.Value),
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).Create(&entity.DailySummary{
			UserID: event.UserID,
			Date:   entity.Day(event.OccurredOn),
			Metric: event.Type,
			Value:  event.Value,
		}).Error; err != nil {
			return err
		}

		applied = true
		return nil
	})

	return applied, storageErr(err)
}

func (r *activityRepository) GetDailySummaries(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.DailySummary, error) {
	var summaries []entity.DailySummary
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Order("date ASC").
		Find(&summaries).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return summaries, nil
}

func (r *activityRepository) ListEvents(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.ActivityEvent, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.ActivityEvent{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, storageErr(err)
	}

	var events []entity.ActivityEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("recorded_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return nil, 0, storageErr(err)
	}
	return events, total, nil
}

func (r *activityRepository) SumDailyMetric(ctx context.Context, userID uuid.UUID, metric string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Model(&entity.DailySummary{}).
		Select("COALESCE(SUM(value), 0)").
		Where("user_id = ? AND metric = ?", userID, metric).
		Scan(&total).Error
	if err != nil {
		return 0, storageErr(err)
	}
	return total, nil
}

func (r *activityRepository) CountEventsByType(ctx context.Context, userID uuid.UUID, eventType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ActivityEvent{}).
		Where("user_id = ? AND type = ?", userID, eventType).
		Count(&count).Error
	if err != nil {
		return 0, storageErr(err)
	}
	return count, nil
}

func (r *activityRepository) DistinctActiveDates(ctx context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).Model(&entity.ActivityEvent{}).
		Distinct("occurred_on").
		Where("user_id = ? AND occurred_on >= ? AND type IN ?", userID, since, streakTypes()).
		Order("occurred_on ASC").
		Pluck("occurred_on", &dates).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return dates, nil
}

func streakTypes() []string {
	return []string{
		entity.ActivitySteps,
		entity.ActivityWorkout,
		entity.ActivityCaloriesBurned,
		entity.ActivityWater,
		entity.ActivityWorkoutCompleted,
	}
}

func storageErr(err error) error {
	return apperror.WrapStorage(err)
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"vigorfit.com/engagement/internal/entity"
	"vigorfit.com/engagement/pkg/apperror"
)

type AchievementRepository interface {
	SeedDefinitions(ctx context.Context, defs []entity.AchievementDefinition) error
	ListDefinitions(ctx context.Context) ([]entity.AchievementDefinition, error)
	GetProgressByUser(ctx context.Context, userID uuid.UUID) (map[string]entity.AchievementProgress, error)
	// UpsertProgress writes recomputed progress. The unlock flag is
	// monotonic at the SQL level: once true it can never be written back
	// to false, and unlocked_at is set exactly once. Returns whether this
	// write performed the locked -> unlocked transition.
	UpsertProgress(ctx context.Context, progress *entity.AchievementProgress) (bool, error)
}

type achievementRepository struct {
	db *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) SeedDefinitions(ctx context.Context, defs []entity.AchievementDefinition) error {
	if len(defs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&defs).Error
	return apperror.WrapStorage(err)
}

func (r *achievementRepository) ListDefinitions(ctx context.Context) ([]entity.AchievementDefinition, error) {
	var defs []entity.AchievementDefinition
	if err := r.db.WithContext(ctx).Order("threshold ASC, id ASC").Find(&defs).Error; err != nil {
		return nil, apperror.WrapStorage(err)
	}
	return defs, nil
}

func (r *achievementRepository) GetProgressByUser(ctx context.Context, userID uuid.UUID) (map[string]entity.AchievementProgress, error) {
	var rows []entity.AchievementProgress
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, apperror.WrapStorage(err)
	}

	result := make(map[string]entity.AchievementProgress, len(rows))
	for _, row := range rows {
		result[row.AchievementID] = row
	}
	return result, nil
}

func (r *achievementRepository) UpsertProgress(ctx context.Context, progress *entity.AchievementProgress) (bool, error) {
	newlyUnlocked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entity.AchievementProgress
		err := tx.Where("user_id = ? AND achievement_id = ?", progress.UserID, progress.AchievementID).
			First(&existing).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}
		wasUnlocked := err == nil && existing.IsUnlocked

		// The OR / COALESCE guards keep the unlock monotonic even if a
		// concurrent recompute writes a lower counter.
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"progress":    progress.Progress,
				"is_unlocked": gorm.Expr("achievement_progresses.is_unlocked OR ?", progress.IsUnlocked),
				"unlocked_at": gorm.Expr("COALESCE(achievement_progresses.unlocked_at, ?)", progress.UnlockedAt),
				"updated_at":  gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).Create(progress).Error; err != nil {
			return err
		}

		newlyUnlocked = progress.IsUnlocked && !wasUnlocked

		// Reflect the stored (monotonic) state back to the caller, so a
		// recompute with a lower counter still reads as unlocked.
		if wasUnlocked {
			progress.IsUnlocked = true
			progress.UnlockedAt = existing.UnlockedAt
		}
		return nil
	})
	if err != nil {
		return false, apperror.WrapStorage(err)
	}
	return newlyUnlocked, nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"vigorfit.com/engagement/internal/entity"
	"vigorfit.com/engagement/pkg/apperror"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.WorkoutSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.WorkoutSession, error)
	HasOpenSession(ctx context.Context, userID uuid.UUID) (bool, error)
	// TransitionState is a compare-and-set on the state column; false
	// means the session was not in the expected state.
	TransitionState(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	// MarkCompleted finalizes the session iff it is COMPLETING.
	MarkCompleted(ctx context.Context, id uuid.UUID, durationSeconds int, calories float64, completedAt time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// AbandonStale sweeps sessions stuck in STARTING/ACTIVE past the
	// cutoff; they never emitted events, so aggregates are untouched.
	AbandonStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.WorkoutSession) error {
	return apperror.WrapStorage(r.db.WithContext(ctx).Create(session).Error)
}

func (r *sessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.WorkoutSession, error) {
	var session entity.WorkoutSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.WrapStorage(err)
	}
	return &session, nil
}

func (r *sessionRepository) HasOpenSession(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.WorkoutSession{}).
		Where("user_id = ? AND state IN ?", userID, []string{entity.SessionStarting, entity.SessionActive, entity.SessionCompleting}).
		Count(&count).Error
	if err != nil {
		return false, apperror.WrapStorage(err)
	}
	return count > 0, nil
}

func (r *sessionRepository) TransitionState(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.WorkoutSession{}).
		Where("id = ? AND state = ?", id, from).
		Update("state", to)
	if result.Error != nil {
		return false, apperror.WrapStorage(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *sessionRepository) MarkCompleted(ctx context.Context, id uuid.UUID, durationSeconds int, calories float64, completedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.WorkoutSession{}).
		Where("id = ? AND state = ?", id, entity.SessionCompleting).
		Updates(map[string]interface{}{
			"state":                     entity.SessionCompleted,
			"completed_at":              completedAt,
			"reported_duration_seconds": durationSeconds,
			"reported_calories":         calories,
		})
	if result.Error != nil {
		return false, apperror.WrapStorage(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *sessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return apperror.WrapStorage(r.db.WithContext(ctx).Delete(&entity.WorkoutSession{}, "id = ?", id).Error)
}

func (r *sessionRepository) AbandonStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.WorkoutSession{}).
		Where("state IN ? AND started_at < ?", []string{entity.SessionStarting, entity.SessionActive}, cutoff).
		Update("state", entity.SessionAbandoned)
	if result.Error != nil {
		return 0, apperror.WrapStorage(result.Error)
	}
	return result.RowsAffected, nil
}

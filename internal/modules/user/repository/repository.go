package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"vigorfit.com/engagement/internal/entity"
	"vigorfit.com/engagement/pkg/apperror"
)

// UserRepository is read-only: accounts are owned by the platform's auth
// service, this subsystem only decorates responses with display fields.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entity.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, apperror.WrapStorage(err)
	}
	return &user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entity.User, error) {
	result := make(map[uuid.UUID]entity.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var users []entity.User
	if err := r.db.WithContext(ctx).Find(&users, ids).Error; err != nil {
		return nil, apperror.WrapStorage(err)
	}

	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}

package repository

import (
	"context"

	"coffee_shop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Register(ctx context.Context, user *models.User) error
	GetByExternalID(ctx context.Context, externalID int64) (*models.User, error)
	GetInternalID(ctx context.Context, externalID int64) (uint, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Register inserts the user unless a row with the same external id exists.
// Existing rows are left untouched.
func (r *userRepository) Register(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).
		Create(user).Error
	return translate(err)
}

func (r *userRepository) GetByExternalID(ctx context.Context, externalID int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetInternalID(ctx context.Context, externalID int64) (uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("external_id = ?", externalID).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, translate(err)
	}
	if len(ids) == 0 {
		return 0, ErrNotFound
	}
	return ids[0], nil
}

package repository

import (
	"context"

	"coffee_shop/internal/models"

	"gorm.io/gorm"
)

type MenuRepository interface {
	GetAvailable(ctx context.Context) ([]models.MenuItem, error)
	GetByID(ctx context.Context, id uint) (*models.MenuItem, error)
	Count(ctx context.Context) (int64, error)
	CreateBatch(ctx context.Context, items []models.MenuItem) error
}

type menuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) GetAvailable(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.WithContext(ctx).Where("available = ?", true).Order("id").Find(&items).Error
	if err != nil {
		return nil, translate(err)
	}
	return items, nil
}

func (r *menuRepository) GetByID(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *menuRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MenuItem{}).Count(&count).Error
	return count, translate(err)
}

// CreateBatch inserts catalog rows in one transaction. Used for seeding.
func (r *menuRepository) CreateBatch(ctx context.Context, items []models.MenuItem) error {
	if len(items) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&items).Error
	})
	return translate(err)
}

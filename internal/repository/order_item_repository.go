package repository

import (
	"context"

	"coffee_shop/internal/models"

	"gorm.io/gorm"
)

type OrderItemRepository interface {
	CreateBatch(ctx context.Context, items []models.OrderItem) error
	GetByOrderID(ctx context.Context, orderID uint) ([]models.OrderItem, error)
	CountByOrderID(ctx context.Context, orderID uint) (int64, error)
}

type orderItemRepository struct {
	db *gorm.DB
}

// NewOrderItemRepository accepts either the root handle or a transaction.
func NewOrderItemRepository(db *gorm.DB) OrderItemRepository {
	return &orderItemRepository{db: db}
}

func (r *orderItemRepository) CreateBatch(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Omit("MenuItem").Create(&items).Error)
}

func (r *orderItemRepository) GetByOrderID(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&items).Error
	if err != nil {
		return nil, translate(err)
	}
	return items, nil
}

func (r *orderItemRepository) CountByOrderID(ctx context.Context, orderID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("order_id = ?", orderID).Count(&count).Error
	return count, translate(err)
}

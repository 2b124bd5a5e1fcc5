package repository

import (
	"context"
	"fmt"

	"coffee_shop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByUserExternalID(ctx context.Context, externalID int64, limit int) ([]models.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create writes the order header and its Items in one transaction. Either
// both are committed or neither is; on failure order.ID is reset to zero.
func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	items := order.Items
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		if err := ensureMenuItemsExist(tx, items); err != nil {
			return err
		}
		for i := range items {
			items[i].ID = 0
			items[i].OrderID = order.ID
		}
		return NewOrderItemRepository(tx).CreateBatch(ctx, items)
	})
	if err != nil {
		order.ID = 0
		return translate(err)
	}
	order.Items = items
	return nil
}

// ensureMenuItemsExist fails with ErrConstraintViolation naming the first
// menu item id that has no catalog row.
func ensureMenuItemsExist(tx *gorm.DB, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	wanted := make([]uint, 0, len(items))
	seen := make(map[uint]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.MenuItemID]; ok {
			continue
		}
		seen[item.MenuItemID] = struct{}{}
		wanted = append(wanted, item.MenuItemID)
	}

	var found []uint
	if err := tx.Model(&models.MenuItem{}).Where("id IN ?", wanted).Pluck("id", &found).Error; err != nil {
		return err
	}
	if len(found) == len(wanted) {
		return nil
	}
	present := make(map[uint]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	for _, id := range wanted {
		if _, ok := present[id]; !ok {
			return fmt.Errorf("%w: menu item %d does not exist", ErrConstraintViolation, id)
		}
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

// GetByUserExternalID returns up to limit orders of the user, newest first.
func (r *orderRepository) GetByUserExternalID(ctx context.Context, externalID int64, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Select("orders.*").
		Joins("JOIN users ON users.id = orders.user_id").
		Where("users.external_id = ?", externalID).
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Limit(limit).
		Preload("Items").
		Find(&orders).Error
	if err != nil {
		return nil, translate(err)
	}
	return orders, nil
}

package services

import (
	"context"

	"coffee_shop/internal/models"
	"coffee_shop/internal/repository"
)

type MenuService interface {
	ListAvailable(ctx context.Context) ([]models.MenuItem, error)
	GetItem(ctx context.Context, id uint) (*models.MenuItem, error)
}

type menuService struct {
	menuRepo repository.MenuRepository
}

func NewMenuService(menuRepo repository.MenuRepository) MenuService {
	return &menuService{menuRepo: menuRepo}
}

// ListAvailable returns the items currently on sale, in id order.
func (s *menuService) ListAvailable(ctx context.Context) ([]models.MenuItem, error) {
	return s.menuRepo.GetAvailable(ctx)
}

func (s *menuService) GetItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	return s.menuRepo.GetByID(ctx, id)
}

package migrations

import (
	"context"
	"fmt"
	"log/slog"

	"coffee_shop/internal/models"
	"coffee_shop/internal/repository"

	"gorm.io/gorm"
)

// RunMigrations brings the schema up to date and seeds the menu when empty.
// It is safe to run on every start.
func RunMigrations(ctx context.Context, db *gorm.DB, log *slog.Logger) error {
	log.Info("running database migrations")

	err := db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := seedMenu(ctx, repository.NewMenuRepository(db), log); err != nil {
		return fmt.Errorf("failed to seed menu: %w", err)
	}

	log.Info("database migrations completed")
	return nil
}

func seedMenu(ctx context.Context, menuRepo repository.MenuRepository, log *slog.Logger) error {
	count, err := menuRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Debug("menu already seeded", "items", count)
		return nil
	}

	items := DefaultMenu()
	if err := menuRepo.CreateBatch(ctx, items); err != nil {
		return err
	}
	log.Info("menu seeded", "items", len(items))
	return nil
}

// DefaultMenu is the catalog a fresh database starts with.
func DefaultMenu() []models.MenuItem {
	item := func(name, description string, price float64, category models.MenuCategory) models.MenuItem {
		return models.MenuItem{
			Name:        name,
			Description: description,
			Price:       price,
			Category:    string(category),
			Available:   true,
		}
	}
	return []models.MenuItem{
		item("Cappuccino", "Classic cappuccino with milk", 180, models.CategoryCoffee),
		item("Latte", "Smooth latte with milk foam", 190, models.CategoryCoffee),
		item("Americano", "Strong americano", 150, models.CategoryCoffee),
		item("Espresso", "Double espresso", 120, models.CategoryCoffee),
		item("Raf", "Vanilla raf with caramel", 220, models.CategoryCoffee),
		item("Black tea", "Assam with bergamot", 150, models.CategoryTea),
		item("Croissant", "Fresh chocolate croissant", 120, models.CategoryBakery),
		item("Cheesecake", "New York cheesecake", 250, models.CategoryDessert),
		item("Sandwich", "Chicken and vegetables", 200, models.CategoryFood),
	}
}

package repository_test

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"coffee_shop/internal/database"
	"coffee_shop/internal/logger"
	"coffee_shop/internal/migrations"
	"coffee_shop/internal/models"
	"coffee_shop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a migrated and seeded SQLite database in a temp dir.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	db, err := database.Initialize(filepath.Join(t.TempDir(), "coffee_shop.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	require.NoError(t, migrations.RunMigrations(context.Background(), db, log))
	return db
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func registerUser(t *testing.T, db *gorm.DB, externalID int64, name string) uint {
	t.Helper()
	users := repository.NewUserRepository(db)
	require.NoError(t, users.Register(context.Background(), &models.User{ExternalID: externalID, Name: name}))
	id, err := users.GetInternalID(context.Background(), externalID)
	require.NoError(t, err)
	return id
}

func TestUserRepositoryRegisterIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, users.Register(ctx, &models.User{ExternalID: 42, Name: "Alice", Handle: "alice"}))
	require.NoError(t, users.Register(ctx, &models.User{ExternalID: 42, Name: "Bob", Handle: "bob"}))

	got, err := users.GetByExternalID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "alice", got.Handle)
	assert.False(t, got.CreatedAt.IsZero())
	assert.EqualValues(t, 1, countRows(t, db, &models.User{}))
}

func TestUserRepositoryConcurrentRegister(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- users.Register(context.Background(), &models.User{ExternalID: 7, Name: "Racer"})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, countRows(t, db, &models.User{}))
}

func TestUserRepositoryGetInternalID(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)

	_, err := users.GetInternalID(context.Background(), 404)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = users.GetByExternalID(context.Background(), 404)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	id := registerUser(t, db, 5, "Eve")
	assert.NotZero(t, id)
}

func TestStorageErrorsAreDistinctFromNotFound(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	require.NoError(t, database.Close(db))

	_, err := users.GetInternalID(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrStorageUnavailable)
	assert.NotErrorIs(t, err, repository.ErrNotFound)
}

func TestMenuRepositoryGetAvailable(t *testing.T) {
	db := newTestDB(t)
	menu := repository.NewMenuRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Model(&models.MenuItem{}).Where("id = ?", 2).Update("available", false).Error)

	items, err := menu.GetAvailable(ctx)
	require.NoError(t, err)
	assert.Len(t, items, len(migrations.DefaultMenu())-1)
	for i, item := range items {
		assert.True(t, item.Available, "item %d should be available", item.ID)
		assert.NotEqual(t, uint(2), item.ID)
		if i > 0 {
			assert.Less(t, items[i-1].ID, item.ID)
		}
	}

	hidden, err := menu.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.False(t, hidden.Available)

	_, err = menu.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSeedingRunsOnce(t *testing.T) {
	db := newTestDB(t)
	log := logger.New(logger.Config{Output: io.Discard})

	require.NoError(t, migrations.RunMigrations(context.Background(), db, log))
	assert.EqualValues(t, len(migrations.DefaultMenu()), countRows(t, db, &models.MenuItem{}))
}

func TestOrderRepositoryCreate(t *testing.T) {
	db := newTestDB(t)
	orders := repository.NewOrderRepository(db)
	ctx := context.Background()
	userID := registerUser(t, db, 42, "Alice")

	order := &models.Order{
		UserID:       userID,
		TotalAmount:  610,
		Status:       models.OrderPending,
		DeliveryType: models.FulfillmentPickup,
		Items: []models.OrderItem{
			{MenuItemID: 1, Quantity: 2, Price: 180},
			{MenuItemID: 8, Quantity: 1, Price: 250, Notes: "no sugar"},
		},
	}
	require.NoError(t, orders.Create(ctx, order))
	require.NotZero(t, order.ID)

	got, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 610.0, got.TotalAmount)
	assert.Equal(t, models.OrderPending, got.Status)
	require.Len(t, got.Items, 2)

	var sum float64
	for _, item := range got.Items {
		assert.Equal(t, order.ID, item.OrderID)
		sum += item.Subtotal()
	}
	assert.Equal(t, 610.0, sum)

	orderItems := repository.NewOrderItemRepository(db)
	items, err := orderItems.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "no sugar", items[1].Notes)

	count, err := orderItems.CountByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestOrderRepositoryCreateIsAtomic(t *testing.T) {
	db := newTestDB(t)
	orders := repository.NewOrderRepository(db)
	userID := registerUser(t, db, 42, "Alice")

	order := &models.Order{
		UserID:       userID,
		TotalAmount:  300,
		Status:       models.OrderPending,
		DeliveryType: models.FulfillmentPickup,
		Items: []models.OrderItem{
			{MenuItemID: 1, Quantity: 1, Price: 180},
			{MenuItemID: 999, Quantity: 1, Price: 120},
		},
	}
	ctx := context.Background()
	err := orders.Create(ctx, order)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrConstraintViolation)
	assert.Zero(t, order.ID)

	// Order 1 was written inside the transaction before it rolled back.
	count, err := repository.NewOrderItemRepository(db).CountByOrderID(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.Zero(t, countRows(t, db, &models.Order{}))
	assert.Zero(t, countRows(t, db, &models.OrderItem{}))
}

func TestOrderRepositoryGetByUserExternalID(t *testing.T) {
	db := newTestDB(t)
	orders := repository.NewOrderRepository(db)
	ctx := context.Background()
	alice := registerUser(t, db, 42, "Alice")
	bob := registerUser(t, db, 43, "Bob")

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	// Inserted out of chronological order so id order and time order differ.
	offsets := []int{3, 0, 4, 1, 2}
	for _, minutes := range offsets {
		order := &models.Order{
			UserID:       alice,
			TotalAmount:  float64(100 + minutes),
			Status:       models.OrderPending,
			DeliveryType: models.FulfillmentPickup,
			CreatedAt:    base.Add(time.Duration(minutes) * time.Minute),
			Items:        []models.OrderItem{{MenuItemID: 4, Quantity: 1, Price: float64(100 + minutes)}},
		}
		require.NoError(t, orders.Create(ctx, order))
	}
	require.NoError(t, orders.Create(ctx, &models.Order{
		UserID:       bob,
		TotalAmount:  120,
		Status:       models.OrderPending,
		DeliveryType: models.FulfillmentDelivery,
		Items:        []models.OrderItem{{MenuItemID: 4, Quantity: 1, Price: 120}},
	}))

	got, err := orders.GetByUserExternalID(ctx, 42, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []float64{104, 103, 102}, []float64{got[0].TotalAmount, got[1].TotalAmount, got[2].TotalAmount})
	for _, order := range got {
		assert.Equal(t, alice, order.UserID)
		assert.Len(t, order.Items, 1)
	}

	none, err := orders.GetByUserExternalID(ctx, 404, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

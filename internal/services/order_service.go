package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coffee_shop/internal/models"
	"coffee_shop/internal/repository"
)

// DefaultOrderHistoryLimit is used when ListOrdersForUser gets a non-positive limit.
const DefaultOrderHistoryLimit = 10

// LineItem is one cart position submitted at checkout.
type LineItem struct {
	MenuItemID uint
	Quantity   int
	Price      float64
	Note       string
}

type CreateOrderInput struct {
	ExternalUserID  int64
	Items           []LineItem
	TotalAmount     float64
	ScheduledTime   *time.Time
	FulfillmentType string
	Address         string
	Phone           string
	Notes           string
}

type OrderService interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (uint, error)
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	ListOrdersForUser(ctx context.Context, externalUserID int64, limit int) ([]models.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	userService UserService
	notifier    NotificationService
	log         *slog.Logger
}

func NewOrderService(orderRepo repository.OrderRepository, userService UserService, notifier NotificationService, log *slog.Logger) OrderService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &orderService{
		orderRepo:   orderRepo,
		userService: userService,
		notifier:    notifier,
		log:         log.With("component", "order_service"),
	}
}

// CreateOrder stores a pending order with its line items and returns its id.
// The total is stored as submitted; it is not checked against the items.
// The notifier is told about the order only after it is committed.
func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (uint, error) {
	fulfillment, err := validateOrderInput(in)
	if err != nil {
		return 0, err
	}

	userID, _, err := s.userService.ResolveOrCreate(ctx, in.ExternalUserID)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve user %d: %w", in.ExternalUserID, err)
	}

	order := &models.Order{
		UserID:        userID,
		TotalAmount:   in.TotalAmount,
		Status:        models.OrderPending,
		DeliveryType:  fulfillment,
		Address:       in.Address,
		Phone:         in.Phone,
		Notes:         in.Notes,
		ScheduledTime: in.ScheduledTime,
		Items:         make([]models.OrderItem, 0, len(in.Items)),
	}
	for _, item := range in.Items {
		order.Items = append(order.Items, models.OrderItem{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			Price:      item.Price,
			Notes:      item.Note,
		})
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}

	s.log.Info("order created",
		"order_id", order.ID,
		"external_user_id", in.ExternalUserID,
		"total", order.TotalAmount,
		"items", len(order.Items),
		"delivery_type", order.DeliveryType,
	)

	s.notifier.OrderCreated(ctx, models.OrderCreatedEvent{
		OrderID:         order.ID,
		UserExternalID:  in.ExternalUserID,
		TotalAmount:     order.TotalAmount,
		FulfillmentType: order.DeliveryType,
		ScheduledTime:   order.ScheduledTime,
		ItemCount:       len(order.Items),
		CreatedAt:       order.CreatedAt,
	})

	return order.ID, nil
}

func validateOrderInput(in CreateOrderInput) (models.FulfillmentType, error) {
	fulfillment, ok := models.ParseFulfillmentType(in.FulfillmentType)
	if !ok {
		return "", fmt.Errorf("%w: unknown delivery type %q", repository.ErrConstraintViolation, in.FulfillmentType)
	}
	if len(in.Items) == 0 {
		return "", fmt.Errorf("%w: order has no items", repository.ErrConstraintViolation)
	}
	if in.TotalAmount < 0 {
		return "", fmt.Errorf("%w: negative total %.2f", repository.ErrConstraintViolation, in.TotalAmount)
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return "", fmt.Errorf("%w: menu item %d has quantity %d", repository.ErrConstraintViolation, item.MenuItemID, item.Quantity)
		}
		if item.Price < 0 {
			return "", fmt.Errorf("%w: menu item %d has negative price", repository.ErrConstraintViolation, item.MenuItemID)
		}
	}
	return fulfillment, nil
}

func (s *orderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// ListOrdersForUser returns the user's most recent orders, newest first.
// An unknown user has no orders.
func (s *orderService) ListOrdersForUser(ctx context.Context, externalUserID int64, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = DefaultOrderHistoryLimit
	}
	orders, err := s.orderRepo.GetByUserExternalID(ctx, externalUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of user %d: %w", externalUserID, err)
	}
	return orders, nil
}

package models

import (
	"time"
)

type Order struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	UserID        uint            `json:"user_id" gorm:"not null;index"`
	User          *User           `json:"-" gorm:"constraint:OnDelete:RESTRICT"`
	TotalAmount   float64         `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	Status        OrderStatus     `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`
	DeliveryType  FulfillmentType `json:"delivery_type" gorm:"type:varchar(16);not null;default:'pickup'"`
	Address       string          `json:"address"`
	Phone         string          `json:"phone"`
	Notes         string          `json:"notes" gorm:"type:text"`
	ScheduledTime *time.Time      `json:"scheduled_time"`
	CreatedAt     time.Time       `json:"created_at" gorm:"index"`
	Items         []OrderItem     `json:"items" gorm:"constraint:OnDelete:CASCADE"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// orderTransitions lists the statuses each status may move to.
// Terminal statuses have no entry.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderReady, OrderCancelled},
	OrderReady:     {OrderDelivered, OrderCancelled},
}

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPreparing, OrderReady, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order in status s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible from s.
func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(orderTransitions[s]) == 0
}

type FulfillmentType string

const (
	FulfillmentPickup   FulfillmentType = "pickup"
	FulfillmentDelivery FulfillmentType = "delivery"
)

// ParseFulfillmentType maps the mini-app value to a FulfillmentType.
// An empty value means pickup.
func ParseFulfillmentType(s string) (FulfillmentType, bool) {
	switch FulfillmentType(s) {
	case "", FulfillmentPickup:
		return FulfillmentPickup, true
	case FulfillmentDelivery:
		return FulfillmentDelivery, true
	}
	return "", false
}

// OrderCreatedEvent is emitted once an order and its items are committed.
type OrderCreatedEvent struct {
	OrderID         uint            `json:"order_id"`
	UserExternalID  int64           `json:"user_external_id"`
	TotalAmount     float64         `json:"total_amount"`
	FulfillmentType FulfillmentType `json:"delivery_type"`
	ScheduledTime   *time.Time      `json:"scheduled_time,omitempty"`
	ItemCount       int             `json:"item_count"`
	CreatedAt       time.Time       `json:"created_at"`
}

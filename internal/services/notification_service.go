package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"coffee_shop/internal/models"
	"coffee_shop/pkg/telegram"
)

// NotificationService receives order events. Implementations must not block
// the caller on delivery and never report delivery failures back.
type NotificationService interface {
	OrderCreated(ctx context.Context, event models.OrderCreatedEvent)
}

type NoopNotifier struct{}

func (NoopNotifier) OrderCreated(context.Context, models.OrderCreatedEvent) {}

// MessageSender is the part of the Telegram client the admin notifier needs.
type MessageSender interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error)
}

// EventPublisher is the part of the Redis client the event notifier needs.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload any) (int64, error)
}

const notifyTimeout = 10 * time.Second

// asyncNotifier runs deliveries on their own goroutines, detached from the
// request context, and lets shutdown wait for them.
type asyncNotifier struct {
	wg  sync.WaitGroup
	log *slog.Logger
}

func (a *asyncNotifier) dispatch(ctx context.Context, name string, deliver func(ctx context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if err := deliver(ctx); err != nil {
			a.log.Error("notification failed", "sink", name, "error", err)
		}
	}()
}

// Wait blocks until every dispatched delivery has finished.
func (a *asyncNotifier) Wait() {
	a.wg.Wait()
}

// AdminNotifier sends a chat message about each new order to the shop administrator.
type AdminNotifier struct {
	asyncNotifier
	sender      MessageSender
	adminChatID int64
	currency    string
	location    *time.Location
}

func NewAdminNotifier(sender MessageSender, adminChatID int64, currency string, location *time.Location, log *slog.Logger) *AdminNotifier {
	if location == nil {
		location = time.UTC
	}
	return &AdminNotifier{
		asyncNotifier: asyncNotifier{log: log.With("component", "admin_notifier")},
		sender:        sender,
		adminChatID:   adminChatID,
		currency:      currency,
		location:      location,
	}
}

func (n *AdminNotifier) OrderCreated(ctx context.Context, event models.OrderCreatedEvent) {
	if n.adminChatID == 0 {
		n.log.Warn("admin chat is not configured, skipping order notification", "order_id", event.OrderID)
		return
	}
	text := AdminOrderMessage(event, n.currency, n.location)
	n.dispatch(ctx, "admin_chat", func(ctx context.Context) error {
		_, err := n.sender.SendMessage(ctx, telegram.SendMessageRequest{
			ChatID:    n.adminChatID,
			Text:      text,
			ParseMode: telegram.ParseModeMarkdown,
		})
		return err
	})
}

// AdminOrderMessage renders the administrator notification for event.
func AdminOrderMessage(event models.OrderCreatedEvent, currency string, location *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 *New order #%d*\n\n", event.OrderID)
	fmt.Fprintf(&b, "Total: %s\n", FormatAmount(event.TotalAmount, currency))
	fmt.Fprintf(&b, "Type: %s\n", event.FulfillmentType)
	if event.ScheduledTime != nil {
		fmt.Fprintf(&b, "Scheduled for: %s\n", event.ScheduledTime.In(location).Format("15:04"))
	}
	return b.String()
}

// EventNotifier publishes each order event as JSON on a Redis channel.
type EventNotifier struct {
	asyncNotifier
	publisher EventPublisher
	channel   string
}

func NewEventNotifier(publisher EventPublisher, channel string, log *slog.Logger) *EventNotifier {
	return &EventNotifier{
		asyncNotifier: asyncNotifier{log: log.With("component", "event_notifier")},
		publisher:     publisher,
		channel:       channel,
	}
}

func (n *EventNotifier) OrderCreated(ctx context.Context, event models.OrderCreatedEvent) {
	n.dispatch(ctx, "redis:"+n.channel, func(ctx context.Context) error {
		_, err := n.publisher.Publish(ctx, n.channel, event)
		return err
	})
}

type multiNotifier []NotificationService

// NewMultiNotifier fans events out to every non-nil sink.
func NewMultiNotifier(sinks ...NotificationService) NotificationService {
	var m multiNotifier
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m multiNotifier) OrderCreated(ctx context.Context, event models.OrderCreatedEvent) {
	for _, s := range m {
		s.OrderCreated(ctx, event)
	}
}

// FormatAmount prints amount without a fractional part when it is whole,
// followed by the currency symbol.
func FormatAmount(amount float64, currency string) string {
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	s = strings.TrimSuffix(s, ".00")
	return s + currency
}

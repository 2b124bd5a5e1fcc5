package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"coffee_shop/internal/config"
	"coffee_shop/internal/repository"
	"coffee_shop/internal/services"
	"coffee_shop/pkg/telegram"

	"github.com/gin-gonic/gin"
)

const (
	callbackMenu       = "menu"
	callbackMyOrders   = "my_orders"
	callbackAbout      = "about"
	callbackItemPrefix = "item_"
	callbackAddPrefix  = "add_"
)

// BotAPI is the subset of the Telegram client used to answer users.
type BotAPI interface {
	SendMessage(ctx context.Context, req telegram.SendMessageRequest) (*telegram.Message, error)
	EditMessageText(ctx context.Context, req telegram.EditMessageTextRequest) error
	AnswerCallbackQuery(ctx context.Context, req telegram.AnswerCallbackQueryRequest) error
}

// TelegramSettings holds the configuration values the handler renders with.
type TelegramSettings struct {
	WebAppURL     string
	WebhookSecret string
	Shop          config.Shop
	Location      *time.Location
}

type TelegramHandler struct {
	bot          BotAPI
	userService  services.UserService
	menuService  services.MenuService
	orderService services.OrderService
	guard        UpdateGuard
	settings     TelegramSettings
	now          func() time.Time
	log          *slog.Logger
}

func NewTelegramHandler(
	bot BotAPI,
	userService services.UserService,
	menuService services.MenuService,
	orderService services.OrderService,
	guard UpdateGuard,
	settings TelegramSettings,
	log *slog.Logger,
) *TelegramHandler {
	if guard == nil {
		guard = AllowAllUpdates{}
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &TelegramHandler{
		bot:          bot,
		userService:  userService,
		menuService:  menuService,
		orderService: orderService,
		guard:        guard,
		settings:     settings,
		now:          time.Now,
		log:          log.With("component", "telegram_handler"),
	}
}

// HandleWebhook accepts updates pushed by Telegram. Processed updates are
// always acknowledged with 200 so Telegram does not redeliver them.
func (h *TelegramHandler) HandleWebhook(c *gin.Context) {
	if secret := h.settings.WebhookSecret; secret != "" {
		got := c.GetHeader(telegram.SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret token"})
			return
		}
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := h.ProcessUpdate(c.Request.Context(), update); err != nil {
		h.log.Error("failed to process update", "update_id", update.UpdateID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ProcessUpdate dispatches one update. Redelivered updates are skipped.
func (h *TelegramHandler) ProcessUpdate(ctx context.Context, update telegram.Update) error {
	// Marked before handling on purpose: both transports acknowledge a failed
	// update anyway, and a retry after a partial order would duplicate it.
	first, err := h.guard.FirstSeen(ctx, update.UpdateID)
	if err != nil {
		h.log.Warn("update de-duplication unavailable", "update_id", update.UpdateID, "error", err)
	} else if !first {
		h.log.Debug("skipping redelivered update", "update_id", update.UpdateID)
		return nil
	}

	switch {
	case update.CallbackQuery != nil:
		return h.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return h.handleMessage(ctx, update.Message)
	}
	return nil
}

func (h *TelegramHandler) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg.WebAppData != nil {
		return h.handleCheckout(ctx, msg)
	}

	switch msg.Command() {
	case "start":
		return h.start(ctx, msg)
	case "menu":
		return h.showMenu(ctx, msg.Chat.ID, 0)
	case "my_orders":
		if msg.From == nil {
			return nil
		}
		return h.showMyOrders(ctx, msg.Chat.ID, 0, msg.From.ID)
	case "about":
		return h.showAbout(ctx, msg.Chat.ID, 0)
	default:
		return h.send(ctx, msg.Chat.ID, helpText, nil)
	}
}

func (h *TelegramHandler) start(ctx context.Context, msg *telegram.Message) error {
	if msg.From == nil {
		return nil
	}
	if err := h.userService.RegisterUser(ctx, msg.From.ID, msg.From.FirstName, msg.From.Username); err != nil {
		h.sendError(ctx, msg.Chat.ID)
		return err
	}

	text, markup := welcomeView(msg.From.FirstName, h.settings.WebAppURL)
	if err := h.send(ctx, msg.Chat.ID, text, markup); err != nil {
		return err
	}
	// A second message carries the reply keyboard: a message can hold only one markup.
	return h.send(ctx, msg.Chat.ID, "Tap \"🛒 Order\" below to open the cart.", checkoutKeyboard(h.settings.WebAppURL))
}

func (h *TelegramHandler) handleCallback(ctx context.Context, q *telegram.CallbackQuery) error {
	answer := telegram.AnswerCallbackQueryRequest{CallbackQueryID: q.ID}
	if strings.HasPrefix(q.Data, callbackAddPrefix) {
		answer.Text = "Items are added to the cart in the mini app"
	}
	if err := h.bot.AnswerCallbackQuery(ctx, answer); err != nil {
		h.log.Warn("failed to answer callback query", "error", err)
	}

	var chatID, messageID int64
	if q.Message != nil {
		chatID, messageID = q.Message.Chat.ID, q.Message.MessageID
	} else {
		chatID = q.From.ID
	}

	switch data := q.Data; {
	case data == callbackMenu:
		return h.showMenu(ctx, chatID, messageID)
	case data == callbackMyOrders:
		return h.showMyOrders(ctx, chatID, messageID, q.From.ID)
	case data == callbackAbout:
		return h.showAbout(ctx, chatID, messageID)
	case strings.HasPrefix(data, callbackItemPrefix):
		id, err := strconv.ParseUint(strings.TrimPrefix(data, callbackItemPrefix), 10, 64)
		if err != nil {
			return fmt.Errorf("bad callback data %q: %w", data, err)
		}
		return h.showItem(ctx, chatID, messageID, uint(id))
	case strings.HasPrefix(data, callbackAddPrefix):
		return nil
	}
	h.log.Debug("unknown callback data", "data", q.Data)
	return nil
}

func (h *TelegramHandler) showMenu(ctx context.Context, chatID, messageID int64) error {
	items, err := h.menuService.ListAvailable(ctx)
	if err != nil {
		h.sendError(ctx, chatID)
		return err
	}
	text, markup := menuView(items, h.settings.Shop.CurrencySymbol, h.settings.WebAppURL)
	return h.respond(ctx, chatID, messageID, text, markup)
}

func (h *TelegramHandler) showItem(ctx context.Context, chatID, messageID int64, id uint) error {
	item, err := h.menuService.GetItem(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		text, markup := itemMissingView()
		return h.respond(ctx, chatID, messageID, text, markup)
	}
	if err != nil {
		h.sendError(ctx, chatID)
		return err
	}
	text, markup := itemView(item, h.settings.Shop.CurrencySymbol)
	return h.respond(ctx, chatID, messageID, text, markup)
}

func (h *TelegramHandler) showMyOrders(ctx context.Context, chatID, messageID, userID int64) error {
	orders, err := h.orderService.ListOrdersForUser(ctx, userID, services.DefaultOrderHistoryLimit)
	if err != nil {
		h.sendError(ctx, chatID)
		return err
	}
	text, markup := ordersView(orders, h.settings.Shop.CurrencySymbol, h.settings.Location, h.settings.WebAppURL)
	return h.respond(ctx, chatID, messageID, text, markup)
}

func (h *TelegramHandler) showAbout(ctx context.Context, chatID, messageID int64) error {
	text, markup := aboutView(h.settings.Shop)
	return h.respond(ctx, chatID, messageID, text, markup)
}

func (h *TelegramHandler) handleCheckout(ctx context.Context, msg *telegram.Message) error {
	if msg.From == nil {
		return nil
	}
	chatID := msg.Chat.ID

	payload, err := ParseCheckoutPayload([]byte(msg.WebAppData.Data))
	if err != nil {
		h.log.Warn("invalid checkout payload", "user_id", msg.From.ID, "error", err)
		return h.send(ctx, chatID, "❌ Could not read the order. Please try again.", nil)
	}
	scheduled, err := ParseScheduledTime(payload.ScheduledTime, h.now(), h.settings.Location)
	if err != nil {
		h.log.Warn("invalid scheduled time", "user_id", msg.From.ID, "value", payload.ScheduledTime)
		return h.send(ctx, chatID, "❌ Could not understand the pickup time. Please pick it again.", nil)
	}

	if err := h.userService.RegisterUser(ctx, msg.From.ID, msg.From.FirstName, msg.From.Username); err != nil {
		h.sendError(ctx, chatID)
		return err
	}

	orderID, err := h.orderService.CreateOrder(ctx, payload.toInput(msg.From.ID, scheduled))
	if errors.Is(err, repository.ErrConstraintViolation) {
		h.log.Warn("order rejected", "user_id", msg.From.ID, "error", err)
		return h.send(ctx, chatID, "❌ The order was rejected: some items are no longer available or the cart is invalid.", nil)
	}
	if err != nil {
		h.sendError(ctx, chatID)
		return err
	}

	text := orderConfirmationText(orderID, payload.Total, scheduled, h.settings.Shop.CurrencySymbol, h.settings.Location)
	return h.send(ctx, chatID, text, nil)
}

// respond edits the callback's message in place, or sends a new message when
// there is none to edit.
func (h *TelegramHandler) respond(ctx context.Context, chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	if messageID == 0 {
		return h.send(ctx, chatID, text, markup)
	}
	return h.bot.EditMessageText(ctx, telegram.EditMessageTextRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   telegram.ParseModeMarkdown,
		ReplyMarkup: markup,
	})
}

func (h *TelegramHandler) send(ctx context.Context, chatID int64, text string, markup any) error {
	req := telegram.SendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: telegram.ParseModeMarkdown,
	}
	// A typed nil pointer must not reach the JSON encoder as a non-nil interface.
	switch m := markup.(type) {
	case *telegram.InlineKeyboardMarkup:
		if m != nil {
			req.ReplyMarkup = m
		}
	case *telegram.ReplyKeyboardMarkup:
		if m != nil {
			req.ReplyMarkup = m
		}
	}
	_, err := h.bot.SendMessage(ctx, req)
	return err
}

func (h *TelegramHandler) sendError(ctx context.Context, chatID int64) {
	if err := h.send(ctx, chatID, errorText, nil); err != nil {
		h.log.Warn("failed to send error message", "chat_id", chatID, "error", err)
	}
}

// CheckoutPayload is the JSON the mini-app sends through Telegram.WebApp.sendData.
type CheckoutPayload struct {
	Items         []CheckoutItem `json:"items"`
	Cart          []CheckoutItem `json:"cart"`
	Total         float64        `json:"total"`
	ScheduledTime string         `json:"scheduledTime"`
	DeliveryType  string         `json:"deliveryType"`
	Address       string         `json:"address"`
	Phone         string         `json:"phone"`
	Notes         string         `json:"notes"`
}

type CheckoutItem struct {
	ID       uint    `json:"id"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Notes    string  `json:"notes"`
}

// ParseCheckoutPayload decodes a checkout. Older mini-app builds send the
// cart under "cart" instead of "items"; both are accepted.
func ParseCheckoutPayload(data []byte) (*CheckoutPayload, error) {
	var p CheckoutPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if len(p.Items) == 0 {
		p.Items = p.Cart
	}
	p.Cart = nil
	return &p, nil
}

func (p *CheckoutPayload) toInput(externalUserID int64, scheduled *time.Time) services.CreateOrderInput {
	items := make([]services.LineItem, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, services.LineItem{
			MenuItemID: item.ID,
			Quantity:   item.Quantity,
			Price:      item.Price,
			Note:       item.Notes,
		})
	}
	return services.CreateOrderInput{
		ExternalUserID:  externalUserID,
		Items:           items,
		TotalAmount:     p.Total,
		ScheduledTime:   scheduled,
		FulfillmentType: p.DeliveryType,
		Address:         p.Address,
		Phone:           p.Phone,
		Notes:           p.Notes,
	}
}

// ParseScheduledTime accepts "HH:MM" (today in loc), a datetime-local value
// ("2006-01-02T15:04", in loc) or RFC 3339. An empty value means as soon as
// possible and yields nil.
func ParseScheduledTime(value string, now time.Time, loc *time.Location) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation("15:04", value, loc); err == nil {
		today := now.In(loc)
		at := time.Date(today.Year(), today.Month(), today.Day(), t.Hour(), t.Minute(), 0, 0, loc)
		return &at, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04", value, loc); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("unrecognized time %q", value)
	}
	return &t, nil
}

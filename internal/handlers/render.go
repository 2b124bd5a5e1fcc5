package handlers

import (
	"fmt"
	"strings"
	"time"

	"coffee_shop/internal/config"
	"coffee_shop/internal/models"
	"coffee_shop/internal/services"
	"coffee_shop/pkg/telegram"
)

// ordersShown caps the order history message.
const ordersShown = 5

var statusEmoji = map[models.OrderStatus]string{
	models.OrderPending:   "⏳",
	models.OrderPreparing: "👨‍🍳",
	models.OrderReady:     "✅",
	models.OrderDelivered: "🚚",
	models.OrderCancelled: "❌",
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown makes user or catalog text safe inside a Markdown message.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func webAppButton(text, url string) telegram.InlineKeyboardButton {
	return telegram.InlineKeyboardButton{Text: text, WebApp: &telegram.WebAppInfo{URL: url}}
}

func callbackButton(text, data string) telegram.InlineKeyboardButton {
	return telegram.InlineKeyboardButton{Text: text, CallbackData: data}
}

func welcomeView(firstName, webAppURL string) (string, *telegram.InlineKeyboardMarkup) {
	text := fmt.Sprintf("☕ Welcome to our coffee shop, %s!\n\nChoose an action:", escapeMarkdown(firstName))
	return text, &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{callbackButton("📋 Menu", callbackMenu)},
		{webAppButton("🛒 Cart", strings.TrimRight(webAppURL, "/")+"/cart.html")},
		{callbackButton("📦 My orders", callbackMyOrders)},
		{callbackButton("ℹ️ About us", callbackAbout)},
	}}
}

// checkoutKeyboard is the reply keyboard whose button opens the mini-app in
// the mode that lets it send the order back to the bot.
func checkoutKeyboard(webAppURL string) *telegram.ReplyKeyboardMarkup {
	return &telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{{
			{Text: "🛒 Order", WebApp: &telegram.WebAppInfo{URL: webAppURL}},
		}},
		ResizeKeyboard: true,
		IsPersistent:   true,
	}
}

func menuView(items []models.MenuItem, currency, webAppURL string) (string, *telegram.InlineKeyboardMarkup) {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(items)+1)
	for _, item := range items {
		label := fmt.Sprintf("%s - %s", item.Name, services.FormatAmount(item.Price, currency))
		rows = append(rows, []telegram.InlineKeyboardButton{callbackButton(label, fmt.Sprintf("%s%d", callbackItemPrefix, item.ID))})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{webAppButton("🛒 Open cart in the mini app", webAppURL)})

	text := "☕ *Our menu:*\n\nPick an item or open the cart to place an order:"
	if len(items) == 0 {
		text = "☕ The menu is empty right now. Please come back later."
	}
	return text, &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func itemView(item *models.MenuItem, currency string) (string, *telegram.InlineKeyboardMarkup) {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n\n", escapeMarkdown(item.Name))
	if item.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(item.Description))
	}
	fmt.Fprintf(&b, "Price: *%s*\n", services.FormatAmount(item.Price, currency))
	if !item.Available {
		b.WriteString("\n_Currently unavailable_\n")
	}
	return b.String(), &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{{
		callbackButton("➕ Add to cart", fmt.Sprintf("%s%d", callbackAddPrefix, item.ID)),
		callbackButton("⬅️ Back", callbackMenu),
	}}}
}

func itemMissingView() (string, *telegram.InlineKeyboardMarkup) {
	return "This item is no longer on the menu.", &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{callbackButton("⬅️ Back", callbackMenu)},
	}}
}

func ordersView(orders []models.Order, currency string, loc *time.Location, webAppURL string) (string, *telegram.InlineKeyboardMarkup) {
	var b strings.Builder
	if len(orders) == 0 {
		b.WriteString("📭 You have no orders yet")
	} else {
		b.WriteString("📦 *Your orders:*\n\n")
		if len(orders) > ordersShown {
			orders = orders[:ordersShown]
		}
		for _, order := range orders {
			emoji, ok := statusEmoji[order.Status]
			if !ok {
				emoji = "📝"
			}
			fmt.Fprintf(&b, "%s *Order #%d*\n", emoji, order.ID)
			fmt.Fprintf(&b, "Date: %s\n", order.CreatedAt.In(loc).Format("02.01.2006 15:04"))
			fmt.Fprintf(&b, "Total: %s\n", services.FormatAmount(order.TotalAmount, currency))
			fmt.Fprintf(&b, "Status: %s\n", order.Status)
			if order.ScheduledTime != nil {
				fmt.Fprintf(&b, "Scheduled for: %s\n", order.ScheduledTime.In(loc).Format("15:04"))
			}
			b.WriteString("\n")
		}
	}
	return b.String(), &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{webAppButton("🛒 Place a new order", webAppURL)},
	}}
}

func aboutView(shop config.Shop) (string, *telegram.InlineKeyboardMarkup) {
	var b strings.Builder
	fmt.Fprintf(&b, "☕ *%s*\n\n", escapeMarkdown(shop.Name))
	fmt.Fprintf(&b, "📍 %s\n", escapeMarkdown(shop.Address))
	fmt.Fprintf(&b, "📞 %s\n", escapeMarkdown(shop.Phone))
	fmt.Fprintf(&b, "🕗 %s\n", escapeMarkdown(shop.WorkingHours))
	fmt.Fprintf(&b, "🚚 Delivery: %s\n", services.FormatAmount(shop.DeliveryFee, shop.CurrencySymbol))
	fmt.Fprintf(&b, "🧾 Minimum order: %s\n", services.FormatAmount(shop.MinOrder, shop.CurrencySymbol))
	return b.String(), &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{callbackButton("📋 Menu", callbackMenu)},
	}}
}

func orderConfirmationText(orderID uint, total float64, scheduled *time.Time, currency string, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ *Order #%d placed!*\n\n", orderID)
	fmt.Fprintf(&b, "Total: *%s*\n", services.FormatAmount(total, currency))
	if scheduled != nil {
		fmt.Fprintf(&b, "Pickup time: *%s*\n", scheduled.In(loc).Format("15:04"))
	}
	b.WriteString("\nTrack the order status under \"My orders\".")
	return b.String()
}

const helpText = "Available commands:\n" +
	"/menu - show the menu\n" +
	"/my_orders - your recent orders\n" +
	"/about - about the coffee shop\n" +
	"/help - this message"

const errorText = "⚠️ Something went wrong. Please try again later."

package services

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/talabli/talabli-backend/internal/models"
	"github.com/talabli/talabli-backend/internal/storage"
	"github.com/talabli/talabli-backend/internal/utils"
)

// FlowService drives the multi-turn ordering dialogue. It reads and writes
// the conversation and cart stores synchronously; session mirroring happens
// asynchronously in the jobs package, off the back of conversation-updated
// events.
type FlowService struct {
	store         storage.Store
	conversations *ConversationStore
	carts         *CartStore
	flags         *BotFlags
	merchantID    string
	botPhone      string
}

// NewFlowService creates a new flow service.
func NewFlowService(store storage.Store, conversations *ConversationStore, carts *CartStore, flags *BotFlags, merchantID, botPhone string) *FlowService {
	return &FlowService{
		store:         store,
		conversations: conversations,
		carts:         carts,
		flags:         flags,
		merchantID:    merchantID,
		botPhone:      botPhone,
	}
}

// ProcessMessage handles one inbound WhatsApp message: records it, runs the
// dialogue step it triggers, records the reply as a bot message and returns
// the reply text for the transport to send. An empty reply means stay
// silent (bot disabled or conversation handed to a human agent).
func (f *FlowService) ProcessMessage(from, profileName, body string) (string, error) {
	phone := utils.NormalizePhone(from)

	conv := f.conversations.GetOrCreateConversation(phone, profileName)
	f.conversations.AppendMessage(phone, MessagePayload{
		From:         phone,
		To:           f.botPhone,
		Type:         models.MessageTypeText,
		Content:      body,
		FromCustomer: true,
	})

	if !f.flags.Enabled() || !conv.BotActive {
		return "", nil
	}

	reply := f.route(phone, conv, strings.TrimSpace(body))
	if reply == "" {
		return "", nil
	}

	f.conversations.AppendMessage(phone, MessagePayload{
		From:         f.botPhone,
		To:           phone,
		Type:         models.MessageTypeText,
		Content:      reply,
		FromCustomer: false,
	})
	return reply, nil
}

func (f *FlowService) route(phone string, conv models.Conversation, body string) string {
	msg := strings.ToUpper(body)
	state := f.carts.GetOrderState(phone)

	// Single-turn inputs gated by awaiting flags take priority over
	// commands, otherwise "2" could mean a quantity, a menu line or an
	// item to remove depending on where the dialogue is.
	switch {
	case state.Pending != nil:
		return f.handlePendingQuantity(phone, state, body)

	case boolSet(state.AwaitingItemRemoval):
		return f.handleItemRemoval(phone, body)

	case boolSet(state.AwaitingLocation):
		return f.handleLocation(phone, body)

	case boolSet(state.AwaitingOrderRef):
		return f.handleOrderLookup(phone, body)

	case boolSet(state.AwaitingRatingComment):
		return f.handleRatingComment(phone, state, body)
	}

	if !f.flags.Welcomed(phone) {
		f.flags.MarkWelcomed(phone)
		if msg == "HI" || msg == "HELLO" || msg == "START" || msg == "HELP" {
			return f.welcomeMessage(conv.Name)
		}
		// Fall through so the first message still works as a command,
		// prefixed with the welcome.
		return f.welcomeMessage(conv.Name) + "\n\n" + f.routeCommand(phone, msg, body)
	}

	return f.routeCommand(phone, msg, body)
}

func (f *FlowService) routeCommand(phone, msg, body string) string {
	switch {
	case msg == "HI" || msg == "HELLO" || msg == "START" || msg == "HELP":
		return f.helpMessage()

	case msg == "MENU":
		return f.handleMenu(phone)

	case strings.HasPrefix(msg, "ADD "):
		return f.handleAdd(phone, strings.TrimSpace(msg[4:]))

	case msg == "CART":
		return FormatCartMessage(f.carts.GetCart(phone))

	case msg == "REMOVE":
		return f.handleRemovePrompt(phone)

	case msg == "CHECKOUT":
		return f.handleCheckout(phone)

	case msg == "DELIVERY" || msg == "PICKUP":
		return f.handleOrderType(phone, msg)

	case msg == "CASH" || msg == "CARD":
		return f.handlePayment(phone, msg)

	case msg == "CONFIRM":
		return f.handleConfirm(phone)

	case msg == "TRACK":
		f.carts.UpdateOrderState(phone, models.OrderState{AwaitingOrderRef: models.BoolPtr(true)})
		return "🔎 Please send your order reference (e.g. MC3K1A-7GQ2)."

	case strings.HasPrefix(msg, "RATE"):
		return f.handleRate(phone, strings.TrimSpace(msg[4:]))

	case msg == "CANCEL":
		f.carts.ResetOrder(phone, true)
		return "🗑️ Your order was cancelled and the cart cleared. Send MENU to start again."

	default:
		return "🤔 I didn't catch that. " + f.helpMessage()
	}
}

func (f *FlowService) welcomeMessage(name string) string {
	greeting := "👋 Welcome to Talabli!"
	if name != "" {
		greeting = fmt.Sprintf("👋 Welcome to Talabli, %s!", name)
	}
	return greeting + " I can take your order right here on WhatsApp.\n\n" + f.helpMessage()
}

func (f *FlowService) helpMessage() string {
	return "Here's what I understand:\n" +
		"🍔 MENU — browse the menu\n" +
		"➕ ADD <number> — add an item\n" +
		"🛒 CART — view your cart\n" +
		"➖ REMOVE — remove an item\n" +
		"✅ CHECKOUT — place your order\n" +
		"🔎 TRACK — track an order\n" +
		"⭐ RATE <1-5> — rate your last order\n" +
		"🗑️ CANCEL — start over"
}

func (f *FlowService) handleMenu(phone string) string {
	items, err := f.store.GetMenuItems(f.merchantID)
	if err != nil || len(items) == 0 {
		return "😕 The menu is not available right now. Please try again in a bit."
	}

	var b strings.Builder
	b.WriteString("🍽️ *Menu*\n\n")
	for i, item := range items {
		price := item.Price
		if item.DiscountedPrice != nil {
			price = *item.DiscountedPrice
		}
		b.WriteString(fmt.Sprintf("%d. %s — %.2f %s\n", i+1, item.Name, price, item.Currency))
	}
	b.WriteString("\nSend ADD <number> to add an item.")
	return b.String()
}

func (f *FlowService) handleAdd(phone, arg string) string {
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 1 {
		return "Please send ADD followed by the item number from the MENU."
	}

	items, err := f.store.GetMenuItems(f.merchantID)
	if err != nil || idx > len(items) {
		return "😕 I couldn't find that item. Send MENU to see the list."
	}
	menuItem := items[idx-1]

	item := models.CartItem{
		ProductID:       menuItem.ItemID,
		Name:            menuItem.Name,
		Price:           menuItem.Price,
		DiscountedPrice: menuItem.DiscountedPrice,
		Currency:        menuItem.Currency,
		ImageURL:        menuItem.ImageURL,
		Addons:          parseMenuAddons(menuItem.AddonsJSON),
	}
	f.carts.SetPendingItem(phone, &item, 1)
	f.carts.UpdateOrderState(phone, models.OrderState{MerchantID: models.StringPtr(f.merchantID)})

	return fmt.Sprintf("🧾 %s — how many would you like? Send a number.", menuItem.Name)
}

// parseMenuAddons decodes the addons offered with a menu item. A garbled
// catalog entry degrades to "no addons" rather than blocking the add.
func parseMenuAddons(raw string) []models.Addon {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var addons []models.Addon
	if err := json.Unmarshal([]byte(raw), &addons); err != nil {
		log.Printf("⚠️  Ignoring malformed addons payload: %v", err)
		return nil
	}
	return NormalizeAddons(addons)
}

func (f *FlowService) handlePendingQuantity(phone string, state models.OrderState, body string) string {
	qty, err := strconv.Atoi(strings.TrimSpace(body))
	if err != nil {
		qty = 1
	}
	item := state.Pending.Item
	f.carts.AddItemToCart(phone, item, qty)
	f.carts.SetPendingItem(phone, nil, 0)

	cart := f.carts.GetCart(phone)
	return fmt.Sprintf("✅ Added!\n\n%s\n\nSend CHECKOUT when you're ready.", FormatCartMessage(cart))
}

func (f *FlowService) handleRemovePrompt(phone string) string {
	cart := f.carts.GetCart(phone)
	if len(cart) == 0 {
		return "🛒 Your cart is empty."
	}

	f.carts.UpdateOrderState(phone, models.OrderState{AwaitingItemRemoval: models.BoolPtr(true)})

	var b strings.Builder
	b.WriteString("Which item should I remove? Send the number:\n")
	for i, item := range cart {
		b.WriteString(fmt.Sprintf("%d. %s x%d\n", i+1, item.Name, item.Quantity))
	}
	return b.String()
}

func (f *FlowService) handleItemRemoval(phone, body string) string {
	f.carts.UpdateOrderState(phone, models.OrderState{AwaitingItemRemoval: models.BoolPtr(false)})

	cart := f.carts.GetCart(phone)
	idx, err := strconv.Atoi(strings.TrimSpace(body))
	if err != nil || idx < 1 || idx > len(cart) {
		return "😕 That didn't match an item. Send REMOVE to try again."
	}

	removed := cart[idx-1]
	f.carts.RemoveItemFromCart(phone, removed.ProductID)
	return fmt.Sprintf("🗑️ Removed %s.\n\n%s", removed.Name, FormatCartMessage(f.carts.GetCart(phone)))
}

func (f *FlowService) handleCheckout(phone string) string {
	if f.carts.IsCartEmpty(phone) {
		return "🛒 Your cart is empty. Send MENU to browse."
	}
	return "🚚 Is this DELIVERY or PICKUP?"
}

func (f *FlowService) handleOrderType(phone, msg string) string {
	if f.carts.IsCartEmpty(phone) {
		return "🛒 Your cart is empty. Send MENU to browse."
	}

	if msg == "DELIVERY" {
		f.carts.UpdateOrderState(phone, models.OrderState{
			OrderType:        models.StringPtr(models.OrderTypeDelivery),
			AwaitingLocation: models.BoolPtr(true),
		})
		return "📍 Please send your delivery address."
	}

	f.carts.UpdateOrderState(phone, models.OrderState{
		OrderType: models.StringPtr(models.OrderTypePickup),
	})
	return "💳 How would you like to pay? CASH or CARD?"
}

func (f *FlowService) handleLocation(phone, body string) string {
	f.carts.UpdateOrderState(phone, models.OrderState{
		DeliveryAddress:  models.StringPtr(body),
		AwaitingLocation: models.BoolPtr(false),
	})
	return "💳 Got it. How would you like to pay? CASH or CARD?"
}

func (f *FlowService) handlePayment(phone, msg string) string {
	if f.carts.IsCartEmpty(phone) {
		return "🛒 Your cart is empty. Send MENU to browse."
	}

	method := models.PaymentCash
	if msg == "CARD" {
		method = models.PaymentCard
	}
	f.carts.UpdateOrderState(phone, models.OrderState{PaymentMethod: models.StringPtr(method)})

	cart := f.carts.GetCart(phone)
	return fmt.Sprintf("%s\n\nSend CONFIRM to place your order.", FormatCartMessage(cart))
}

func (f *FlowService) handleConfirm(phone string) string {
	cart := f.carts.GetCart(phone)
	state := f.carts.GetOrderState(phone)

	if len(cart) == 0 {
		return "🛒 Your cart is empty. Send MENU to browse."
	}
	if state.OrderType == nil {
		return "🚚 Is this DELIVERY or PICKUP?"
	}
	if state.PaymentMethod == nil {
		return "💳 How would you like to pay? CASH or CARD?"
	}

	total, currency := CalculateCartTotal(cart)
	if currency == "" {
		currency = "SAR"
	}
	reference := utils.GenerateOrderReference()

	itemsJSON, err := json.Marshal(cart)
	if err != nil {
		itemsJSON = []byte("[]")
	}

	conv := f.conversations.GetConversation(phone)
	customerName := ""
	if conv != nil {
		customerName = conv.Name
	}

	now := time.Now()
	order := &models.Order{
		Reference:     reference,
		CustomerPhone: phone,
		CustomerName:  customerName,
		MerchantID:    stringOr(state.MerchantID, f.merchantID),
		BranchID:      stringOr(state.BranchID, ""),
		OrderType:     *state.OrderType,
		PaymentMethod: *state.PaymentMethod,
		Address:       stringOr(state.DeliveryAddress, ""),
		ItemsJSON:     string(itemsJSON),
		Total:         total,
		Currency:      currency,
		Status:        models.OrderStatusReceived,
		ConfirmedAt:   &now,
	}
	if _, err := f.store.CreateOrder(order); err != nil {
		log.Printf("❌ Failed to archive order %s: %v", reference, err)
		return "😞 Something went wrong placing your order. Please send CONFIRM again."
	}

	f.carts.ResetOrder(phone, true)
	f.carts.UpdateOrderState(phone, models.OrderState{
		OrderReference: models.StringPtr(reference),
		StatusStage:    models.StringPtr(models.OrderStatusReceived),
	})

	return fmt.Sprintf("🎉 Order placed!\n\n🧾 Reference: *%s*\n💰 Total: %.2f %s\n\nSend TRACK anytime to check on it.", reference, total, currency)
}

func (f *FlowService) handleOrderLookup(phone, body string) string {
	f.carts.UpdateOrderState(phone, models.OrderState{AwaitingOrderRef: models.BoolPtr(false)})

	reference := strings.ToUpper(strings.TrimSpace(body))
	order, err := f.store.GetOrderByReference(reference)
	if err != nil {
		return "😕 I couldn't find an order with that reference."
	}

	return fmt.Sprintf("📦 Order *%s* is currently: %s", order.Reference, strings.ReplaceAll(order.Status, "_", " "))
}

func (f *FlowService) handleRate(phone, arg string) string {
	rating, err := strconv.Atoi(arg)
	if err != nil || rating < 1 || rating > 5 {
		return "⭐ Send RATE followed by a number from 1 to 5."
	}

	state := f.carts.GetOrderState(phone)
	if state.OrderReference == nil {
		orders, err := f.store.GetOrdersByPhone(phone)
		if err != nil || len(orders) == 0 {
			return "😕 I couldn't find a recent order to rate."
		}
		state = f.carts.UpdateOrderState(phone, models.OrderState{
			OrderReference: models.StringPtr(orders[0].Reference),
		})
	}

	f.carts.UpdateOrderState(phone, models.OrderState{
		PendingRating:         models.IntPtr(rating),
		AwaitingRatingComment: models.BoolPtr(true),
	})
	return "💬 Thanks! Anything you'd like to tell us about it? (Or send - to skip.)"
}

func (f *FlowService) handleRatingComment(phone string, state models.OrderState, body string) string {
	f.carts.UpdateOrderState(phone, models.OrderState{
		AwaitingRatingComment: models.BoolPtr(false),
	})

	comment := strings.TrimSpace(body)
	if comment == "-" {
		comment = ""
	}

	if state.OrderReference == nil || state.PendingRating == nil {
		return "🙏 Thanks for the feedback!"
	}
	if err := f.store.SaveOrderRating(*state.OrderReference, *state.PendingRating, comment); err != nil {
		log.Printf("⚠️  Failed to save rating for %s: %v", *state.OrderReference, err)
	}
	return "🙏 Thanks for the feedback!"
}

func boolSet(b *bool) bool { return b != nil && *b }

func stringOr(s *string, fallback string) string {
	if s != nil {
		return *s
	}
	return fallback
}

package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talabli/talabli-backend/internal/models"
	"github.com/talabli/talabli-backend/internal/storage"
)

const testMerchant = "talabli-test"

func newTestFlow(t *testing.T) (*FlowService, *ConversationStore, *CartStore, *storage.MemoryStore, *BotFlags) {
	t.Helper()

	store := storage.NewMemoryStore()
	_, err := store.CreateMenuItem(&models.MenuItem{
		ItemID: "itm-001", MerchantID: testMerchant, Category: "Burgers",
		Name: "Classic Burger", Price: 25, Currency: "SAR", Available: true,
		AddonsJSON: `[{"id":"add-cheese","name":"Extra Cheese","price":3,"quantity":1}]`,
	})
	require.NoError(t, err)
	_, err = store.CreateMenuItem(&models.MenuItem{
		ItemID: "itm-002", MerchantID: testMerchant, Category: "Sides",
		Name: "Fries", Price: 9, Currency: "SAR", Available: true,
	})
	require.NoError(t, err)

	conversations := NewConversationStore()
	carts := NewCartStore()
	flags := NewBotFlags()
	flags.MarkWelcomed(testPhone) // most tests skip the welcome preamble

	flow := NewFlowService(store, conversations, carts, flags, testMerchant, "+966500000000")
	return flow, conversations, carts, store, flags
}

func send(t *testing.T, flow *FlowService, body string) string {
	t.Helper()
	reply, err := flow.ProcessMessage(testPhone, "Sara", body)
	require.NoError(t, err)
	return reply
}

func TestFullOrderDialogue(t *testing.T) {
	flow, conversations, carts, store, _ := newTestFlow(t)

	assert.Contains(t, send(t, flow, "MENU"), "Classic Burger")

	assert.Contains(t, send(t, flow, "ADD 1"), "how many")
	assert.Contains(t, send(t, flow, "2"), "Added")

	cart := carts.GetCart(testPhone)
	require.Len(t, cart, 1)
	assert.Equal(t, 2, cart[0].Quantity)
	require.Len(t, cart[0].Addons, 1) // menu addons carried onto the line

	assert.Contains(t, send(t, flow, "CHECKOUT"), "DELIVERY or PICKUP")
	assert.Contains(t, send(t, flow, "DELIVERY"), "delivery address")
	assert.Contains(t, send(t, flow, "King Fahd Rd, Riyadh"), "CASH or CARD")
	assert.Contains(t, send(t, flow, "CASH"), "CONFIRM")

	reply := send(t, flow, "CONFIRM")
	assert.Contains(t, reply, "Order placed")

	// Cart reset, reference parked in the fresh flow state.
	assert.True(t, carts.IsCartEmpty(testPhone))
	state := carts.GetOrderState(testPhone)
	require.NotNil(t, state.OrderReference)

	order, err := store.GetOrderByReference(*state.OrderReference)
	require.NoError(t, err)
	assert.Equal(t, testPhone, order.CustomerPhone)
	assert.Equal(t, models.OrderTypeDelivery, order.OrderType)
	assert.Equal(t, models.PaymentCash, order.PaymentMethod)
	assert.Equal(t, "King Fahd Rd, Riyadh", order.Address)
	// 25*2 + 3 addon
	assert.Equal(t, 53.0, order.Total)

	// Both sides of the dialogue were recorded.
	msgs := conversations.GetMessages(testPhone)
	assert.GreaterOrEqual(t, len(msgs), 14)
	assert.True(t, msgs[0].FromCustomer)
	assert.False(t, msgs[len(msgs)-1].FromCustomer)
}

func TestTrackOrder(t *testing.T) {
	flow, _, _, store, _ := newTestFlow(t)

	_, err := store.CreateOrder(&models.Order{
		Reference:     "ABC123-XY01",
		CustomerPhone: testPhone,
		Status:        models.OrderStatusPreparing,
	})
	require.NoError(t, err)

	assert.Contains(t, send(t, flow, "TRACK"), "order reference")
	reply := send(t, flow, "abc123-xy01")
	assert.Contains(t, reply, "ABC123-XY01")
	assert.Contains(t, reply, "preparing")

	// Unknown reference after re-arming the flag.
	send(t, flow, "TRACK")
	assert.Contains(t, send(t, flow, "NOPE-0000"), "couldn't find")
}

func TestRemoveItemDialogue(t *testing.T) {
	flow, _, carts, _, _ := newTestFlow(t)

	send(t, flow, "ADD 1")
	send(t, flow, "1")
	send(t, flow, "ADD 2")
	send(t, flow, "1")
	require.Len(t, carts.GetCart(testPhone), 2)

	assert.Contains(t, send(t, flow, "REMOVE"), "Which item")
	reply := send(t, flow, "1")
	assert.Contains(t, reply, "Removed Classic Burger")
	require.Len(t, carts.GetCart(testPhone), 1)
	assert.Equal(t, "itm-002", carts.GetCart(testPhone)[0].ProductID)
}

func TestRatingDialogue(t *testing.T) {
	flow, _, _, store, _ := newTestFlow(t)

	_, err := store.CreateOrder(&models.Order{
		Reference:     "RATE00-0001",
		CustomerPhone: testPhone,
		Status:        models.OrderStatusDelivered,
	})
	require.NoError(t, err)

	assert.Contains(t, send(t, flow, "RATE 5"), "tell us")
	assert.Contains(t, send(t, flow, "loved it"), "Thanks")

	order, err := store.GetOrderByReference("RATE00-0001")
	require.NoError(t, err)
	require.NotNil(t, order.Rating)
	assert.Equal(t, 5, *order.Rating)
	assert.Equal(t, "loved it", order.RatingComment)
}

func TestBotDisabledStaysSilentButRecords(t *testing.T) {
	flow, conversations, _, _, flags := newTestFlow(t)

	flags.SetEnabled(false)
	reply := send(t, flow, "MENU")
	assert.Empty(t, reply)

	// The inbound message is still recorded for the dashboard.
	msgs := conversations.GetMessages(testPhone)
	require.Len(t, msgs, 1)
	assert.Equal(t, "MENU", msgs[0].Content)
	assert.Equal(t, 1, conversations.GetConversation(testPhone).UnreadCount)
}

func TestBotInactiveConversationStaysSilent(t *testing.T) {
	flow, conversations, _, _, _ := newTestFlow(t)

	conversations.GetOrCreateConversation(testPhone, "Sara")
	conversations.SetConversationData(testPhone, models.ConversationUpdate{BotActive: models.BoolPtr(false)})

	assert.Empty(t, send(t, flow, "MENU"))
}

func TestWelcomeOnFirstContact(t *testing.T) {
	flow, _, _, _, flags := newTestFlow(t)

	first := "+966598765432"
	require.False(t, flags.Welcomed(first))

	reply, err := flow.ProcessMessage(first, "Omar", "hi")
	require.NoError(t, err)
	assert.Contains(t, reply, "Welcome to Talabli, Omar")
	assert.True(t, flags.Welcomed(first))

	// Second contact: no welcome, straight to routing.
	reply, err = flow.ProcessMessage(first, "Omar", "hi")
	require.NoError(t, err)
	assert.False(t, strings.Contains(reply, "Welcome to Talabli, Omar"))
}

func TestCancelResetsOrder(t *testing.T) {
	flow, _, carts, _, _ := newTestFlow(t)

	send(t, flow, "ADD 1")
	send(t, flow, "3")
	require.False(t, carts.IsCartEmpty(testPhone))

	assert.Contains(t, send(t, flow, "CANCEL"), "cancelled")
	assert.True(t, carts.IsCartEmpty(testPhone))
	// Merchant selection survives a cancel.
	state := carts.GetOrderState(testPhone)
	require.NotNil(t, state.MerchantID)
	assert.Equal(t, testMerchant, *state.MerchantID)
}

func TestCheckoutWithEmptyCart(t *testing.T) {
	flow, _, _, _, _ := newTestFlow(t)
	assert.Contains(t, send(t, flow, "CHECKOUT"), "empty")
	assert.Contains(t, send(t, flow, "CONFIRM"), "empty")
}

func TestPendingQuantityDefaultsToOne(t *testing.T) {
	flow, _, carts, _, _ := newTestFlow(t)

	send(t, flow, "ADD 2")
	send(t, flow, "a couple") // unparseable quantity degrades to 1

	cart := carts.GetCart(testPhone)
	require.Len(t, cart, 1)
	assert.Equal(t, 1, cart[0].Quantity)
}

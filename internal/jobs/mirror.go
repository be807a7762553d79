package jobs

import (
	"context"
	"log"

	"github.com/talabli/talabli-backend/internal/models"
	"github.com/talabli/talabli-backend/internal/services"
)

// SessionMirror asynchronously copies flow-relevant state into the Redis
// session store whenever a conversation mutates. Webhook handling never
// waits on Redis: mutations enqueue the phone number here and a single
// worker drains the queue. Mirroring is best-effort; a full queue or an
// unavailable Redis just means the next mutation re-mirrors.
type SessionMirror struct {
	conversations *services.ConversationStore
	carts         *services.CartStore
	sessions      *services.SessionStore

	queue       chan string
	done        chan struct{}
	unsubscribe func()
	isRunning   bool
}

// NewSessionMirror creates a new session mirror worker.
func NewSessionMirror(conversations *services.ConversationStore, carts *services.CartStore, sessions *services.SessionStore) *SessionMirror {
	return &SessionMirror{
		conversations: conversations,
		carts:         carts,
		sessions:      sessions,
		queue:         make(chan string, 256),
		done:          make(chan struct{}),
	}
}

// Start subscribes to conversation updates and begins mirroring.
func (m *SessionMirror) Start() {
	if m.isRunning {
		log.Println("Session mirror already running")
		return
	}
	m.isRunning = true

	m.unsubscribe = m.conversations.OnConversationUpdated(func(conv models.Conversation) {
		// Fired synchronously inside store mutations; must not block.
		select {
		case m.queue <- conv.Phone:
		default:
			log.Printf("⚠️  Session mirror queue full, dropping update for %s", conv.Phone)
		}
	})

	go m.run()
	log.Println("✅ Session mirror started")
}

// Stop unsubscribes and halts the worker.
func (m *SessionMirror) Stop() {
	if !m.isRunning {
		return
	}
	m.isRunning = false
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	close(m.done)
	log.Println("⏹️  Session mirror stopped")
}

func (m *SessionMirror) run() {
	for {
		select {
		case phone := <-m.queue:
			m.Mirror(context.Background(), phone)
		case <-m.done:
			return
		}
	}
}

// Mirror pushes the customer's current cart and flow state into the
// session store with a refreshed TTL.
func (m *SessionMirror) Mirror(ctx context.Context, phone string) {
	cart := m.carts.GetCart(phone)
	state := m.carts.GetOrderState(phone)
	total, currency := services.CalculateCartTotal(cart)

	items := make([]models.SessionItem, 0, len(cart))
	for _, line := range cart {
		unit := line.Price
		if line.DiscountedPrice != nil {
			unit = *line.DiscountedPrice
		}
		items = append(items, models.SessionItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: unit,
			Currency:  line.Currency,
			Notes:     line.Notes,
			Addons:    line.Addons,
		})
	}

	partial := models.ConversationSession{
		MerchantID:    state.MerchantID,
		BranchID:      state.BranchID,
		OrderType:     state.OrderType,
		PaymentMethod: state.PaymentMethod,
		Items:         items,
		Total:         &total,
	}
	if currency != "" {
		partial.Currency = &currency
	}
	if state.OrderReference != nil {
		partial.LastOrderNumber = state.OrderReference
	}

	if conv := m.conversations.GetConversation(phone); conv != nil {
		partial.CustomerPhone = &conv.Phone
		if conv.Name != "" {
			partial.CustomerName = &conv.Name
		}
		if conv.LastMessageAt != nil {
			partial.LastUserMessageAt = conv.LastMessageAt
		}
	}

	if status := m.sessions.UpdateSession(ctx, phone, partial, services.SessionTTL); status == services.SessionUnavailable {
		log.Printf("⚠️  Session mirror skipped for %s (store unavailable)", phone)
	}
}

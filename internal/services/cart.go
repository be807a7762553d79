package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/talabli/talabli-backend/internal/models"
	"github.com/talabli/talabli-backend/internal/utils"
)

// CartStore holds every customer's cart and order-flow state in memory,
// keyed by normalized phone number. It is authoritative while the process
// is alive; nothing here is persisted.
type CartStore struct {
	mu     sync.RWMutex
	carts  map[string][]models.CartItem
	states map[string]*models.OrderState
}

// NewCartStore creates an empty cart store.
func NewCartStore() *CartStore {
	return &CartStore{
		carts:  make(map[string][]models.CartItem),
		states: make(map[string]*models.OrderState),
	}
}

// GetCart returns a copy of the customer's cart, creating an empty one on
// first access.
func (c *CartStore) GetCart(phone string) []models.CartItem {
	key := utils.NormalizePhone(phone)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.carts[key]; !exists {
		c.carts[key] = []models.CartItem{}
	}
	out := make([]models.CartItem, len(c.carts[key]))
	copy(out, c.carts[key])
	return out
}

// ClearCart replaces the customer's cart with an empty list.
func (c *CartStore) ClearCart(phone string) {
	key := utils.NormalizePhone(phone)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.carts[key] = []models.CartItem{}
}

// GetOrderState returns a copy of the customer's flow-state bag, creating
// an empty one on first access. Mutations go through UpdateOrderState.
func (c *CartStore) GetOrderState(phone string) models.OrderState {
	key := utils.NormalizePhone(phone)

	c.mu.Lock()
	defer c.mu.Unlock()

	state, exists := c.states[key]
	if !exists {
		state = &models.OrderState{}
		c.states[key] = state
	}
	return *state
}

// UpdateOrderState shallow-merges the given partial fields into the
// customer's flow state and returns the merged result.
func (c *CartStore) UpdateOrderState(phone string, partial models.OrderState) models.OrderState {
	key := utils.NormalizePhone(phone)

	c.mu.Lock()
	defer c.mu.Unlock()

	state, exists := c.states[key]
	if !exists {
		state = &models.OrderState{}
		c.states[key] = state
	}
	state.Merge(partial)
	return *state
}

// ResetOrder clears the cart and replaces the flow state with an empty bag.
// With preserveRestaurant, the previously selected merchant/branch survive
// so the customer can order again without re-picking.
func (c *CartStore) ResetOrder(phone string, preserveRestaurant bool) {
	key := utils.NormalizePhone(phone)

	c.mu.Lock()
	defer c.mu.Unlock()

	fresh := &models.OrderState{}
	if old, exists := c.states[key]; exists && preserveRestaurant {
		fresh.MerchantID = old.MerchantID
		fresh.BranchID = old.BranchID
	}
	c.states[key] = fresh
	c.carts[key] = []models.CartItem{}
}

// SetPendingItem sets or clears the single pending-item slot used while
// the bot waits for a quantity confirmation. A nil item clears the slot.
func (c *CartStore) SetPendingItem(phone string, item *models.CartItem, quantity int) {
	key := utils.NormalizePhone(phone)

	c.mu.Lock()
	defer c.mu.Unlock()

	state, exists := c.states[key]
	if !exists {
		state = &models.OrderState{}
		c.states[key] = state
	}

	if item == nil {
		state.Pending = nil
		return
	}
	if quantity < 1 {
		quantity = 1
	}
	state.Pending = &models.PendingItem{Item: *item, Quantity: quantity}
}

// AddItemToCart adds an item to the customer's cart. If an existing line
// has the same signature (product + addons + notes), its quantity grows by
// the new amount and price, discount, addons and notes are overwritten from
// the newest add; otherwise a new line is appended. Quantity is floored
// at 1 either way.
func (c *CartStore) AddItemToCart(phone string, item models.CartItem, quantity int) {
	key := utils.NormalizePhone(phone)
	if quantity < 1 {
		quantity = 1
	}
	item.Addons = NormalizeAddons(item.Addons)
	sig := ItemSignature(item)

	c.mu.Lock()
	defer c.mu.Unlock()

	cart := c.carts[key]
	for i := range cart {
		if ItemSignature(cart[i]) == sig {
			cart[i].Quantity += quantity
			cart[i].Price = item.Price
			cart[i].DiscountedPrice = item.DiscountedPrice
			cart[i].Addons = item.Addons
			cart[i].Notes = item.Notes
			c.carts[key] = cart
			return
		}
	}

	item.Quantity = quantity
	c.carts[key] = append(cart, item)
}

// SetItemQuantity overwrites the quantity of the first cart line with the
// given product id, floored at 1. Returns false if no such line exists.
func (c *CartStore) SetItemQuantity(phone, productID string, quantity int) bool {
	key := utils.NormalizePhone(phone)
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cart := c.carts[key]
	for i := range cart {
		if cart[i].ProductID == productID {
			cart[i].Quantity = quantity
			c.carts[key] = cart
			return true
		}
	}
	return false
}

// RemoveItemFromCart removes the first cart line with the given product id.
// No-op if absent.
func (c *CartStore) RemoveItemFromCart(phone, productID string) {
	key := utils.NormalizePhone(phone)

	c.mu.Lock()
	defer c.mu.Unlock()

	cart := c.carts[key]
	for i := range cart {
		if cart[i].ProductID == productID {
			c.carts[key] = append(cart[:i], cart[i+1:]...)
			return
		}
	}
}

// IsCartEmpty reports whether the customer's cart has no lines.
func (c *CartStore) IsCartEmpty(phone string) bool {
	key := utils.NormalizePhone(phone)

	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.carts[key]) == 0
}

// ActiveCartsCount returns the number of customers with a non-empty cart.
func (c *CartStore) ActiveCartsCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, cart := range c.carts {
		if len(cart) > 0 {
			count++
		}
	}
	return count
}

// NormalizeAddons drops malformed addon records (missing id) and floors
// quantities at 1.
func NormalizeAddons(addons []models.Addon) []models.Addon {
	if len(addons) == 0 {
		return nil
	}
	out := make([]models.Addon, 0, len(addons))
	for _, a := range addons {
		if strings.TrimSpace(a.ID) == "" {
			continue
		}
		if a.Quantity < 1 {
			a.Quantity = 1
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ItemSignature derives the merge key for a cart line: product id, the
// canonicalized addon selection and normalized free-text notes. Two adds
// with the same signature are the same logical line.
func ItemSignature(item models.CartItem) string {
	addons := NormalizeAddons(item.Addons)
	parts := make([]string, 0, len(addons))
	for _, a := range addons {
		parts = append(parts, fmt.Sprintf("%s x%d", a.ID, a.Quantity))
	}
	sort.Strings(parts)

	notes := strings.ToLower(strings.Join(strings.Fields(item.Notes), " "))

	return item.ProductID + "|" + strings.Join(parts, ",") + "|" + notes
}

// ParsePrice sanitizes a free-form price string: everything except digits,
// the decimal point and a leading minus is stripped before parsing.
// Unparseable input yields 0.
func ParsePrice(raw string) float64 {
	var b strings.Builder
	for i, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || (r == '-' && i == 0) {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return sanitizeNumber(v)
}

func sanitizeNumber(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CalculateCartTotal computes the grand total of a cart, rounded to two
// decimals: per line, the post-discount unit price when present and finite
// (base price otherwise) times quantity, plus each addon's price times its
// quantity. The currency is the first non-empty one found scanning addons
// before items.
func CalculateCartTotal(cart []models.CartItem) (float64, string) {
	total := 0.0
	addonCurrency := ""
	itemCurrency := ""

	for _, item := range cart {
		unit := sanitizeNumber(item.Price)
		if item.DiscountedPrice != nil {
			if d := *item.DiscountedPrice; !math.IsNaN(d) && !math.IsInf(d, 0) {
				unit = d
			}
		}

		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		line := unit * float64(qty)

		for _, a := range item.Addons {
			aqty := a.Quantity
			if aqty < 1 {
				aqty = 1
			}
			line += sanitizeNumber(a.Price) * float64(aqty)
			if addonCurrency == "" && a.Currency != "" {
				addonCurrency = a.Currency
			}
		}

		if itemCurrency == "" && item.Currency != "" {
			itemCurrency = item.Currency
		}

		total += line
	}

	currency := addonCurrency
	if currency == "" {
		currency = itemCurrency
	}

	return math.Round(total*100) / 100, currency
}

// FormatCartMessage renders an itemized WhatsApp receipt for the cart.
func FormatCartMessage(cart []models.CartItem) string {
	if len(cart) == 0 {
		return "🛒 Your cart is empty."
	}

	total, currency := CalculateCartTotal(cart)
	if currency == "" {
		currency = "SAR"
	}

	var b strings.Builder
	b.WriteString("🛒 *Your Cart*\n\n")
	for i, item := range cart {
		unit := item.Price
		if item.DiscountedPrice != nil {
			unit = *item.DiscountedPrice
		}
		b.WriteString(fmt.Sprintf("%d. %s x%d — %.2f %s\n", i+1, item.Name, item.Quantity, unit*float64(item.Quantity), currency))
		for _, a := range item.Addons {
			b.WriteString(fmt.Sprintf("   ➕ %s x%d — %.2f %s\n", a.Name, a.Quantity, a.Price*float64(a.Quantity), currency))
		}
		if item.Notes != "" {
			b.WriteString(fmt.Sprintf("   📝 %s\n", item.Notes))
		}
	}
	b.WriteString(fmt.Sprintf("\n💰 *Total: %.2f %s*", total, currency))
	return b.String()
}

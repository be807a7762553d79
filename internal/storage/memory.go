package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/talabli/talabli-backend/internal/models"
	"github.com/talabli/talabli-backend/internal/utils"
)

// MemoryStore holds the catalog and order archive in memory, for tests and
// local runs without Postgres.
type MemoryStore struct {
	merchants map[string]*models.Merchant
	branches  map[string]*models.Branch
	menuItems map[string]*models.MenuItem
	orders    map[string]*models.Order

	merchantMu sync.RWMutex
	branchMu   sync.RWMutex
	menuMu     sync.RWMutex
	orderMu    sync.RWMutex
}

// NewMemoryStore creates a new in-memory storage.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		merchants: make(map[string]*models.Merchant),
		branches:  make(map[string]*models.Branch),
		menuItems: make(map[string]*models.MenuItem),
		orders:    make(map[string]*models.Order),
	}
}

// Merchant / catalog operations

func (m *MemoryStore) CreateMerchant(merchant *models.Merchant) (*models.Merchant, error) {
	m.merchantMu.Lock()
	defer m.merchantMu.Unlock()

	if _, exists := m.merchants[merchant.MerchantID]; exists {
		return nil, fmt.Errorf("merchant already exists")
	}
	m.merchants[merchant.MerchantID] = merchant
	return merchant, nil
}

func (m *MemoryStore) GetMerchant(merchantID string) (*models.Merchant, error) {
	m.merchantMu.RLock()
	defer m.merchantMu.RUnlock()

	merchant, exists := m.merchants[merchantID]
	if !exists {
		return nil, fmt.Errorf("merchant not found")
	}
	return merchant, nil
}

func (m *MemoryStore) CreateBranch(branch *models.Branch) (*models.Branch, error) {
	m.branchMu.Lock()
	defer m.branchMu.Unlock()

	if _, exists := m.branches[branch.BranchID]; exists {
		return nil, fmt.Errorf("branch already exists")
	}
	m.branches[branch.BranchID] = branch
	return branch, nil
}

func (m *MemoryStore) GetBranch(branchID string) (*models.Branch, error) {
	m.branchMu.RLock()
	defer m.branchMu.RUnlock()

	branch, exists := m.branches[branchID]
	if !exists {
		return nil, fmt.Errorf("branch not found")
	}
	return branch, nil
}

func (m *MemoryStore) GetBranchesByMerchant(merchantID string) ([]*models.Branch, error) {
	m.branchMu.RLock()
	defer m.branchMu.RUnlock()

	var branches []*models.Branch
	for _, branch := range m.branches {
		if branch.MerchantID == merchantID {
			branches = append(branches, branch)
		}
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].BranchID < branches[j].BranchID })
	return branches, nil
}

func (m *MemoryStore) CreateMenuItem(item *models.MenuItem) (*models.MenuItem, error) {
	m.menuMu.Lock()
	defer m.menuMu.Unlock()

	if _, exists := m.menuItems[item.ItemID]; exists {
		return nil, fmt.Errorf("menu item already exists")
	}
	m.menuItems[item.ItemID] = item
	return item, nil
}

func (m *MemoryStore) GetMenuItem(itemID string) (*models.MenuItem, error) {
	m.menuMu.RLock()
	defer m.menuMu.RUnlock()

	item, exists := m.menuItems[itemID]
	if !exists {
		return nil, fmt.Errorf("menu item not found")
	}
	return item, nil
}

func (m *MemoryStore) GetMenuItems(merchantID string) ([]*models.MenuItem, error) {
	m.menuMu.RLock()
	defer m.menuMu.RUnlock()

	var items []*models.MenuItem
	for _, item := range m.menuItems {
		if item.MerchantID == merchantID && item.Available {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })
	return items, nil
}

func (m *MemoryStore) GetMenuItemsByCategory(merchantID, category string) ([]*models.MenuItem, error) {
	m.menuMu.RLock()
	defer m.menuMu.RUnlock()

	var items []*models.MenuItem
	for _, item := range m.menuItems {
		if item.MerchantID == merchantID && item.Category == category && item.Available {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ItemID < items[j].ItemID })
	return items, nil
}

// Order archive operations

func (m *MemoryStore) CreateOrder(order *models.Order) (*models.Order, error) {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	if _, exists := m.orders[order.Reference]; exists {
		return nil, fmt.Errorf("order already exists")
	}
	if order.Status == "" {
		order.Status = models.OrderStatusReceived
	}
	order.CustomerPhone = utils.NormalizePhone(order.CustomerPhone)
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()

	m.orders[order.Reference] = order
	return order, nil
}

func (m *MemoryStore) GetOrderByReference(reference string) (*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	order, exists := m.orders[reference]
	if !exists {
		return nil, fmt.Errorf("order not found")
	}
	return order, nil
}

func (m *MemoryStore) GetOrdersByPhone(phone string) ([]*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	key := utils.NormalizePhone(phone)
	var orders []*models.Order
	for _, order := range m.orders {
		if order.CustomerPhone == key {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

func (m *MemoryStore) UpdateOrderStatus(reference, status string) error {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	order, exists := m.orders[reference]
	if !exists {
		return fmt.Errorf("order not found")
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) SaveOrderRating(reference string, rating int, comment string) error {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	order, exists := m.orders[reference]
	if !exists {
		return fmt.Errorf("order not found")
	}
	order.Rating = &rating
	order.RatingComment = comment
	order.UpdatedAt = time.Now()
	return nil
}

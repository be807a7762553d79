package storage

import (
	"github.com/talabli/talabli-backend/internal/models"
)

// Store defines the interface for catalog and order-archive operations.
// Conversations, carts and flow state deliberately live elsewhere: they
// are in-memory only and never hit this layer.
type Store interface {
	// Merchant / catalog operations
	CreateMerchant(merchant *models.Merchant) (*models.Merchant, error)
	GetMerchant(merchantID string) (*models.Merchant, error)
	CreateBranch(branch *models.Branch) (*models.Branch, error)
	GetBranch(branchID string) (*models.Branch, error)
	GetBranchesByMerchant(merchantID string) ([]*models.Branch, error)
	CreateMenuItem(item *models.MenuItem) (*models.MenuItem, error)
	GetMenuItem(itemID string) (*models.MenuItem, error)
	GetMenuItems(merchantID string) ([]*models.MenuItem, error)
	GetMenuItemsByCategory(merchantID, category string) ([]*models.MenuItem, error)

	// Order archive operations
	CreateOrder(order *models.Order) (*models.Order, error)
	GetOrderByReference(reference string) (*models.Order, error)
	GetOrdersByPhone(phone string) ([]*models.Order, error)
	UpdateOrderStatus(reference, status string) error
	SaveOrderRating(reference string, rating int, comment string) error
}

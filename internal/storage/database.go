package storage

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/talabli/talabli-backend/internal/models"
	"github.com/talabli/talabli-backend/internal/utils"
)

// DatabaseStore implements Store on Postgres via GORM.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Merchant / catalog operations

func (d *DatabaseStore) CreateMerchant(merchant *models.Merchant) (*models.Merchant, error) {
	if err := d.db.Create(merchant).Error; err != nil {
		return nil, fmt.Errorf("failed to create merchant: %w", err)
	}
	return merchant, nil
}

func (d *DatabaseStore) GetMerchant(merchantID string) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := d.db.Where("merchant_id = ?", merchantID).First(&merchant).Error; err != nil {
		return nil, fmt.Errorf("merchant not found")
	}
	return &merchant, nil
}

func (d *DatabaseStore) CreateBranch(branch *models.Branch) (*models.Branch, error) {
	if err := d.db.Create(branch).Error; err != nil {
		return nil, fmt.Errorf("failed to create branch: %w", err)
	}
	return branch, nil
}

func (d *DatabaseStore) GetBranch(branchID string) (*models.Branch, error) {
	var branch models.Branch
	if err := d.db.Where("branch_id = ?", branchID).First(&branch).Error; err != nil {
		return nil, fmt.Errorf("branch not found")
	}
	return &branch, nil
}

func (d *DatabaseStore) GetBranchesByMerchant(merchantID string) ([]*models.Branch, error) {
	var branches []*models.Branch
	if err := d.db.Where("merchant_id = ?", merchantID).Order("branch_id").Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

func (d *DatabaseStore) CreateMenuItem(item *models.MenuItem) (*models.MenuItem, error) {
	if err := d.db.Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	return item, nil
}

func (d *DatabaseStore) GetMenuItem(itemID string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := d.db.Where("item_id = ?", itemID).First(&item).Error; err != nil {
		return nil, fmt.Errorf("menu item not found")
	}
	return &item, nil
}

func (d *DatabaseStore) GetMenuItems(merchantID string) ([]*models.MenuItem, error) {
	var items []*models.MenuItem
	if err := d.db.Where("merchant_id = ? AND available = ?", merchantID, true).
		Order("item_id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (d *DatabaseStore) GetMenuItemsByCategory(merchantID, category string) ([]*models.MenuItem, error) {
	var items []*models.MenuItem
	if err := d.db.Where("merchant_id = ? AND category = ? AND available = ?", merchantID, category, true).
		Order("item_id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Order archive operations

func (d *DatabaseStore) CreateOrder(order *models.Order) (*models.Order, error) {
	if order.Status == "" {
		order.Status = models.OrderStatusReceived
	}
	order.CustomerPhone = utils.NormalizePhone(order.CustomerPhone)
	if err := d.db.Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (d *DatabaseStore) GetOrderByReference(reference string) (*models.Order, error) {
	var order models.Order
	if err := d.db.Where("reference = ?", reference).First(&order).Error; err != nil {
		return nil, fmt.Errorf("order not found")
	}
	return &order, nil
}

func (d *DatabaseStore) GetOrdersByPhone(phone string) ([]*models.Order, error) {
	var orders []*models.Order
	if err := d.db.Where("customer_phone = ?", utils.NormalizePhone(phone)).
		Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (d *DatabaseStore) UpdateOrderStatus(reference, status string) error {
	result := d.db.Model(&models.Order{}).Where("reference = ?", reference).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("order not found")
	}
	return nil
}

func (d *DatabaseStore) SaveOrderRating(reference string, rating int, comment string) error {
	result := d.db.Model(&models.Order{}).Where("reference = ?", reference).
		Updates(map[string]interface{}{"rating": rating, "rating_comment": comment})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("order not found")
	}
	return nil
}

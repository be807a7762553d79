package models

import (
	"time"

	"gorm.io/gorm"
)

// Order statuses
const (
	OrderStatusReceived  = "received"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusOnTheWay  = "on_the_way"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order is the archived record of a confirmed order. The live cart and
// flow state never touch the database; only the final confirmed order does,
// so the customer can look it up later by reference.
type Order struct {
	gorm.Model
	Reference     string     `json:"reference" gorm:"uniqueIndex;not null"`
	CustomerPhone string     `json:"customer_phone" gorm:"index;not null"`
	CustomerName  string     `json:"customer_name"`
	MerchantID    string     `json:"merchant_id" gorm:"index"`
	BranchID      string     `json:"branch_id"`
	OrderType     string     `json:"order_type"`
	PaymentMethod string     `json:"payment_method"`
	Address       string     `json:"address"`
	ItemsJSON     string     `json:"items_json"` // serialized []CartItem at confirmation time
	Total         float64    `json:"total"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status" gorm:"default:received"`
	Rating        *int       `json:"rating,omitempty"`
	RatingComment string     `json:"rating_comment"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
}

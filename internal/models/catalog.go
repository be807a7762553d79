package models

import "gorm.io/gorm"

// Merchant is a restaurant brand served by the bot.
type Merchant struct {
	gorm.Model
	MerchantID string `json:"merchant_id" gorm:"uniqueIndex;not null"`
	Name       string `json:"name" gorm:"not null"`
	Currency   string `json:"currency" gorm:"default:SAR"`
	Active     bool   `json:"active" gorm:"default:true"`
}

// Branch is a physical location of a merchant.
type Branch struct {
	gorm.Model
	BranchID   string  `json:"branch_id" gorm:"uniqueIndex;not null"`
	MerchantID string  `json:"merchant_id" gorm:"index;not null"`
	Name       string  `json:"name" gorm:"not null"`
	Phone      string  `json:"phone"`
	Address    string  `json:"address"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Open       bool    `json:"open" gorm:"default:true"`
}

// MenuItem is a sellable product on a merchant's menu.
type MenuItem struct {
	gorm.Model
	ItemID          string   `json:"item_id" gorm:"uniqueIndex;not null"`
	MerchantID      string   `json:"merchant_id" gorm:"index;not null"`
	Category        string   `json:"category" gorm:"index"`
	Name            string   `json:"name" gorm:"not null"`
	Price           float64  `json:"price"`
	DiscountedPrice *float64 `json:"discounted_price,omitempty"`
	Currency        string   `json:"currency" gorm:"default:SAR"`
	ImageURL        string   `json:"image_url"`
	Available       bool     `json:"available" gorm:"default:true"`
	AddonsJSON      string   `json:"addons_json"` // serialized []Addon offered with the item
}

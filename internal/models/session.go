package models

import "time"

// SessionItem is the externalized form of a cart line stored in Redis.
type SessionItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Currency  string  `json:"currency,omitempty"`
	Notes     string  `json:"notes,omitempty"`
	Addons    []Addon `json:"addons"`
}

// ConversationSession is the TTL-bounded snapshot of an in-flight order
// flow, persisted in Redis so a multi-turn conversation survives process
// restarts. It is a recovery aid, not the source of truth: the in-memory
// stores stay authoritative while the process is alive. All fields are
// optional; absence means "unset", not "zero".
type ConversationSession struct {
	SelectedBranch    *string       `json:"selectedBranch,omitempty"`
	MerchantID        *string       `json:"merchantId,omitempty"`
	BranchID          *string       `json:"branchId,omitempty"`
	BranchName        *string       `json:"branchName,omitempty"`
	BranchPhone       *string       `json:"branchPhone,omitempty"`
	OrderType         *string       `json:"orderType,omitempty"`
	PaymentMethod     *string       `json:"paymentMethod,omitempty"`
	Items             []SessionItem `json:"items,omitempty"`
	Total             *float64      `json:"total,omitempty"`
	Currency          *string       `json:"currency,omitempty"`
	CustomerName      *string       `json:"customerName,omitempty"`
	CustomerPhone     *string       `json:"customerPhone,omitempty"`
	CustomerPhoneRaw  *string       `json:"customerPhoneRaw,omitempty"`
	LastOrderNumber   *string       `json:"lastOrderNumber,omitempty"`
	LastUserMessageAt *time.Time    `json:"lastUserMessageAt,omitempty"`
}

// Merge shallow-merges upd into s, non-nil (and non-empty Items) wins.
func (s *ConversationSession) Merge(upd ConversationSession) {
	if upd.SelectedBranch != nil {
		s.SelectedBranch = upd.SelectedBranch
	}
	if upd.MerchantID != nil {
		s.MerchantID = upd.MerchantID
	}
	if upd.BranchID != nil {
		s.BranchID = upd.BranchID
	}
	if upd.BranchName != nil {
		s.BranchName = upd.BranchName
	}
	if upd.BranchPhone != nil {
		s.BranchPhone = upd.BranchPhone
	}
	if upd.OrderType != nil {
		s.OrderType = upd.OrderType
	}
	if upd.PaymentMethod != nil {
		s.PaymentMethod = upd.PaymentMethod
	}
	if upd.Items != nil {
		s.Items = upd.Items
	}
	if upd.Total != nil {
		s.Total = upd.Total
	}
	if upd.Currency != nil {
		s.Currency = upd.Currency
	}
	if upd.CustomerName != nil {
		s.CustomerName = upd.CustomerName
	}
	if upd.CustomerPhone != nil {
		s.CustomerPhone = upd.CustomerPhone
	}
	if upd.CustomerPhoneRaw != nil {
		s.CustomerPhoneRaw = upd.CustomerPhoneRaw
	}
	if upd.LastOrderNumber != nil {
		s.LastOrderNumber = upd.LastOrderNumber
	}
	if upd.LastUserMessageAt != nil {
		s.LastUserMessageAt = upd.LastUserMessageAt
	}
}

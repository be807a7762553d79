package models

// Addon is an extra attached to a cart item (e.g. extra cheese).
type Addon struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Currency string  `json:"currency,omitempty"`
}

// CartItem is one line in a customer's cart. Two additions with the same
// product, addon selection and notes collapse into a single line; anything
// that makes them visually or financially different keeps them apart.
type CartItem struct {
	ProductID       string   `json:"product_id"`
	Name            string   `json:"name"`
	Price           float64  `json:"price"`
	DiscountedPrice *float64 `json:"discounted_price,omitempty"`
	Quantity        int      `json:"quantity"`
	Currency        string   `json:"currency,omitempty"`
	ImageURL        string   `json:"image_url,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Addons          []Addon  `json:"addons,omitempty"`
}

// PendingItem is a single item + quantity parked while the bot asks the
// customer to confirm it.
type PendingItem struct {
	Item     CartItem `json:"item"`
	Quantity int      `json:"quantity"`
}

// Order types and payment methods used by the flow.
const (
	OrderTypeDelivery = "delivery"
	OrderTypePickup   = "pickup"

	PaymentCash = "cash"
	PaymentCard = "card"
)

// OrderState is the transient flow-control bag for one customer's ordering
// dialogue. It is not a state machine: each field is an orthogonal flag or
// value, independently set and cleared by whichever flow step needs it.
// Nil means unset.
type OrderState struct {
	OrderType       *string      `json:"order_type,omitempty"`
	DeliveryAddress *string      `json:"delivery_address,omitempty"`
	DeliveryLat     *float64     `json:"delivery_lat,omitempty"`
	DeliveryLng     *float64     `json:"delivery_lng,omitempty"`
	Pending         *PendingItem `json:"pending,omitempty"`
	PaymentMethod   *string      `json:"payment_method,omitempty"`

	AwaitingLocation      *bool `json:"awaiting_location,omitempty"`
	AwaitingItemRemoval   *bool `json:"awaiting_item_removal,omitempty"`
	AwaitingOrderRef      *bool `json:"awaiting_order_ref,omitempty"`
	AwaitingRatingComment *bool `json:"awaiting_rating_comment,omitempty"`

	OrderReference *string `json:"order_reference,omitempty"`
	StatusStage    *string `json:"status_stage,omitempty"`
	MerchantID     *string `json:"merchant_id,omitempty"`
	BranchID       *string `json:"branch_id,omitempty"`
	Category       *string `json:"category,omitempty"`
	PendingRating  *int    `json:"pending_rating,omitempty"`
}

// Merge shallow-merges upd into s: every non-nil field of upd overwrites
// the corresponding field of s. There is no deep merge and no deletion.
func (s *OrderState) Merge(upd OrderState) {
	if upd.OrderType != nil {
		s.OrderType = upd.OrderType
	}
	if upd.DeliveryAddress != nil {
		s.DeliveryAddress = upd.DeliveryAddress
	}
	if upd.DeliveryLat != nil {
		s.DeliveryLat = upd.DeliveryLat
	}
	if upd.DeliveryLng != nil {
		s.DeliveryLng = upd.DeliveryLng
	}
	if upd.Pending != nil {
		s.Pending = upd.Pending
	}
	if upd.PaymentMethod != nil {
		s.PaymentMethod = upd.PaymentMethod
	}
	if upd.AwaitingLocation != nil {
		s.AwaitingLocation = upd.AwaitingLocation
	}
	if upd.AwaitingItemRemoval != nil {
		s.AwaitingItemRemoval = upd.AwaitingItemRemoval
	}
	if upd.AwaitingOrderRef != nil {
		s.AwaitingOrderRef = upd.AwaitingOrderRef
	}
	if upd.AwaitingRatingComment != nil {
		s.AwaitingRatingComment = upd.AwaitingRatingComment
	}
	if upd.OrderReference != nil {
		s.OrderReference = upd.OrderReference
	}
	if upd.StatusStage != nil {
		s.StatusStage = upd.StatusStage
	}
	if upd.MerchantID != nil {
		s.MerchantID = upd.MerchantID
	}
	if upd.BranchID != nil {
		s.BranchID = upd.BranchID
	}
	if upd.Category != nil {
		s.Category = upd.Category
	}
	if upd.PendingRating != nil {
		s.PendingRating = upd.PendingRating
	}
}

// Helpers for building partial updates without temp variables.

func StringPtr(s string) *string    { return &s }
func BoolPtr(b bool) *bool          { return &b }
func IntPtr(i int) *int             { return &i }
func Float64Ptr(f float64) *float64 { return &f }

package domain

import "time"

// Order lifecycle states.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipping   = "shipping"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Payment states.
const (
	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

// Payment methods accepted at checkout.
const (
	PaymentMethodCOD          = "cod"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodMomo         = "momo"
	PaymentMethodVNPay        = "vnpay"
)

// OrderSummary is the order shape used in listings.
type OrderSummary struct {
	ID                   int64     `json:"id"`
	OrderNumber          string    `json:"order_number"`
	Status               string    `json:"status"`
	StatusDisplay        string    `json:"status_display"`
	PaymentStatus        string    `json:"payment_status"`
	PaymentStatusDisplay string    `json:"payment_status_display"`
	Total                Amount    `json:"total"`
	ItemCount            int       `json:"item_count"`
	CreatedAt            time.Time `json:"created_at"`
}

// OrderItem is a single line in a placed order. Product details are copied at
// order time so the line survives catalog changes.
type OrderItem struct {
	ID           int64  `json:"id"`
	Product      *int64 `json:"product"`
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image"`
	Quantity     int    `json:"quantity"`
	Price        Amount `json:"price"`
	Subtotal     Amount `json:"subtotal"`
}

// Order is the full order detail shape.
type Order struct {
	ID                   int64       `json:"id"`
	OrderNumber          string      `json:"order_number"`
	Status               string      `json:"status"`
	StatusDisplay        string      `json:"status_display"`
	RecipientName        string      `json:"recipient_name"`
	Phone                string      `json:"phone"`
	Email                string      `json:"email"`
	Address              string      `json:"address"`
	City                 string      `json:"city"`
	District             string      `json:"district"`
	Ward                 string      `json:"ward"`
	FullAddress          string      `json:"full_address"`
	Note                 string      `json:"note"`
	PaymentMethod        string      `json:"payment_method"`
	PaymentMethodDisplay string      `json:"payment_method_display"`
	PaymentStatus        string      `json:"payment_status"`
	PaymentStatusDisplay string      `json:"payment_status_display"`
	Subtotal             Amount      `json:"subtotal"`
	ShippingFee          Amount      `json:"shipping_fee"`
	Discount             Amount      `json:"discount"`
	Total                Amount      `json:"total"`
	Items                []OrderItem `json:"items"`
	ItemCount            int         `json:"item_count"`
	CanCancel            bool        `json:"can_cancel"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// Cancellable reports whether the order is still in a state the customer may
// cancel. The backend enforces the same rule; this only drives UI affordances.
func (o *Order) Cancellable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

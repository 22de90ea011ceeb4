package domain

import "time"

// Cart mirrors the server's cart aggregate. All totals come from the backend;
// nothing here is computed locally, so a stale snapshot can never disagree
// with itself.
type Cart struct {
	ID         int64      `json:"id"`
	Items      []CartItem `json:"items"`
	TotalItems int        `json:"total_items"`
	Subtotal   Amount     `json:"subtotal"`
	Total      Amount     `json:"total"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CartItem is a single line in the cart.
type CartItem struct {
	ID        int64          `json:"id"`
	Product   ProductSummary `json:"product"`
	Quantity  int            `json:"quantity"`
	UnitPrice Amount         `json:"unit_price"`
	Subtotal  Amount         `json:"subtotal"`
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Quantity returns the quantity of the given product in the cart, or 0.
func (c *Cart) Quantity(productID int64) int {
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			return c.Items[i].Quantity
		}
	}
	return 0
}

package domain

import "time"

// Category is a product category node.
type Category struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description,omitempty"`
	Image        string     `json:"image,omitempty"`
	Parent       *int64     `json:"parent,omitempty"`
	IsActive     bool       `json:"is_active,omitempty"`
	ProductCount int        `json:"product_count"`
	Children     []Category `json:"children,omitempty"`
}

// ProductImage is one image in a product gallery.
type ProductImage struct {
	ID        int64  `json:"id"`
	Image     string `json:"image"`
	AltText   string `json:"alt_text"`
	IsPrimary bool   `json:"is_primary"`
	Order     int    `json:"order"`
}

// ProductSummary is the lightweight product shape used in listings and inside
// cart items.
type ProductSummary struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Slug             string    `json:"slug"`
	ShortDescription string    `json:"short_description"`
	Price            Amount    `json:"price"`
	SalePrice        *Amount   `json:"sale_price"`
	CurrentPrice     Amount    `json:"current_price"`
	DiscountPercent  int       `json:"discount_percent"`
	Category         int64     `json:"category"`
	CategoryName     string    `json:"category_name"`
	Stock            int       `json:"stock"`
	IsInStock        bool      `json:"is_in_stock"`
	IsFeatured       bool      `json:"is_featured"`
	PrimaryImage     string    `json:"primary_image"`
	AverageRating    float64   `json:"average_rating"`
	ReviewCount      int       `json:"review_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// Product is the full product detail shape.
type Product struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	Slug             string         `json:"slug"`
	Description      string         `json:"description"`
	ShortDescription string         `json:"short_description"`
	Price            Amount         `json:"price"`
	SalePrice        *Amount        `json:"sale_price"`
	CurrentPrice     Amount         `json:"current_price"`
	DiscountPercent  int            `json:"discount_percent"`
	Category         Category       `json:"category"`
	Stock            int            `json:"stock"`
	SKU              string         `json:"sku"`
	IsInStock        bool           `json:"is_in_stock"`
	IsActive         bool           `json:"is_active"`
	IsFeatured       bool           `json:"is_featured"`
	Images           []ProductImage `json:"images"`
	AverageRating    float64        `json:"average_rating"`
	ReviewCount      int            `json:"review_count"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

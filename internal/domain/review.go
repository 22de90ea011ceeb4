package domain

import "time"

// Review is a product review as the backend serializes it. The user fields
// are denormalized for display; VerifiedPurchase is computed server-side from
// delivered orders.
type Review struct {
	ID                 int64     `json:"id"`
	User               int64     `json:"user"`
	UserName           string    `json:"user_name"`
	UserAvatar         *string   `json:"user_avatar"`
	Product            int64     `json:"product"`
	Rating             int       `json:"rating"`
	Title              string    `json:"title"`
	Comment            string    `json:"comment"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	CreatedAt          time.Time `json:"created_at"`
}

// RatingStats is the aggregate the backend attaches to a product's review
// listing. Distribution keys are the star counts "1" through "5".
type RatingStats struct {
	AverageRating      float64        `json:"average_rating"`
	TotalReviews       int            `json:"total_reviews"`
	RatingDistribution map[string]int `json:"rating_distribution"`
}

package model

import "time"

// UserProduct links a user to a product they added to their collection.
// It is distinct from ownership (Product.UserID).
type UserProduct struct {
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

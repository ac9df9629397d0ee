// Package model defines domain entities for the application.
package model

import "time"

// User is an account that can obtain access tokens, own products,
// and collect products through the user_products association.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

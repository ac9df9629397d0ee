// Package model defines domain entities for the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalogue item.
type Product struct {
	ID          int64
	UserID      *int64 // Owner; nil when the owner was deleted or never set
	Name        string
	Description string
	Price       decimal.Decimal
	Image       *string // URL of the most recent image, resolved from media
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsOwnedBy reports whether userID owns the product.
// Products without an owner are not owned by anyone.
func (p *Product) IsOwnedBy(userID int64) bool {
	return p.UserID != nil && *p.UserID == userID
}

// HasOwner returns true if the product has an owning user.
func (p *Product) HasOwner() bool {
	return p.UserID != nil
}

// ProductPatch carries the fields of a partial update.
// Nil fields are left unchanged.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
}

// IsEmpty returns true if the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil
}

// Apply merges the patch onto the product.
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
}

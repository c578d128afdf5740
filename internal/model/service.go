package model

import (
	"time"

	"github.com/google/uuid"
)

// Service is a catalog entry. The catalog is managed elsewhere; bookings
// only read it to resolve the price at creation time.
type Service struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	BasePrice   float64   `db:"base_price" json:"base_price"`
	Category    string    `db:"category" json:"category,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

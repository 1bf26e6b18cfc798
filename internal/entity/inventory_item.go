package entity

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem represents a product a trader stocks, for data transfer between layers.
type InventoryItem struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"` // canonical name; legacy rows may hold raw lowercase text
	Unit      string    `json:"unit"`
	Quantity  float64   `json:"quantity"`
	UnitPrice float64   `json:"unit_price"` // last seen price
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

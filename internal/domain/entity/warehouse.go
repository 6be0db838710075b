package entity

import "time"

// Warehouse representa una bodega.
type Warehouse struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
}

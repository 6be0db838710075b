package entity

import "time"

// Estados de una unidad serializada.
const (
	SerialInStock    = "IN_STOCK"
	SerialReserved   = "RESERVED"
	SerialDispatched = "DISPATCHED"
	SerialVoided     = "VOIDED"
)

// SerialUnit es una unidad física identificada por número de serie.
type SerialUnit struct {
	ID          string
	ProductID   string
	Serial      string
	WarehouseID string
	Status      string
	PurchaseID  string
	OrderID     string
	SaleID      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

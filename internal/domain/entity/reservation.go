package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una reserva.
const (
	ReservationActive   = "ACTIVE"
	ReservationConsumed = "CONSUMED"
	ReservationReleased = "RELEASED"
	ReservationExpired  = "EXPIRED"
)

// Reservation retiene cantidad (o una unidad serializada) para una línea de pedido.
type Reservation struct {
	ID           string
	OrderID      string
	OrderLineID  string
	ProductID    string
	WarehouseID  string
	Quantity     decimal.Decimal
	SerialUnitID string // vacío en reservas por cantidad
	Status       string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Key devuelve la fila de existencia que sostiene la reserva.
func (r *Reservation) Key() StockKey {
	return StockKey{ProductID: r.ProductID, WarehouseID: r.WarehouseID}
}

// Expired indica si la reserva venció respecto a now.
func (r *Reservation) Expired(now time.Time) bool {
	return r.Status == ReservationActive && !r.ExpiresAt.After(now)
}

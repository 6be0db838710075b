package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock es la existencia de un producto en una bodega.
// Invariantes: OnHand >= 0, 0 <= Reserved <= OnHand.
type Stock struct {
	ProductID   string
	WarehouseID string
	OnHand      decimal.Decimal
	Reserved    decimal.Decimal
	UpdatedAt   time.Time
}

// Available es lo que puede comprometerse: OnHand - Reserved.
func (s *Stock) Available() decimal.Decimal {
	return s.OnHand.Sub(s.Reserved)
}

// Key devuelve la clave (producto, bodega) de la fila.
func (s *Stock) Key() StockKey {
	return StockKey{ProductID: s.ProductID, WarehouseID: s.WarehouseID}
}

// StockKey identifica una fila de existencia.
type StockKey struct {
	ProductID   string
	WarehouseID string
}

// Less define el orden canónico de bloqueo: producto y luego bodega.
func (k StockKey) Less(o StockKey) bool {
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	return k.WarehouseID < o.WarehouseID
}

// StockFilter filtros del listado de existencias.
type StockFilter struct {
	ProductID   string
	WarehouseID string
}

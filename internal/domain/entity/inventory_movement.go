package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovementPurchase   = "PURCHASE"
	MovementSale       = "SALE"
	MovementAdjustment = "ADJUSTMENT"
	MovementReversal   = "REVERSAL"
)

// Tipos de documento que originan movimientos.
const (
	DocumentPurchase   = "PURCHASE"
	DocumentSale       = "SALE"
	DocumentAdjustment = "ADJUSTMENT"
)

// InventoryMovement es un registro inmutable del kardex. Quantity es positiva en entradas
// (DestWarehouseID) y negativa en salidas (SourceWarehouseID).
type InventoryMovement struct {
	ID                string
	Kind              string
	ProductID         string
	SourceWarehouseID string
	DestWarehouseID   string
	Quantity          decimal.Decimal
	UnitCost          decimal.Decimal
	BalanceAfter      decimal.Decimal
	Reference         string
	DocumentType      string
	DocumentID        string
	ActorID           string
	CreatedAt         time.Time
}

// WarehouseID devuelve la bodega afectada por el movimiento.
func (m *InventoryMovement) WarehouseID() string {
	if m.DestWarehouseID != "" {
		return m.DestWarehouseID
	}
	return m.SourceWarehouseID
}

// KardexFilter filtros de consulta del kardex de un producto.
type KardexFilter struct {
	ProductID   string
	WarehouseID string
	From        *time.Time
	To          *time.Time
}

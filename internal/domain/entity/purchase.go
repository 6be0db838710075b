package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la compra.
const (
	PurchaseRegistered = "REGISTERED"
	PurchaseVoided     = "VOIDED"
)

// Purchase es una compra a proveedor que ingresa stock a una bodega.
type Purchase struct {
	ID             string
	SupplierID     string
	WarehouseID    string
	DocumentNumber string
	Status         string
	Lines          []PurchaseLine
	Total          decimal.Decimal
	Notes          string
	ActorID        string
	CreatedAt      time.Time
	VoidedAt       *time.Time
}

// PurchaseLine es una línea de la compra.
type PurchaseLine struct {
	ID         string
	PurchaseID string
	ProductID  string
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	Subtotal   decimal.Decimal
	Serials    []string
}

// Recompute recalcula subtotales y total.
func (p *Purchase) Recompute() {
	total := decimal.Zero
	for i := range p.Lines {
		p.Lines[i].Quantity = Qty(p.Lines[i].Quantity)
		p.Lines[i].Subtotal = LineSubtotal(p.Lines[i].Quantity, p.Lines[i].UnitCost)
		total = total.Add(p.Lines[i].Subtotal)
	}
	p.Total = Money(total)
}

// StockKeys devuelve las filas de existencia que toca la compra.
func (p *Purchase) StockKeys() []StockKey {
	keys := make([]StockKey, 0, len(p.Lines))
	for _, l := range p.Lines {
		keys = append(keys, StockKey{ProductID: l.ProductID, WarehouseID: p.WarehouseID})
	}
	return keys
}

// PurchaseFilter filtros de listado y tablero de compras.
type PurchaseFilter struct {
	SupplierID  string
	WarehouseID string
	Status      string
	From        *time.Time
	To          *time.Time
	Limit       int
}

// PurchaseDashboard resumen de compras registradas en un rango.
type PurchaseDashboard struct {
	TotalAmount   decimal.Decimal
	PurchaseCount int
	BySupplier    []PurchaseAggregate
	ByWarehouse   []PurchaseAggregate
	TopProducts   []PurchaseAggregate
}

// PurchaseAggregate fila agregada (proveedor, bodega o producto).
type PurchaseAggregate struct {
	ID       string
	Name     string
	Amount   decimal.Decimal
	Quantity decimal.Decimal
	Count    int
}

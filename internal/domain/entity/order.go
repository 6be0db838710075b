package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del pedido.
const (
	OrderOpen      = "OPEN"
	OrderReserved  = "RESERVED"
	OrderInvoiced  = "INVOICED"
	OrderCancelled = "CANCELLED"
)

// Order es el pedido de un cliente contra una bodega.
// OPEN -> RESERVED -> INVOICED; OPEN/RESERVED -> CANCELLED. INVOICED y CANCELLED son terminales.
type Order struct {
	ID          string
	CustomerID  string
	WarehouseID string
	ActorID     string
	Status      string
	Lines       []OrderLine
	Total       decimal.Decimal
	SaleID      string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderLine es una línea del pedido.
type OrderLine struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
	SerialIDs []string // unidades elegidas para productos serializados
}

var orderTransitions = map[string][]string{
	OrderOpen:     {OrderReserved, OrderInvoiced, OrderCancelled},
	OrderReserved: {OrderInvoiced, OrderCancelled},
}

// CanTransition indica si el pedido puede pasar al estado to.
func (o *Order) CanTransition(to string) bool {
	for _, s := range orderTransitions[o.Status] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal indica si el pedido ya no admite transiciones.
func (o *Order) Terminal() bool {
	return o.Status == OrderInvoiced || o.Status == OrderCancelled
}

// Recompute recalcula subtotales y total a partir de las líneas.
func (o *Order) Recompute() {
	total := decimal.Zero
	for i := range o.Lines {
		o.Lines[i].Quantity = Qty(o.Lines[i].Quantity)
		o.Lines[i].Subtotal = LineSubtotal(o.Lines[i].Quantity, o.Lines[i].UnitPrice)
		total = total.Add(o.Lines[i].Subtotal)
	}
	o.Total = Money(total)
}

// StockKeys devuelve las filas de existencia que tocan las líneas del pedido.
func (o *Order) StockKeys() []StockKey {
	keys := make([]StockKey, 0, len(o.Lines))
	for _, l := range o.Lines {
		keys = append(keys, StockKey{ProductID: l.ProductID, WarehouseID: o.WarehouseID})
	}
	return keys
}

// OrderFilter filtros del listado de pedidos.
type OrderFilter struct {
	CustomerID string
	Status     string
	From       *time.Time
	To         *time.Time
	Limit      int
}

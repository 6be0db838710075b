package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de pago de una venta.
const (
	SalePaymentCash   = "CASH"
	SalePaymentCredit = "CREDIT"
)

// Estados de la venta.
const (
	SaleIssued = "ISSUED"
	SalePaid   = "PAID"
)

// Sale es la factura generada al confirmar un pedido. Solo cambia su estado.
type Sale struct {
	ID          string
	OrderID     string
	CustomerID  string
	WarehouseID string
	ActorID     string
	PaymentType string
	Status      string
	Total       decimal.Decimal
	Lines       []SaleLine
	CreatedAt   time.Time
}

// SaleLine replica la línea del pedido.
type SaleLine struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

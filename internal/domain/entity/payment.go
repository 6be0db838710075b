package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Métodos de pago.
const (
	PaymentMethodCash     = "CASH"
	PaymentMethodPOS      = "POS"
	PaymentMethodTransfer = "TRANSFER"
	PaymentMethodDeposit  = "DEPOSIT"
)

// Objetivos de una aplicación.
const (
	TargetSale        = "SALE"
	TargetInstallment = "INSTALLMENT"
)

// Tipos de aplicación.
const (
	ApplicationInstallment = "INSTALLMENT"
	ApplicationPrincipal   = "PRINCIPAL"
	ApplicationInterest    = "INTEREST"
	ApplicationPenalty     = "PENALTY"
	ApplicationAdvance     = "ADVANCE"
	ApplicationOther       = "OTHER"
)

// Payment es un cobro a un cliente repartido en aplicaciones.
// Invariante: la suma de Applications.Amount es igual a Total.
type Payment struct {
	ID             string
	CustomerID     string
	Method         string
	Reference      string
	Total          decimal.Decimal
	ActorID        string
	InitialDeposit bool
	CashBoxID      string
	Applications   []Application
	CreatedAt      time.Time
}

// Application es la porción de un pago destinada a una venta o a una cuota.
type Application struct {
	ID            string
	PaymentID     string
	TargetType    string
	SaleID        string
	InstallmentID string
	Amount        decimal.Decimal
	Type          string
}

// AppliedTotal suma los montos de las aplicaciones.
func (p *Payment) AppliedTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, a := range p.Applications {
		sum = sum.Add(a.Amount)
	}
	return sum
}

// Movimientos de caja.
const CashIncome = "INCOME"

// CashBox es una caja física o cuenta de recaudo.
type CashBox struct {
	ID       string
	Name     string
	Currency string
	Active   bool
}

// CashMovement refleja en caja el ingreso de un pago.
type CashMovement struct {
	ID        string
	CashBoxID string
	Type      string
	Amount    decimal.Decimal
	Reason    string
	Reference string
	PaymentID string
	CreatedAt time.Time
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una cuota.
const (
	InstallmentPending = "PENDING"
	InstallmentPartial = "PARTIAL"
	InstallmentPaid    = "PAID"
)

// PaymentAgreement es el plan de pagos en cuotas de una venta a crédito.
type PaymentAgreement struct {
	ID           string
	SaleID       string
	CustomerID   string
	Installments []Installment
	CreatedAt    time.Time
}

// Installment es una cuota programada.
type Installment struct {
	ID          string
	AgreementID string
	Number      int
	DueDate     time.Time
	Principal   decimal.Decimal
	Interest    decimal.Decimal
	Total       decimal.Decimal
	Balance     decimal.Decimal
	Status      string
}

// Apply descuenta amount del saldo: saldo = max(saldo - amount, 0).
// El estado depende solo del saldo: PAID en cero, PARTIAL si ya recibió abonos.
func (i *Installment) Apply(amount decimal.Decimal) {
	balance := i.Balance.Sub(amount)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	i.Balance = Money(balance)
	switch {
	case i.Balance.IsZero():
		i.Status = InstallmentPaid
	case i.Balance.LessThan(i.Total):
		i.Status = InstallmentPartial
	}
}

// Buckets de antigüedad de cartera.
const (
	BucketCurrent = "0-AL-DIA"
	Bucket1To30   = "1-30"
	Bucket31To60  = "31-60"
	Bucket61To90  = "61-90"
	BucketOver90  = ">90"
)

// AgingBuckets en orden de presentación.
var AgingBuckets = []string{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}

// AgingBucket clasifica los días de atraso.
func AgingBucket(daysOverdue int) string {
	switch {
	case daysOverdue <= 0:
		return BucketCurrent
	case daysOverdue <= 30:
		return Bucket1To30
	case daysOverdue <= 60:
		return Bucket31To60
	case daysOverdue <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// DaysOverdue cuenta días calendario entre el vencimiento y today (negativo si aún no vence).
func DaysOverdue(due, today time.Time) int {
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(d).Hours() / 24)
}

// OpenInstallment cuota con saldo pendiente y datos del cliente para el estado de cuenta.
type OpenInstallment struct {
	Installment
	CustomerID   string
	CustomerName string
	SaleID       string
}

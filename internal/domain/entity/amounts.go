package entity

import "github.com/shopspring/decimal"

// Escalas de redondeo: dinero a 2 decimales, cantidades físicas a 4.
const (
	MoneyScale    int32 = 2
	QuantityScale int32 = 4
)

// Money redondea un monto a 2 decimales.
func Money(d decimal.Decimal) decimal.Decimal { return d.Round(MoneyScale) }

// Qty redondea una cantidad física a 4 decimales.
func Qty(d decimal.Decimal) decimal.Decimal { return d.Round(QuantityScale) }

// LineSubtotal devuelve round2(cantidad × precio).
func LineSubtotal(qty, unitPrice decimal.Decimal) decimal.Decimal {
	return Money(qty.Mul(unitPrice))
}

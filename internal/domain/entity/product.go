package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo. El stock vive por bodega en Stock.
type Product struct {
	ID         string
	SKU        string
	Name       string
	TaxRate    decimal.Decimal
	Price      decimal.Decimal
	CostRef    decimal.Decimal // costo de referencia con el que se valorizan las salidas por venta
	Serialized bool            // true: cada unidad se controla por número de serie
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

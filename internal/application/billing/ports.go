package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// SaleLineForPDF línea de venta enriquecida con datos del producto para el PDF.
type SaleLineForPDF struct {
	entity.SaleLine
	SKU         string
	ProductName string
	TaxRate     decimal.Decimal
}

// SaleDocument datos completos del comprobante de venta.
type SaleDocument struct {
	Sale      *entity.Sale
	Customer  *entity.Customer
	Warehouse *entity.Warehouse
	Lines     []SaleLineForPDF
	Paid      decimal.Decimal
	Balance   decimal.Decimal
}

// SalePDFGenerator genera la representación gráfica de una venta.
type SalePDFGenerator interface {
	GenerateSalePDF(ctx context.Context, doc SaleDocument) ([]byte, error)
}

package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// PDFUseCase genera el comprobante (PDF) de una venta emitida.
type PDFUseCase struct {
	saleRepo      repository.SaleRepository
	customerRepo  repository.CustomerRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	paymentRepo   repository.PaymentRepository
	generator     SalePDFGenerator
}

// NewPDFUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPDFUseCase(
	saleRepo repository.SaleRepository,
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	paymentRepo repository.PaymentRepository,
	generator SalePDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{
		saleRepo:      saleRepo,
		customerRepo:  customerRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		paymentRepo:   paymentRepo,
		generator:     generator,
	}
}

// DownloadSalePDF recupera la venta con su cliente, bodega, líneas y saldo y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la venta no existe.
func (uc *PDFUseCase) DownloadSalePDF(ctx context.Context, saleID string) (pdfBytes []byte, filename string, err error) {
	// ── 1. Cargar venta ───────────────────────────────────────────────────────
	sale, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener venta: %w", err)
	}
	if sale == nil {
		return nil, "", domain.ErrNotFound
	}

	// ── 2. Cargar cliente y bodega ────────────────────────────────────────────
	customer, err := uc.customerRepo.GetByID(ctx, sale.CustomerID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener cliente: %w", err)
	}
	if customer == nil {
		customer = &entity.Customer{ID: sale.CustomerID, Name: "Cliente " + sale.CustomerID}
	}
	warehouse, err := uc.warehouseRepo.GetByID(ctx, sale.WarehouseID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener bodega: %w", err)
	}
	if warehouse == nil {
		warehouse = &entity.Warehouse{ID: sale.WarehouseID, Name: sale.WarehouseID}
	}

	// ── 3. Enriquecer líneas con nombre de producto ───────────────────────────
	lines := make([]SaleLineForPDF, 0, len(sale.Lines))
	for _, l := range sale.Lines {
		enriched := SaleLineForPDF{SaleLine: l, ProductName: "Producto " + l.ProductID} // fallback
		if p, pErr := uc.productRepo.GetByID(ctx, l.ProductID); pErr == nil && p != nil {
			enriched.SKU = p.SKU
			enriched.ProductName = p.Name
			enriched.TaxRate = p.TaxRate
		}
		lines = append(lines, enriched)
	}

	// ── 4. Saldo derivado: el del plan si existe, si no total menos lo aplicado ─
	paid, err := uc.paymentRepo.AppliedToSale(ctx, sale.ID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener abonos: %w", err)
	}
	planBalance, hasPlan, err := uc.paymentRepo.PlanBalance(ctx, sale.ID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener plan de pagos: %w", err)
	}
	balance := entity.Money(sale.Total.Sub(paid))
	if hasPlan {
		balance = entity.Money(planBalance)
	}
	if balance.IsNegative() {
		balance = decimal.Zero
	}

	// ── 5. Generar PDF ────────────────────────────────────────────────────────
	pdfBytes, err = uc.generator.GenerateSalePDF(ctx, SaleDocument{
		Sale:      sale,
		Customer:  customer,
		Warehouse: warehouse,
		Lines:     lines,
		Paid:      entity.Money(paid),
		Balance:   balance,
	})
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	filename = fmt.Sprintf("venta_%s.pdf", shortID(sale.ID))
	return pdfBytes, filename, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-ledger/internal/application/billing"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/memory"
)

const (
	productID   = "10000000-0000-0000-0000-000000000001"
	warehouseID = "20000000-0000-0000-0000-000000000001"
	customerID  = "30000000-0000-0000-0000-000000000001"
)

// captureGenerator guarda el documento recibido en lugar de dibujar el PDF.
type captureGenerator struct {
	doc billing.SaleDocument
	err error
}

func (g *captureGenerator) GenerateSalePDF(_ context.Context, doc billing.SaleDocument) ([]byte, error) {
	g.doc = doc
	if g.err != nil {
		return nil, g.err
	}
	return []byte("%PDF-fake"), nil
}

func newPDF(t *testing.T, gen billing.SalePDFGenerator) (*memory.Store, *billing.PDFUseCase) {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: productID, SKU: "CEM-50", Name: "Cemento gris", TaxRate: decimal.RequireFromString("0.19"), Active: true})
	store.AddWarehouse(entity.Warehouse{ID: warehouseID, Name: "Principal", Active: true})
	store.AddCustomer(entity.Customer{ID: customerID, Name: "Ferretería Central", Active: true})
	r := store.Repos()
	return store, billing.NewPDFUseCase(r.Sales, r.Customers, r.Products, r.Warehouses, r.Payments, gen)
}

func insertSale(t *testing.T, store *memory.Store, total int64, paid int64) string {
	t.Helper()
	ctx := context.Background()
	saleID := uuid.New().String()
	err := store.Run(ctx, func(repos repository.TxRepos) error {
		if err := repos.Sales.Create(ctx, &entity.Sale{
			ID: saleID, CustomerID: customerID, WarehouseID: warehouseID,
			PaymentType: entity.SalePaymentCredit, Status: entity.SaleIssued, Total: decimal.NewFromInt(total),
			Lines: []entity.SaleLine{{ID: uuid.New().String(), SaleID: saleID, ProductID: productID,
				Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(total / 2), Subtotal: decimal.NewFromInt(total)}},
		}); err != nil {
			return err
		}
		if paid == 0 {
			return nil
		}
		pid := uuid.New().String()
		return repos.Payments.Create(ctx, &entity.Payment{
			ID: pid, CustomerID: customerID, Method: entity.PaymentMethodCash, Total: decimal.NewFromInt(paid),
			Applications: []entity.Application{{ID: uuid.New().String(), PaymentID: pid, TargetType: entity.TargetSale,
				SaleID: saleID, Amount: decimal.NewFromInt(paid), Type: entity.ApplicationPrincipal}},
		})
	})
	require.NoError(t, err)
	return saleID
}

func TestDownloadSalePDF_EnriqueceLineasYSaldo(t *testing.T) {
	gen := &captureGenerator{}
	store, uc := newPDF(t, gen)
	saleID := insertSale(t, store, 100, 30)

	out, filename, err := uc.DownloadSalePDF(context.Background(), saleID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(out))
	assert.Equal(t, "venta_"+saleID[:8]+".pdf", filename)

	assert.Equal(t, "Ferretería Central", gen.doc.Customer.Name)
	assert.Equal(t, "Principal", gen.doc.Warehouse.Name)
	require.Len(t, gen.doc.Lines, 1)
	assert.Equal(t, "CEM-50", gen.doc.Lines[0].SKU)
	assert.Equal(t, "Cemento gris", gen.doc.Lines[0].ProductName)
	assert.Equal(t, "30.00", gen.doc.Paid.StringFixed(2))
	assert.Equal(t, "70.00", gen.doc.Balance.StringFixed(2))
}

func TestDownloadSalePDF_VentaInexistente(t *testing.T) {
	_, uc := newPDF(t, &captureGenerator{})
	_, _, err := uc.DownloadSalePDF(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDownloadSalePDF_ErrorDelGenerador(t *testing.T) {
	gen := &captureGenerator{err: errors.New("fuente no disponible")}
	store, uc := newPDF(t, gen)
	saleID := insertSale(t, store, 40, 0)

	_, _, err := uc.DownloadSalePDF(context.Background(), saleID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fuente no disponible")
	assert.True(t, gen.doc.Balance.Equal(decimal.NewFromInt(40)))
}

func TestDownloadSalePDF_SaldoDelPlanDeCuotas(t *testing.T) {
	gen := &captureGenerator{}
	store, uc := newPDF(t, gen)
	ctx := context.Background()
	saleID := insertSale(t, store, 100, 0)
	agID := uuid.New().String()
	first, second := uuid.New().String(), uuid.New().String()
	err := store.Run(ctx, func(repos repository.TxRepos) error {
		if err := repos.Installments.CreateAgreement(ctx, &entity.PaymentAgreement{
			ID: agID, SaleID: saleID, CustomerID: customerID,
			Installments: []entity.Installment{
				{ID: first, AgreementID: agID, Number: 1, Principal: decimal.NewFromInt(50), Interest: decimal.NewFromInt(5),
					Total: decimal.NewFromInt(55), Balance: decimal.Zero, Status: entity.InstallmentPaid},
				{ID: second, AgreementID: agID, Number: 2, Principal: decimal.NewFromInt(50), Interest: decimal.NewFromInt(5),
					Total: decimal.NewFromInt(55), Balance: decimal.NewFromInt(55), Status: entity.InstallmentPending},
			},
		}); err != nil {
			return err
		}
		pid := uuid.New().String()
		return repos.Payments.Create(ctx, &entity.Payment{
			ID: pid, CustomerID: customerID, Method: entity.PaymentMethodCash, Total: decimal.NewFromInt(55),
			Applications: []entity.Application{{ID: uuid.New().String(), PaymentID: pid, TargetType: entity.TargetInstallment,
				InstallmentID: first, Amount: decimal.NewFromInt(55), Type: entity.ApplicationInstallment}},
		})
	})
	require.NoError(t, err)

	_, _, err = uc.DownloadSalePDF(ctx, saleID)
	require.NoError(t, err)
	assert.Equal(t, "55.00", gen.doc.Paid.StringFixed(2), "los pagos a cuotas cuentan como abonos")
	assert.Equal(t, "55.00", gen.doc.Balance.StringFixed(2), "saldo abierto del plan")
}

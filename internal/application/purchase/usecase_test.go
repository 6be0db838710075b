package purchase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/application/inventory"
	"github.com/jhoicas/erp-ledger/internal/application/order"
	"github.com/jhoicas/erp-ledger/internal/application/purchase"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/erp-ledger/pkg/logger"
)

const (
	actorID     = "a0000000-0000-0000-0000-000000000001"
	productID   = "10000000-0000-0000-0000-000000000001"
	serialProd  = "10000000-0000-0000-0000-000000000002"
	warehouseID = "20000000-0000-0000-0000-000000000001"
	otherWH     = "20000000-0000-0000-0000-000000000002"
	customerID  = "30000000-0000-0000-0000-000000000001"
	supplierID  = "40000000-0000-0000-0000-000000000001"
	supplier2ID = "40000000-0000-0000-0000-000000000002"
)

type fixture struct {
	store  *memory.Store
	repos  repository.TxRepos
	ledger *inventory.Ledger
	uc     *purchase.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: productID, SKU: "S1", Name: "Cemento", Price: decimal.NewFromInt(20), Active: true})
	store.AddProduct(entity.Product{ID: serialProd, SKU: "TAL", Name: "Taladro", Price: decimal.NewFromInt(300), Serialized: true, Active: true})
	store.AddWarehouse(entity.Warehouse{ID: warehouseID, Name: "A-1", Active: true})
	store.AddWarehouse(entity.Warehouse{ID: otherWH, Name: "B-1", Active: true})
	store.AddCustomer(entity.Customer{ID: customerID, Name: "Cliente", Active: true})
	store.AddSupplier(entity.Supplier{ID: supplierID, Name: "Proveedor Uno", Active: true})
	store.AddSupplier(entity.Supplier{ID: supplier2ID, Name: "Proveedor Dos", Active: true})
	repos := store.Repos()
	ledger := inventory.NewLedger(nil)
	return &fixture{
		store:  store,
		repos:  repos,
		ledger: ledger,
		uc:     purchase.NewUseCase(store, repos.Purchases, ledger, nil, logger.Nop()),
	}
}

func registerReq(doc string, qty, cost int64) dto.RegisterPurchaseRequest {
	return dto.RegisterPurchaseRequest{
		SupplierID:     supplierID,
		WarehouseID:    warehouseID,
		DocumentNumber: doc,
		Items: []dto.PurchaseItemRequest{{
			ProductID: productID, Quantity: decimal.NewFromInt(qty), UnitCost: decimal.NewFromInt(cost),
		}},
	}
}

func (f *fixture) onHand(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	s, _, err := f.repos.Stock.Get(context.Background(), productID, warehouseID)
	require.NoError(t, err)
	return s.OnHand
}

// ──────────────────────────────────────────────────────────────────────────────
// Registrar
// ──────────────────────────────────────────────────────────────────────────────

func TestRegister_IngresaStockYMovimiento(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.uc.Register(ctx, actorID, registerReq("FAC-001", 10, 6))
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseRegistered, p.Status)
	assert.True(t, decimal.NewFromInt(60).Equal(p.Total))
	assert.True(t, decimal.NewFromInt(10).Equal(f.onHand(t, productID)))

	movs, err := f.repos.Movements.ListByDocument(ctx, entity.DocumentPurchase, p.ID)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementPurchase, movs[0].Kind)
	assert.Equal(t, warehouseID, movs[0].DestWarehouseID)
	assert.Contains(t, movs[0].Reference, "FAC-001")
}

func TestRegister_ActualizaCostoPromedioPonderado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Register(ctx, actorID, registerReq("FAC-001", 10, 6))
	require.NoError(t, err)
	_, err = f.uc.Register(ctx, actorID, registerReq("FAC-002", 10, 8))
	require.NoError(t, err)

	prod, err := f.repos.Products.GetByID(ctx, productID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(7).Equal(prod.CostRef), "got %s", prod.CostRef)
}

func TestRegister_DocumentoDuplicadoPorProveedor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.uc.Register(ctx, actorID, registerReq("FAC-001", 1, 1))
	require.NoError(t, err)

	_, err = f.uc.Register(ctx, actorID, registerReq("FAC-001", 1, 1))
	var integrity *domain.IntegrityError
	require.True(t, errors.As(err, &integrity))
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.True(t, decimal.NewFromInt(1).Equal(f.onHand(t, productID)), "el duplicado no ingresa stock")

	other := registerReq("FAC-001", 1, 1)
	other.SupplierID = supplier2ID
	_, err = f.uc.Register(ctx, actorID, other)
	assert.NoError(t, err, "el mismo número de otro proveedor es válido")
}

func TestRegister_EntradasInvalidas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := registerReq("FAC-1", 0, 1)
	_, err := f.uc.Register(ctx, actorID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero")

	req = registerReq("FAC-1", 1, 1)
	req.Items[0].Quantity = decimal.RequireFromString("0.00004")
	_, err = f.uc.Register(ctx, actorID, req)
	require.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad que redondea a cero")
	assert.Contains(t, err.Error(), "cantidad debe ser positiva")

	req = registerReq("FAC-1", 1, -1)
	_, err = f.uc.Register(ctx, actorID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "costo negativo")

	req = registerReq("FAC-1", 1, 1)
	req.Items = nil
	_, err = f.uc.Register(ctx, actorID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin ítems")

	req = registerReq("FAC-1", 1, 1)
	req.SupplierID = "40000000-0000-0000-0000-0000000000ff"
	_, err = f.uc.Register(ctx, actorID, req)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegister_SerializadoCreaUnidades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := dto.RegisterPurchaseRequest{
		SupplierID: supplierID, WarehouseID: warehouseID, DocumentNumber: "FAC-S",
		Items: []dto.PurchaseItemRequest{{
			ProductID: serialProd, Quantity: decimal.NewFromInt(2), UnitCost: decimal.NewFromInt(200), Serials: []string{"SN-1", "SN-2"},
		}},
	}
	p, err := f.uc.Register(ctx, actorID, req)
	require.NoError(t, err)

	exists, err := f.repos.Serials.ExistsSerial(ctx, serialProd, "SN-2")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.True(t, decimal.NewFromInt(2).Equal(f.onHand(t, serialProd)))

	dup := req
	dup.DocumentNumber = "FAC-S2"
	_, err = f.uc.Register(ctx, actorID, dup)
	assert.ErrorIs(t, err, domain.ErrDuplicate, "serie ya registrada")

	missing := req
	missing.DocumentNumber = "FAC-S3"
	missing.Items = []dto.PurchaseItemRequest{{ProductID: serialProd, Quantity: decimal.NewFromInt(2), UnitCost: decimal.NewFromInt(1), Serials: []string{"SN-9"}}}
	_, err = f.uc.Register(ctx, actorID, missing)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "faltan series")

	units, err := f.repos.Serials.ListByPurchaseForUpdate(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, units, 2)
}

// ──────────────────────────────────────────────────────────────────────────────
// Anular
// ──────────────────────────────────────────────────────────────────────────────

func TestVoid_RevierteYElNetoEsCero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.uc.Register(ctx, actorID, registerReq("FAC-001", 10, 6))
	require.NoError(t, err)

	voided, err := f.uc.Void(ctx, actorID, p.ID, dto.VoidPurchaseRequest{Reason: "factura errada"})
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseVoided, voided.Status)
	require.NotNil(t, voided.VoidedAt)
	assert.Contains(t, voided.Notes, "factura errada")

	assert.True(t, f.onHand(t, productID).IsZero())
	movs, err := f.repos.Movements.ListByDocument(ctx, entity.DocumentPurchase, p.ID)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementPurchase, movs[0].Kind)
	assert.True(t, decimal.NewFromInt(10).Equal(movs[0].Quantity))
	assert.Equal(t, entity.MovementReversal, movs[1].Kind)
	assert.True(t, decimal.NewFromInt(-10).Equal(movs[1].Quantity))
	assert.Equal(t, warehouseID, movs[1].SourceWarehouseID)

	sum, err := f.repos.Movements.SumQuantity(ctx, productID, warehouseID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestVoid_DosVeces_IntegrityErrorConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.uc.Register(ctx, actorID, registerReq("FAC-001", 1, 1))
	require.NoError(t, err)
	_, err = f.uc.Void(ctx, actorID, p.ID, dto.VoidPurchaseRequest{Reason: "duplicada"})
	require.NoError(t, err)

	_, err = f.uc.Void(ctx, actorID, p.ID, dto.VoidPurchaseRequest{Reason: "duplicada"})
	var integrity *domain.IntegrityError
	require.True(t, errors.As(err, &integrity))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestVoid_StockYaVendido_StockErrorSinEfectos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.uc.Register(ctx, actorID, registerReq("FAC-001", 5, 6))
	require.NoError(t, err)

	orders := order.NewUseCase(f.store, f.repos.Orders, f.ledger, inventory.NewReservations(f.ledger, 0), nil, logger.Nop())
	o, err := orders.Create(ctx, actorID, dto.CreateOrderRequest{
		CustomerID: customerID, WarehouseID: warehouseID,
		Items: []dto.OrderItemRequest{{ProductID: productID, Quantity: decimal.NewFromInt(2)}},
	})
	require.NoError(t, err)
	_, err = orders.Confirm(ctx, actorID, o.ID, dto.ConfirmOrderRequest{})
	require.NoError(t, err)

	_, err = f.uc.Void(ctx, actorID, p.ID, dto.VoidPurchaseRequest{Reason: "devolución"})
	var stockErr *domain.StockError
	require.True(t, errors.As(err, &stockErr))
	assert.True(t, decimal.NewFromInt(3).Equal(stockErr.Available))

	got, err := f.uc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseRegistered, got.Status)
	assert.True(t, decimal.NewFromInt(3).Equal(f.onHand(t, productID)))
}

func TestVoid_Inexistente_ErrNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Void(context.Background(), actorID, "90000000-0000-0000-0000-000000000001", dto.VoidPurchaseRequest{Reason: "no existe"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Listado y tablero
// ──────────────────────────────────────────────────────────────────────────────

func TestDashboard_ExcluyeAnuladas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.Register(ctx, actorID, registerReq("FAC-001", 10, 6))
	require.NoError(t, err)
	second := registerReq("FAC-002", 4, 5)
	second.SupplierID = supplier2ID
	_, err = f.uc.Register(ctx, actorID, second)
	require.NoError(t, err)
	voided, err := f.uc.Register(ctx, actorID, registerReq("FAC-003", 1, 100))
	require.NoError(t, err)
	_, err = f.uc.Void(ctx, actorID, voided.ID, dto.VoidPurchaseRequest{Reason: "prueba"})
	require.NoError(t, err)

	d, err := f.uc.Dashboard(ctx, dto.PurchaseListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, d.PurchaseCount)
	assert.True(t, decimal.NewFromInt(80).Equal(d.TotalAmount), "got %s", d.TotalAmount)
	require.Len(t, d.BySupplier, 2)
	assert.Equal(t, supplierID, d.BySupplier[0].ID, "ordenado por monto")
	require.Len(t, d.TopProducts, 1)
	assert.True(t, decimal.NewFromInt(14).Equal(d.TopProducts[0].Quantity))

	voidedOnly, err := f.uc.List(ctx, dto.PurchaseListQuery{Status: entity.PurchaseVoided})
	require.NoError(t, err)
	require.Len(t, voidedOnly, 1)
	assert.Equal(t, voided.ID, voidedOnly[0].ID)
}

package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
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
	"github.com/jhoicas/erp-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/erp-ledger/migrations"
	"github.com/jhoicas/erp-ledger/pkg/config"
	"github.com/jhoicas/erp-ledger/pkg/migrate"
)

// Requiere DATABASE_URL apuntando a una base desechable; sin ella se omite.
func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, migrate.Up(ctx, postgres.OpenDB(pool), migrations.FS))
	return pool
}

type fixture struct {
	productID, warehouseID, supplierID, customerID, actorID string
}

func seed(t *testing.T, pool *pgxpool.Pool) fixture {
	t.Helper()
	ctx := context.Background()
	f := fixture{
		productID:   uuid.NewString(),
		warehouseID: uuid.NewString(),
		supplierID:  uuid.NewString(),
		customerID:  uuid.NewString(),
		actorID:     uuid.NewString(),
	}
	_, err := pool.Exec(ctx, `INSERT INTO products (id, sku, name, price) VALUES ($1, $2, 'Tornillo', 10)`,
		f.productID, "SKU-"+f.productID[:8])
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO warehouses (id, name) VALUES ($1, 'Principal')`, f.warehouseID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO suppliers (id, name) VALUES ($1, 'Ferretería')`, f.supplierID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO customers (id, name) VALUES ($1, 'Constructora')`, f.customerID)
	require.NoError(t, err)
	return f
}

func TestStockRepo_EnsureYSave(t *testing.T) {
	pool := openPool(t)
	f := seed(t, pool)
	ctx := context.Background()
	runner := postgres.NewTxRunner(pool)

	err := runner.Run(ctx, func(repos repository.TxRepos) error {
		s, err := repos.Stock.EnsureForUpdate(ctx, f.productID, f.warehouseID)
		if err != nil {
			return err
		}
		s.OnHand = decimal.NewFromInt(7)
		s.Reserved = decimal.NewFromInt(2)
		return repos.Stock.Save(ctx, s)
	})
	require.NoError(t, err)

	s, exists, err := postgres.NewStockRepository(pool).Get(ctx, f.productID, f.warehouseID)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.True(t, s.OnHand.Equal(decimal.NewFromInt(7)))
	assert.True(t, s.Available().Equal(decimal.NewFromInt(5)))
}

func TestStockRepo_RestriccionReservadoMayorQueExistencia(t *testing.T) {
	pool := openPool(t)
	f := seed(t, pool)
	ctx := context.Background()

	err := postgres.NewStockRepository(pool).Save(ctx, &entity.Stock{
		ProductID: f.productID, WarehouseID: f.warehouseID,
		OnHand: decimal.NewFromInt(1), Reserved: decimal.NewFromInt(3),
	})
	assert.Error(t, err)
}

func TestTxRunner_RollbackDescartaEscrituras(t *testing.T) {
	pool := openPool(t)
	f := seed(t, pool)
	ctx := context.Background()

	err := postgres.NewTxRunner(pool).Run(ctx, func(repos repository.TxRepos) error {
		if err := repos.Stock.Save(ctx, &entity.Stock{
			ProductID: f.productID, WarehouseID: f.warehouseID,
			OnHand: decimal.NewFromInt(4), Reserved: decimal.Zero,
		}); err != nil {
			return err
		}
		return domain.ErrConflict
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	_, exists, err := postgres.NewStockRepository(pool).Get(ctx, f.productID, f.warehouseID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPurchase_RegistrarYAnularDejaSaldoEnCero(t *testing.T) {
	pool := openPool(t)
	f := seed(t, pool)
	ctx := context.Background()

	ledger := inventory.NewLedger(nil)
	uc := purchase.NewUseCase(postgres.NewTxRunner(pool), postgres.NewPurchaseRepository(pool), ledger, nil, nil)

	p, err := uc.Register(ctx, f.actorID, dto.RegisterPurchaseRequest{
		SupplierID:     f.supplierID,
		WarehouseID:    f.warehouseID,
		DocumentNumber: "FAC-" + f.supplierID[:6],
		Items: []dto.PurchaseItemRequest{{
			ProductID: f.productID, Quantity: decimal.NewFromInt(10), UnitCost: decimal.RequireFromString("2.50"),
		}},
	})
	require.NoError(t, err)

	_, err = uc.Register(ctx, f.actorID, dto.RegisterPurchaseRequest{
		SupplierID: f.supplierID, WarehouseID: f.warehouseID, DocumentNumber: p.DocumentNumber,
		Items: []dto.PurchaseItemRequest{{ProductID: f.productID, Quantity: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	voided, err := uc.Void(ctx, f.actorID, p.ID, dto.VoidPurchaseRequest{Reason: "error de digitación"})
	require.NoError(t, err)
	assert.Equal(t, entity.PurchaseVoided, voided.Status)

	movs := postgres.NewInventoryMovementRepository(pool)
	sum, err := movs.SumQuantity(ctx, f.productID, f.warehouseID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero(), "suma de movimientos = %s", sum)

	s, _, err := postgres.NewStockRepository(pool).Get(ctx, f.productID, f.warehouseID)
	require.NoError(t, err)
	assert.True(t, s.OnHand.IsZero())

	kardex, err := movs.Kardex(ctx, entity.KardexFilter{ProductID: f.productID})
	require.NoError(t, err)
	require.Len(t, kardex, 2)
	assert.Equal(t, entity.MovementPurchase, kardex[0].Kind)
	assert.Equal(t, entity.MovementReversal, kardex[1].Kind)
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia sobre el mismo saldo
// ──────────────────────────────────────────────────────────────────────────────

// stockFor registra una compra de qty unidades y devuelve el caso de uso de pedidos.
func stockFor(t *testing.T, pool *pgxpool.Pool, f fixture, qty int64) *order.UseCase {
	t.Helper()
	runner := postgres.NewTxRunner(pool)
	ledger := inventory.NewLedger(nil)
	purchases := purchase.NewUseCase(runner, postgres.NewPurchaseRepository(pool), ledger, nil, nil)
	_, err := purchases.Register(context.Background(), f.actorID, dto.RegisterPurchaseRequest{
		SupplierID: f.supplierID, WarehouseID: f.warehouseID, DocumentNumber: "FAC-" + f.supplierID[:6],
		Items: []dto.PurchaseItemRequest{{ProductID: f.productID, Quantity: decimal.NewFromInt(qty), UnitCost: decimal.NewFromInt(2)}},
	})
	require.NoError(t, err)
	return order.NewUseCase(runner, postgres.NewOrderRepository(pool), ledger, inventory.NewReservations(ledger, time.Hour), nil, nil)
}

func orderReq(f fixture, qty int64, reserve bool) dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		CustomerID: f.customerID, WarehouseID: f.warehouseID, Reserve: reserve,
		Items: []dto.OrderItemRequest{{ProductID: f.productID, Quantity: decimal.NewFromInt(qty)}},
	}
}

// race ejecuta fn dos veces a la vez y devuelve los errores.
func race(fn func(i int) error) []error {
	errs := make([]error, 2)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

// assertOneWins exige un éxito y un StockError, con existencia igual a la suma de movimientos.
func assertOneWins(t *testing.T, pool *pgxpool.Pool, f fixture, errs []error, wantOnHand int64) {
	t.Helper()
	ok, stockErrs := 0, 0
	for _, err := range errs {
		var se *domain.StockError
		switch {
		case err == nil:
			ok++
		case errors.As(err, &se):
			stockErrs++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, stockErrs)

	ctx := context.Background()
	s, _, err := postgres.NewStockRepository(pool).Get(ctx, f.productID, f.warehouseID)
	require.NoError(t, err)
	sum, err := postgres.NewInventoryMovementRepository(pool).SumQuantity(ctx, f.productID, f.warehouseID)
	require.NoError(t, err)
	assert.True(t, s.OnHand.Equal(sum), "existencia %s, movimientos %s", s.OnHand, sum)
	assert.True(t, s.OnHand.Equal(decimal.NewFromInt(wantOnHand)))
	assert.False(t, s.Reserved.GreaterThan(s.OnHand))
}

func TestOrder_ConfirmacionesConcurrentes_SoloUnaDescuenta(t *testing.T) {
	pool := openPool(t)
	f := seed(t, pool)
	ctx := context.Background()
	uc := stockFor(t, pool, f, 5)

	ids := make([]string, 2)
	for i := range ids {
		o, err := uc.Create(ctx, f.actorID, orderReq(f, 5, false))
		require.NoError(t, err)
		ids[i] = o.ID
	}

	errs := race(func(i int) error {
		_, err := uc.Confirm(ctx, f.actorID, ids[i], dto.ConfirmOrderRequest{})
		return err
	})
	assertOneWins(t, pool, f, errs, 0)
}

func TestOrder_ReservasConcurrentes_SoloUnaReserva(t *testing.T) {
	pool := openPool(t)
	f := seed(t, pool)
	ctx := context.Background()
	uc := stockFor(t, pool, f, 5)

	errs := race(func(int) error {
		_, err := uc.Create(ctx, f.actorID, orderReq(f, 5, true))
		return err
	})
	assertOneWins(t, pool, f, errs, 5)

	s, _, err := postgres.NewStockRepository(pool).Get(ctx, f.productID, f.warehouseID)
	require.NoError(t, err)
	assert.True(t, s.Reserved.Equal(decimal.NewFromInt(5)))
}

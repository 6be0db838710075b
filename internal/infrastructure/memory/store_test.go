package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/memory"
)

const (
	productID   = "10000000-0000-0000-0000-000000000001"
	warehouseID = "20000000-0000-0000-0000-000000000001"
)

func TestRun_ErrorDescartaCambios(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	boom := errors.New("falla a mitad de transacción")

	err := store.Run(ctx, func(repos repository.TxRepos) error {
		s, err := repos.Stock.EnsureForUpdate(ctx, productID, warehouseID)
		if err != nil {
			return err
		}
		s.OnHand = decimal.NewFromInt(7)
		if err := repos.Stock.Save(ctx, s); err != nil {
			return err
		}
		if err := repos.Movements.Create(ctx, &entity.InventoryMovement{
			ID: "m1", Kind: entity.MovementAdjustment, ProductID: productID,
			DestWarehouseID: warehouseID, Quantity: decimal.NewFromInt(7),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, exists, err := store.Repos().Stock.Get(ctx, productID, warehouseID)
	require.NoError(t, err)
	assert.False(t, exists, "la fila creada no se publica")
	sum, err := store.Repos().Movements.SumQuantity(ctx, productID, warehouseID)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestRun_CommitPublica(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	err := store.Run(ctx, func(repos repository.TxRepos) error {
		s, err := repos.Stock.EnsureForUpdate(ctx, productID, warehouseID)
		if err != nil {
			return err
		}
		s.OnHand = decimal.NewFromInt(3)
		return repos.Stock.Save(ctx, s)
	})
	require.NoError(t, err)

	s, exists, err := store.Repos().Stock.Get(ctx, productID, warehouseID)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.True(t, decimal.NewFromInt(3).Equal(s.OnHand))
}

func TestRun_ContextoCancelado(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Run(ctx, func(repository.TxRepos) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestPurchases_DocumentoDuplicado(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	repos := store.Repos()
	p := &entity.Purchase{ID: "p1", SupplierID: "s1", DocumentNumber: "FAC-1", Status: entity.PurchaseRegistered}
	require.NoError(t, repos.Purchases.Create(ctx, p))

	exists, err := repos.Purchases.ExistsDocument(ctx, "s1", "FAC-1")
	require.NoError(t, err)
	assert.True(t, exists)

	dup := &entity.Purchase{ID: "p2", SupplierID: "s1", DocumentNumber: "FAC-1", Status: entity.PurchaseRegistered}
	err = repos.Purchases.Create(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

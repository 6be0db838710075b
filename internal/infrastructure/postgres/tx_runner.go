package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/erp-ledger/internal/application/inventory"
	"github.com/jhoicas/erp-ledger/internal/application/order"
	"github.com/jhoicas/erp-ledger/internal/application/payment"
	"github.com/jhoicas/erp-ledger/internal/application/purchase"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var (
	_ inventory.TxRunner = (*TxRunner)(nil)
	_ order.TxRunner     = (*TxRunner)(nil)
	_ purchase.TxRunner  = (*TxRunner)(nil)
	_ payment.TxRunner   = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewRepos arma el juego de repositorios sobre q (pool para lecturas, tx dentro de Run).
func NewRepos(q Querier) repository.TxRepos {
	return repository.TxRepos{
		Stock:        NewStockRepository(q),
		Movements:    NewInventoryMovementRepository(q),
		Reservations: NewReservationRepository(q),
		Serials:      NewSerialUnitRepository(q),
		Orders:       NewOrderRepository(q),
		Sales:        NewSaleRepository(q),
		Purchases:    NewPurchaseRepository(q),
		Payments:     NewPaymentRepository(q),
		Installments: NewInstallmentRepository(q),
		Cash:         NewCashRepository(q),
		Products:     NewProductRepository(q),
		Warehouses:   NewWarehouseRepository(q),
		Customers:    NewCustomerRepository(q),
		Suppliers:    NewSupplierRepository(q),
	}
}

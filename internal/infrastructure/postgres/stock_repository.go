package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockSelect = `
	SELECT product_id, warehouse_id, on_hand, reserved, updated_at
	FROM stock WHERE product_id = $1 AND warehouse_id = $2`

// Get obtiene la existencia de un producto en una bodega. Si no hay fila devuelve ceros y false.
func (r *StockRepo) Get(ctx context.Context, productID, warehouseID string) (*entity.Stock, bool, error) {
	return r.get(ctx, stockSelect, productID, warehouseID)
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.Stock, bool, error) {
	return r.get(ctx, stockSelect+` FOR UPDATE`, productID, warehouseID)
}

func (r *StockRepo) get(ctx context.Context, query, productID, warehouseID string) (*entity.Stock, bool, error) {
	var s entity.Stock
	err := r.q.QueryRow(ctx, query, productID, warehouseID).Scan(
		&s.ProductID, &s.WarehouseID, &s.OnHand, &s.Reserved, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{ProductID: productID, WarehouseID: warehouseID, OnHand: decimal.Zero, Reserved: decimal.Zero}, false, nil
		}
		return nil, false, fmt.Errorf("get stock: %w", err)
	}
	return &s, true, nil
}

// EnsureForUpdate crea la fila en cero si falta y la bloquea.
func (r *StockRepo) EnsureForUpdate(ctx context.Context, productID, warehouseID string) (*entity.Stock, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock (product_id, warehouse_id, on_hand, reserved, updated_at)
		VALUES ($1, $2, 0, 0, now())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING`, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("ensure stock: %w", err)
	}
	s, _, err := r.GetForUpdate(ctx, productID, warehouseID)
	return s, err
}

// Save inserta o actualiza on_hand y reserved (por producto y bodega).
func (r *StockRepo) Save(ctx context.Context, stock *entity.Stock) error {
	query := `
		INSERT INTO stock (product_id, warehouse_id, on_hand, reserved, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET on_hand = EXCLUDED.on_hand, reserved = EXCLUDED.reserved, updated_at = now()`
	_, err := r.q.Exec(ctx, query, stock.ProductID, stock.WarehouseID, stock.OnHand, stock.Reserved)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// List lista existencias filtrando por producto o bodega.
func (r *StockRepo) List(ctx context.Context, f entity.StockFilter) ([]*entity.Stock, error) {
	query := `SELECT product_id, warehouse_id, on_hand, reserved, updated_at FROM stock WHERE TRUE`
	var args []any
	if f.ProductID != "" {
		args = append(args, f.ProductID)
		query += fmt.Sprintf(` AND product_id = $%d`, len(args))
	}
	if f.WarehouseID != "" {
		args = append(args, f.WarehouseID)
		query += fmt.Sprintf(` AND warehouse_id = $%d`, len(args))
	}
	query += ` ORDER BY product_id, warehouse_id`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.Stock
	for rows.Next() {
		var s entity.Stock
		if err := rows.Scan(&s.ProductID, &s.WarehouseID, &s.OnHand, &s.Reserved, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

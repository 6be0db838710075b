package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

const movementColumns = `id, kind, product_id, source_warehouse_id, dest_warehouse_id, quantity, unit_cost,
	balance_after, reference, document_type, document_id, actor_id, created_at`

// Create persiste un movimiento de inventario.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.Kind, m.ProductID, nullable(m.SourceWarehouseID), nullable(m.DestWarehouseID),
		m.Quantity, m.UnitCost, m.BalanceAfter, m.Reference, m.DocumentType, m.DocumentID,
		m.ActorID, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create inventory movement: %w", err)
	}
	return nil
}

// ListByDocument devuelve los movimientos generados por un documento en orden de registro.
func (r *InventoryMovementRepo) ListByDocument(ctx context.Context, documentType, documentID string) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements
		WHERE document_type = $1 AND document_id = $2 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, documentType, documentID)
	if err != nil {
		return nil, fmt.Errorf("list movements by document: %w", err)
	}
	return collectMovements(rows)
}

// Kardex lista movimientos de un producto; To es exclusivo.
func (r *InventoryMovementRepo) Kardex(ctx context.Context, f entity.KardexFilter) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE product_id = $1`
	args := []any{f.ProductID}
	if f.WarehouseID != "" {
		args = append(args, f.WarehouseID)
		query += fmt.Sprintf(` AND COALESCE(dest_warehouse_id, source_warehouse_id) = $%d`, len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(` AND created_at < $%d`, len(args))
	}
	query += ` ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("kardex: %w", err)
	}
	return collectMovements(rows)
}

// SumQuantity suma las cantidades firmadas del par (producto, bodega).
func (r *InventoryMovementRepo) SumQuantity(ctx context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0) FROM inventory_movements
		WHERE product_id = $1 AND COALESCE(dest_warehouse_id, source_warehouse_id) = $2`,
		productID, warehouseID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum movements: %w", err)
	}
	return sum, nil
}

func collectMovements(rows pgx.Rows) ([]*entity.InventoryMovement, error) {
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		var (
			m            entity.InventoryMovement
			source, dest *string
		)
		if err := rows.Scan(&m.ID, &m.Kind, &m.ProductID, &source, &dest, &m.Quantity, &m.UnitCost,
			&m.BalanceAfter, &m.Reference, &m.DocumentType, &m.DocumentID, &m.ActorID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.SourceWarehouseID, m.DestWarehouseID = deref(source), deref(dest)
		list = append(list, &m)
	}
	return list, rows.Err()
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var (
	_ repository.OrderRepository = (*OrderRepo)(nil)
	_ repository.SaleRepository  = (*SaleRepo)(nil)
)

// OrderRepo implementación de OrderRepository sobre PostgreSQL.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador de pedidos.
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, customer_id, warehouse_id, actor_id, status, total, sale_id, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var (
		o      entity.Order
		saleID *string
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.WarehouseID, &o.ActorID, &o.Status, &o.Total,
		&saleID, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.SaleID = deref(saleID)
	return &o, nil
}

// Create persiste cabecera y líneas.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	_, err := r.q.Exec(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.CustomerID, o.WarehouseID, o.ActorID, o.Status, o.Total,
		nullable(o.SaleID), o.Notes, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewDuplicateError("pedido", o.ID)
		}
		return fmt.Errorf("create order: %w", err)
	}
	return r.insertLines(ctx, o)
}

func (r *OrderRepo) insertLines(ctx context.Context, o *entity.Order) error {
	for i, l := range o.Lines {
		serials := l.SerialIDs
		if serials == nil {
			serials = []string{}
		}
		_, err := r.q.Exec(ctx, `
			INSERT INTO order_lines (id, order_id, line_no, product_id, quantity, unit_price, subtotal, serial_ids)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::uuid[])`,
			l.ID, o.ID, i+1, l.ProductID, l.Quantity, l.UnitPrice, l.Subtotal, serials)
		if err != nil {
			return fmt.Errorf("create order line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene el pedido con sus líneas. Devuelve (nil, nil) si no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera y carga las líneas.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *OrderRepo) get(ctx context.Context, query, id string) (*entity.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o.Lines, err = r.lines(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepo) lines(ctx context.Context, orderID string) ([]entity.OrderLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, subtotal, serial_ids::text[]
		FROM order_lines WHERE order_id = $1 ORDER BY line_no`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()
	var lines []entity.OrderLine
	for rows.Next() {
		var l entity.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal, &l.SerialIDs); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		if len(l.SerialIDs) == 0 {
			l.SerialIDs = nil
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ReplaceLines reemplaza todas las líneas y el total del pedido.
func (r *OrderRepo) ReplaceLines(ctx context.Context, o *entity.Order) error {
	tag, err := r.q.Exec(ctx, `UPDATE orders SET total = $2, updated_at = $3 WHERE id = $1`, o.ID, o.Total, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewOrderNotFound(o.ID)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, o.ID); err != nil {
		return fmt.Errorf("delete order lines: %w", err)
	}
	return r.insertLines(ctx, o)
}

// UpdateStatus guarda estado, venta asociada y notas.
func (r *OrderRepo) UpdateStatus(ctx context.Context, o *entity.Order) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE orders SET status = $2, sale_id = $3, notes = $4, updated_at = $5 WHERE id = $1`,
		o.ID, o.Status, nullable(o.SaleID), o.Notes, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewOrderNotFound(o.ID)
	}
	return nil
}

// List lista pedidos más recientes primero. Las líneas se cargan por pedido.
func (r *OrderRepo) List(ctx context.Context, f entity.OrderFilter) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE TRUE`
	var args []any
	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		query += fmt.Sprintf(` AND customer_id = $%d`, len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += fmt.Sprintf(` AND created_at < $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var list []*entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range list {
		if o.Lines, err = r.lines(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// SaleRepo implementación de SaleRepository sobre PostgreSQL.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de ventas.
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `id, order_id, customer_id, warehouse_id, actor_id, payment_type, status, total, created_at`

// Create persiste la venta y sus líneas.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	_, err := r.q.Exec(ctx, `INSERT INTO sales (`+saleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.OrderID, s.CustomerID, s.WarehouseID, s.ActorID, s.PaymentType, s.Status, s.Total, s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewDuplicateError("venta", s.ID)
		}
		return fmt.Errorf("create sale: %w", err)
	}
	for i, l := range s.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_lines (id, sale_id, line_no, product_id, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, s.ID, i+1, l.ProductID, l.Quantity, l.UnitPrice, l.Subtotal)
		if err != nil {
			return fmt.Errorf("create sale line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la venta con sus líneas. Devuelve (nil, nil) si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetForUpdate bloquea la venta.
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *SaleRepo) get(ctx context.Context, query, id string) (*entity.Sale, error) {
	var s entity.Sale
	err := r.q.QueryRow(ctx, query, id).Scan(&s.ID, &s.OrderID, &s.CustomerID, &s.WarehouseID,
		&s.ActorID, &s.PaymentType, &s.Status, &s.Total, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price, subtotal
		FROM sale_lines WHERE sale_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.SaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		s.Lines = append(s.Lines, l)
	}
	return &s, rows.Err()
}

// UpdateStatus cambia el estado de la venta.
func (r *SaleRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.q.Exec(ctx, `UPDATE sales SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("venta %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

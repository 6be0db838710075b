package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var _ repository.PurchaseRepository = (*PurchaseRepo)(nil)

// dashboardTop filas por agregado en el tablero de compras.
const dashboardTop = 10

// PurchaseRepo implementación de PurchaseRepository sobre PostgreSQL.
type PurchaseRepo struct {
	q Querier
}

// NewPurchaseRepository construye el adaptador de compras.
func NewPurchaseRepository(q Querier) *PurchaseRepo {
	return &PurchaseRepo{q: q}
}

const purchaseColumns = `id, supplier_id, warehouse_id, document_number, status, total, notes, actor_id, created_at, voided_at`

func scanPurchase(row pgx.Row) (*entity.Purchase, error) {
	var p entity.Purchase
	if err := row.Scan(&p.ID, &p.SupplierID, &p.WarehouseID, &p.DocumentNumber, &p.Status, &p.Total,
		&p.Notes, &p.ActorID, &p.CreatedAt, &p.VoidedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste la compra y sus líneas. Proveedor + documento es único.
func (r *PurchaseRepo) Create(ctx context.Context, p *entity.Purchase) error {
	_, err := r.q.Exec(ctx, `INSERT INTO purchases (`+purchaseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.SupplierID, p.WarehouseID, p.DocumentNumber, p.Status, p.Total,
		p.Notes, p.ActorID, p.CreatedAt, p.VoidedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewDuplicateError("compra", p.SupplierID+"/"+p.DocumentNumber)
		}
		return fmt.Errorf("create purchase: %w", err)
	}
	for i, l := range p.Lines {
		serials := l.Serials
		if serials == nil {
			serials = []string{}
		}
		_, err := r.q.Exec(ctx, `
			INSERT INTO purchase_lines (id, purchase_id, line_no, product_id, quantity, unit_cost, subtotal, serials)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			l.ID, p.ID, i+1, l.ProductID, l.Quantity, l.UnitCost, l.Subtotal, serials)
		if err != nil {
			return fmt.Errorf("create purchase line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene la compra con sus líneas. Devuelve (nil, nil) si no existe.
func (r *PurchaseRepo) GetByID(ctx context.Context, id string) (*entity.Purchase, error) {
	return r.get(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera de la compra.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Purchase, error) {
	return r.get(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = $1 FOR UPDATE`, id)
}

func (r *PurchaseRepo) get(ctx context.Context, query, id string) (*entity.Purchase, error) {
	p, err := scanPurchase(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	if p.Lines, err = r.lines(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PurchaseRepo) lines(ctx context.Context, purchaseID string) ([]entity.PurchaseLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, purchase_id, product_id, quantity, unit_cost, subtotal, serials
		FROM purchase_lines WHERE purchase_id = $1 ORDER BY line_no`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("list purchase lines: %w", err)
	}
	defer rows.Close()
	var lines []entity.PurchaseLine
	for rows.Next() {
		var l entity.PurchaseLine
		if err := rows.Scan(&l.ID, &l.PurchaseID, &l.ProductID, &l.Quantity, &l.UnitCost, &l.Subtotal, &l.Serials); err != nil {
			return nil, fmt.Errorf("scan purchase line: %w", err)
		}
		if len(l.Serials) == 0 {
			l.Serials = nil
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ExistsDocument indica si el proveedor ya tiene una compra con ese número de documento.
func (r *PurchaseRepo) ExistsDocument(ctx context.Context, supplierID, documentNumber string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM purchases WHERE supplier_id = $1 AND document_number = $2)`,
		supplierID, documentNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists purchase document: %w", err)
	}
	return exists, nil
}

// MarkVoided guarda el estado VOIDED, las notas y la fecha de anulación.
func (r *PurchaseRepo) MarkVoided(ctx context.Context, p *entity.Purchase) error {
	tag, err := r.q.Exec(ctx, `UPDATE purchases SET status = $2, notes = $3, voided_at = $4 WHERE id = $1`,
		p.ID, p.Status, p.Notes, p.VoidedAt)
	if err != nil {
		return fmt.Errorf("void purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("compra %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

// purchaseWhere arma el WHERE común de listado y tablero (alias p).
func purchaseWhere(f entity.PurchaseFilter) (string, []any) {
	where := ` WHERE TRUE`
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where += fmt.Sprintf(cond, len(args))
	}
	if f.SupplierID != "" {
		add(` AND p.supplier_id = $%d`, f.SupplierID)
	}
	if f.WarehouseID != "" {
		add(` AND p.warehouse_id = $%d`, f.WarehouseID)
	}
	if f.Status != "" {
		add(` AND p.status = $%d`, f.Status)
	}
	if f.From != nil {
		add(` AND p.created_at >= $%d`, *f.From)
	}
	if f.To != nil {
		add(` AND p.created_at < $%d`, *f.To)
	}
	return where, args
}

// List lista compras más recientes primero.
func (r *PurchaseRepo) List(ctx context.Context, f entity.PurchaseFilter) ([]*entity.Purchase, error) {
	where, args := purchaseWhere(f)
	query := `SELECT ` + purchaseColumns + ` FROM purchases p` + where + ` ORDER BY p.created_at DESC, p.id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	var list []*entity.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		list = append(list, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range list {
		if p.Lines, err = r.lines(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// Dashboard resume las compras REGISTERED del rango: totales y top por proveedor, bodega y producto.
func (r *PurchaseRepo) Dashboard(ctx context.Context, f entity.PurchaseFilter) (*entity.PurchaseDashboard, error) {
	f.Status = entity.PurchaseRegistered
	where, args := purchaseWhere(f)
	d := &entity.PurchaseDashboard{}
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(p.total), 0), COUNT(*) FROM purchases p`+where, args...).
		Scan(&d.TotalAmount, &d.PurchaseCount)
	if err != nil {
		return nil, fmt.Errorf("purchase totals: %w", err)
	}
	limit := fmt.Sprintf(` LIMIT %d`, dashboardTop)
	if d.BySupplier, err = r.aggregates(ctx, `
		SELECT s.id, s.name, SUM(p.total), 0::numeric, COUNT(*)
		FROM purchases p JOIN suppliers s ON s.id = p.supplier_id`+where+`
		GROUP BY s.id, s.name ORDER BY 3 DESC, s.id`+limit, args); err != nil {
		return nil, err
	}
	if d.ByWarehouse, err = r.aggregates(ctx, `
		SELECT w.id, w.name, SUM(p.total), 0::numeric, COUNT(*)
		FROM purchases p JOIN warehouses w ON w.id = p.warehouse_id`+where+`
		GROUP BY w.id, w.name ORDER BY 3 DESC, w.id`+limit, args); err != nil {
		return nil, err
	}
	if d.TopProducts, err = r.aggregates(ctx, `
		SELECT pr.id, pr.name, SUM(l.subtotal), SUM(l.quantity), COUNT(*)
		FROM purchase_lines l
		JOIN purchases p ON p.id = l.purchase_id
		JOIN products pr ON pr.id = l.product_id`+where+`
		GROUP BY pr.id, pr.name ORDER BY 4 DESC, pr.id`+limit, args); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *PurchaseRepo) aggregates(ctx context.Context, query string, args []any) ([]entity.PurchaseAggregate, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("purchase aggregates: %w", err)
	}
	defer rows.Close()
	var out []entity.PurchaseAggregate
	for rows.Next() {
		var (
			a           entity.PurchaseAggregate
			amount, qty decimal.Decimal
		)
		if err := rows.Scan(&a.ID, &a.Name, &amount, &qty, &a.Count); err != nil {
			return nil, fmt.Errorf("scan purchase aggregate: %w", err)
		}
		a.Amount, a.Quantity = amount, qty
		out = append(out, a)
	}
	return out, rows.Err()
}

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

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, sku, name, tax_rate, price, cost_ref, serialized, active, created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.TaxRate, &p.Price, &p.CostRef,
		&p.Serialized, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID obtiene un producto por ID. Devuelve (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// UpdateCostRef actualiza el costo de referencia.
func (r *ProductRepo) UpdateCostRef(ctx context.Context, productID string, cost decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE products SET cost_ref = $2, updated_at = now() WHERE id = $1`, productID, cost)
	if err != nil {
		return fmt.Errorf("update cost_ref: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	return nil
}

// List lista productos filtrando por SKU o nombre.
func (r *ProductRepo) List(ctx context.Context, f entity.CatalogFilter) ([]*entity.Product, error) {
	query, args := catalogQuery(`SELECT `+productColumns+` FROM products`, []string{"sku", "name"}, f)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// catalogQuery agrega búsqueda, filtro de activos, orden por nombre y paginación.
func catalogQuery(base string, searchColumns []string, f entity.CatalogFilter) (string, []any) {
	query := base + ` WHERE TRUE`
	var args []any
	if pattern := likePattern(f.Search); pattern != "" {
		args = append(args, pattern)
		query += ` AND (`
		for i, col := range searchColumns {
			if i > 0 {
				query += ` OR `
			}
			query += fmt.Sprintf(`%s ILIKE $%d`, col, len(args))
		}
		query += `)`
	}
	if f.ActiveOnly {
		query += ` AND active`
	}
	query += ` ORDER BY name, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}
	return query, args
}

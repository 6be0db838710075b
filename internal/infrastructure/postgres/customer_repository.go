package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var (
	_ repository.CustomerRepository = (*CustomerRepo)(nil)
	_ repository.SupplierRepository = (*SupplierRepo)(nil)
)

// partyColumns columnas comunes de clientes y proveedores.
const partyColumns = `id, name, tax_id, phone, email, active, created_at`

// CustomerRepo implementación de CustomerRepository sobre PostgreSQL.
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

func scanCustomer(row pgx.Row) (*entity.Customer, error) {
	var (
		c entity.Customer
		taxID, phone, email *string
	)
	if err := row.Scan(&c.ID, &c.Name, &taxID, &phone, &email, &c.Active, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.TaxID, c.Phone, c.Email = deref(taxID), deref(phone), deref(email)
	return &c, nil
}

// GetByID obtiene un cliente. Devuelve (nil, nil) si no existe.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	c, err := scanCustomer(r.q.QueryRow(ctx, `SELECT `+partyColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// List lista clientes buscando por nombre o NIT.
func (r *CustomerRepo) List(ctx context.Context, f entity.CatalogFilter) ([]*entity.Customer, error) {
	query, args := catalogQuery(`SELECT `+partyColumns+` FROM customers`, []string{"name", "tax_id"}, f)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// SupplierRepo implementación de SupplierRepository sobre PostgreSQL.
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el adaptador de proveedores.
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

func scanSupplier(row pgx.Row) (*entity.Supplier, error) {
	var (
		s entity.Supplier
		taxID, phone, email *string
	)
	if err := row.Scan(&s.ID, &s.Name, &taxID, &phone, &email, &s.Active, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.TaxID, s.Phone, s.Email = deref(taxID), deref(phone), deref(email)
	return &s, nil
}

// GetByID obtiene un proveedor. Devuelve (nil, nil) si no existe.
func (r *SupplierRepo) GetByID(ctx context.Context, id string) (*entity.Supplier, error) {
	s, err := scanSupplier(r.q.QueryRow(ctx, `SELECT `+partyColumns+` FROM suppliers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return s, nil
}

// List lista proveedores buscando por nombre o NIT.
func (r *SupplierRepo) List(ctx context.Context, f entity.CatalogFilter) ([]*entity.Supplier, error) {
	query, args := catalogQuery(`SELECT `+partyColumns+` FROM suppliers`, []string{"name", "tax_id"}, f)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

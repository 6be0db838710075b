package repository

import (
	"context"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para clientes.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	List(ctx context.Context, f entity.CatalogFilter) ([]*entity.Customer, error)
}

// SupplierRepository define el puerto de persistencia para proveedores.
type SupplierRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Supplier, error)
	List(ctx context.Context, f entity.CatalogFilter) ([]*entity.Supplier, error)
}

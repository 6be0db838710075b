package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product.
// GetByID devuelve (nil, nil) si el producto no existe.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	UpdateCostRef(ctx context.Context, productID string, cost decimal.Decimal) error
	List(ctx context.Context, f entity.CatalogFilter) ([]*entity.Product, error)
}

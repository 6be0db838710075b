package repository

import (
	"context"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// OrderRepository define el puerto de pedidos (cabecera + líneas).
type OrderRepository interface {
	Create(ctx context.Context, o *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// GetForUpdate bloquea la cabecera y carga las líneas.
	GetForUpdate(ctx context.Context, id string) (*entity.Order, error)
	ReplaceLines(ctx context.Context, o *entity.Order) error
	UpdateStatus(ctx context.Context, o *entity.Order) error
	List(ctx context.Context, f entity.OrderFilter) ([]*entity.Order, error)
}

// SaleRepository define el puerto de ventas.
type SaleRepository interface {
	Create(ctx context.Context, s *entity.Sale) error
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

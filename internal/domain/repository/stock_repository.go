package repository

import (
	"context"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// StockRepository define el puerto de existencias por (producto, bodega).
// Las lecturas de una fila inexistente devuelven Stock en cero con Exists=false.
type StockRepository interface {
	Get(ctx context.Context, productID, warehouseID string) (*entity.Stock, bool, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE). No crea filas.
	GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.Stock, bool, error)
	// EnsureForUpdate crea la fila en cero si falta y la bloquea.
	EnsureForUpdate(ctx context.Context, productID, warehouseID string) (*entity.Stock, error)
	Save(ctx context.Context, stock *entity.Stock) error
	List(ctx context.Context, f entity.StockFilter) ([]*entity.Stock, error)
}

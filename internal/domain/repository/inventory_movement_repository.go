package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// InventoryMovementRepository define el puerto del kardex. Solo inserta, nunca modifica.
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	ListByDocument(ctx context.Context, documentType, documentID string) ([]*entity.InventoryMovement, error)
	Kardex(ctx context.Context, f entity.KardexFilter) ([]*entity.InventoryMovement, error)
	// SumQuantity suma las cantidades firmadas del par (producto, bodega).
	SumQuantity(ctx context.Context, productID, warehouseID string) (decimal.Decimal, error)
}

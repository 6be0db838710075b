package repository

import (
	"context"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// PurchaseRepository define el puerto de compras.
type PurchaseRepository interface {
	Create(ctx context.Context, p *entity.Purchase) error
	GetByID(ctx context.Context, id string) (*entity.Purchase, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Purchase, error)
	ExistsDocument(ctx context.Context, supplierID, documentNumber string) (bool, error)
	MarkVoided(ctx context.Context, p *entity.Purchase) error
	List(ctx context.Context, f entity.PurchaseFilter) ([]*entity.Purchase, error)
	Dashboard(ctx context.Context, f entity.PurchaseFilter) (*entity.PurchaseDashboard, error)
}

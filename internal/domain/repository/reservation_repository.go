package repository

import (
	"context"
	"time"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// ReservationRepository define el puerto de reservas de stock y de series.
type ReservationRepository interface {
	Create(ctx context.Context, r *entity.Reservation) error
	// ListActiveByOrderForUpdate bloquea las reservas ACTIVE del pedido.
	ListActiveByOrderForUpdate(ctx context.Context, orderID string) ([]*entity.Reservation, error)
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
	// ListExpiredOrderIDs devuelve pedidos con reservas ACTIVE vencidas antes de now.
	ListExpiredOrderIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// SerialUnitRepository define el puerto de unidades serializadas.
type SerialUnitRepository interface {
	Create(ctx context.Context, u *entity.SerialUnit) error
	GetForUpdate(ctx context.Context, id string) (*entity.SerialUnit, error)
	Update(ctx context.Context, u *entity.SerialUnit) error
	ListByPurchaseForUpdate(ctx context.Context, purchaseID string) ([]*entity.SerialUnit, error)
	ExistsSerial(ctx context.Context, productID, serial string) (bool, error)
}

package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// Reservations es la capa de reservas sobre el Ledger. Toda operación recibe filas ya
// bloqueadas por el llamador para que el chequeo de disponible y la retención ocurran
// bajo el mismo lock.
type Reservations struct {
	ledger *Ledger
	ttl    time.Duration
}

// NewReservations construye la capa de reservas con la vigencia por defecto ttl.
func NewReservations(ledger *Ledger, ttl time.Duration) *Reservations {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Reservations{ledger: ledger, ttl: ttl}
}

// TTL vigencia de las reservas nuevas.
func (r *Reservations) TTL() time.Duration { return r.ttl }

// ReserveOrder retiene stock para cada línea del pedido. Las líneas con series reservan
// cada unidad por separado (cantidad 1).
func (r *Reservations) ReserveOrder(ctx context.Context, repos repository.TxRepos, rows LockedStock, order *entity.Order, now time.Time) ([]*entity.Reservation, error) {
	expires := now.Add(r.ttl)
	var out []*entity.Reservation
	for _, line := range order.Lines {
		key := entity.StockKey{ProductID: line.ProductID, WarehouseID: order.WarehouseID}
		if len(line.SerialIDs) == 0 {
			if err := r.ledger.Hold(ctx, repos.Stock, rows, key, line.Quantity); err != nil {
				return nil, err
			}
			res := newReservation(order, line, line.Quantity, "", expires, now)
			if err := repos.Reservations.Create(ctx, res); err != nil {
				return nil, err
			}
			out = append(out, res)
			continue
		}
		units, err := lockSerials(ctx, repos.Serials, line.SerialIDs)
		if err != nil {
			return nil, err
		}
		for _, u := range units {
			if u.Status != entity.SerialInStock || u.WarehouseID != order.WarehouseID || u.ProductID != line.ProductID {
				return nil, &domain.StockError{
					ProductID: line.ProductID, WarehouseID: order.WarehouseID,
					Requested: decimal.NewFromInt(1), Available: decimal.Zero,
				}
			}
			if err := r.ledger.Hold(ctx, repos.Stock, rows, key, decimal.NewFromInt(1)); err != nil {
				return nil, err
			}
			u.Status = entity.SerialReserved
			u.OrderID = order.ID
			u.UpdatedAt = now
			if err := repos.Serials.Update(ctx, u); err != nil {
				return nil, err
			}
			res := newReservation(order, line, decimal.NewFromInt(1), u.ID, expires, now)
			if err := repos.Reservations.Create(ctx, res); err != nil {
				return nil, err
			}
			out = append(out, res)
		}
	}
	return out, nil
}

// ConsumeOrder convierte las reservas activas del pedido en salidas SALE y las marca CONSUMED.
func (r *Reservations) ConsumeOrder(ctx context.Context, repos repository.TxRepos, rows LockedStock, orderID string, base Entry, costs map[string]decimal.Decimal, now time.Time) ([]*entity.InventoryMovement, error) {
	active, err := repos.Reservations.ListActiveByOrderForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, &domain.OrderError{OrderID: orderID, Reason: "no tiene reservas activas", Kind: domain.ErrConflict}
	}
	movs := make([]*entity.InventoryMovement, 0, len(active))
	for _, res := range active {
		e := base
		e.ProductID = res.ProductID
		e.WarehouseID = res.WarehouseID
		e.Quantity = res.Quantity
		e.UnitCost = costs[res.ProductID]
		if res.SerialUnitID != "" {
			u, err := repos.Serials.GetForUpdate(ctx, res.SerialUnitID)
			if err != nil {
				return nil, err
			}
			if u == nil {
				return nil, fmt.Errorf("serie %s de la reserva %s no existe", res.SerialUnitID, res.ID)
			}
			u.Status = entity.SerialDispatched
			u.SaleID = base.DocumentID
			u.UpdatedAt = now
			if err := repos.Serials.Update(ctx, u); err != nil {
				return nil, err
			}
			e.Reference = base.Reference + " SERIE " + u.Serial
		}
		mov, err := r.ledger.ConsumeHeld(ctx, repos, rows, e)
		if err != nil {
			return nil, err
		}
		movs = append(movs, mov)
		if err := repos.Reservations.UpdateStatus(ctx, res.ID, entity.ReservationConsumed, now); err != nil {
			return nil, err
		}
	}
	return movs, nil
}

// ReleaseOrder libera las reservas activas del pedido con el estado final indicado
// (RELEASED al cancelar, EXPIRED al vencer). Devuelve cuántas liberó.
func (r *Reservations) ReleaseOrder(ctx context.Context, repos repository.TxRepos, rows LockedStock, orderID, status string, now time.Time) (int, error) {
	active, err := repos.Reservations.ListActiveByOrderForUpdate(ctx, orderID)
	if err != nil {
		return 0, err
	}
	for _, res := range active {
		if err := r.ledger.Unhold(ctx, repos.Stock, rows, res.Key(), res.Quantity); err != nil {
			return 0, err
		}
		if res.SerialUnitID != "" {
			u, err := repos.Serials.GetForUpdate(ctx, res.SerialUnitID)
			if err != nil {
				return 0, err
			}
			if u != nil && u.Status == entity.SerialReserved {
				u.Status = entity.SerialInStock
				u.OrderID = ""
				u.UpdatedAt = now
				if err := repos.Serials.Update(ctx, u); err != nil {
					return 0, err
				}
			}
		}
		if err := repos.Reservations.UpdateStatus(ctx, res.ID, status, now); err != nil {
			return 0, err
		}
	}
	return len(active), nil
}

// DispatchSerials marca como despachadas unidades vendidas sin reserva previa.
func DispatchSerials(ctx context.Context, repo repository.SerialUnitRepository, ids []string, productID, warehouseID, saleID string, now time.Time) ([]*entity.SerialUnit, error) {
	units, err := lockSerials(ctx, repo, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range units {
		if u.Status != entity.SerialInStock || u.WarehouseID != warehouseID || u.ProductID != productID {
			return nil, &domain.StockError{
				ProductID: productID, WarehouseID: warehouseID,
				Requested: decimal.NewFromInt(1), Available: decimal.Zero,
			}
		}
		u.Status = entity.SerialDispatched
		u.SaleID = saleID
		u.UpdatedAt = now
		if err := repo.Update(ctx, u); err != nil {
			return nil, err
		}
	}
	return units, nil
}

// lockSerials bloquea las unidades en orden de id para no cruzar locks entre pedidos.
func lockSerials(ctx context.Context, repo repository.SerialUnitRepository, ids []string) ([]*entity.SerialUnit, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	units := make([]*entity.SerialUnit, 0, len(sorted))
	for i, id := range sorted {
		if i > 0 && sorted[i-1] == id {
			return nil, fmt.Errorf("serie %s repetida: %w", id, domain.ErrInvalidInput)
		}
		u, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, fmt.Errorf("serie %s: %w", id, domain.ErrNotFound)
		}
		units = append(units, u)
	}
	return units, nil
}

func newReservation(order *entity.Order, line entity.OrderLine, qty decimal.Decimal, serialID string, expires, now time.Time) *entity.Reservation {
	return &entity.Reservation{
		ID:           uuid.New().String(),
		OrderID:      order.ID,
		OrderLineID:  line.ID,
		ProductID:    line.ProductID,
		WarehouseID:  order.WarehouseID,
		Quantity:     entity.Qty(qty),
		SerialUnitID: serialID,
		Status:       entity.ReservationActive,
		ExpiresAt:    expires,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

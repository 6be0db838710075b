package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var (
	_ repository.ReservationRepository = (*ReservationRepo)(nil)
	_ repository.SerialUnitRepository  = (*SerialUnitRepo)(nil)
)

// ReservationRepo implementación de ReservationRepository sobre PostgreSQL.
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador de reservas.
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, order_id, order_line_id, product_id, warehouse_id, quantity, serial_unit_id,
	status, expires_at, created_at, updated_at`

// Create persiste una reserva.
func (r *ReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	_, err := r.q.Exec(ctx, `INSERT INTO reservations (`+reservationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		res.ID, res.OrderID, res.OrderLineID, res.ProductID, res.WarehouseID, res.Quantity,
		nullable(res.SerialUnitID), res.Status, res.ExpiresAt, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewDuplicateError("reserva", res.ID)
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

// ListActiveByOrderForUpdate bloquea las reservas ACTIVE del pedido.
func (r *ReservationRepo) ListActiveByOrderForUpdate(ctx context.Context, orderID string) ([]*entity.Reservation, error) {
	rows, err := r.q.Query(ctx, `SELECT `+reservationColumns+` FROM reservations
		WHERE order_id = $1 AND status = $2
		ORDER BY created_at, id
		FOR UPDATE`, orderID, entity.ReservationActive)
	if err != nil {
		return nil, fmt.Errorf("list active reservations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Reservation
	for rows.Next() {
		var (
			res    entity.Reservation
			serial *string
		)
		if err := rows.Scan(&res.ID, &res.OrderID, &res.OrderLineID, &res.ProductID, &res.WarehouseID,
			&res.Quantity, &serial, &res.Status, &res.ExpiresAt, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		res.SerialUnitID = deref(serial)
		list = append(list, &res)
	}
	return list, rows.Err()
}

// UpdateStatus cambia el estado de una reserva.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE reservations SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reserva %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListExpiredOrderIDs devuelve pedidos con reservas ACTIVE vencidas antes de now.
func (r *ReservationRepo) ListExpiredOrderIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		SELECT DISTINCT order_id FROM reservations
		WHERE status = $1 AND expires_at <= $2
		ORDER BY order_id
		LIMIT $3`, entity.ReservationActive, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SerialUnitRepo implementación de SerialUnitRepository sobre PostgreSQL.
type SerialUnitRepo struct {
	q Querier
}

// NewSerialUnitRepository construye el adaptador de unidades serializadas.
func NewSerialUnitRepository(q Querier) *SerialUnitRepo {
	return &SerialUnitRepo{q: q}
}

const serialColumns = `id, product_id, serial, warehouse_id, status, purchase_id, order_id, sale_id, created_at, updated_at`

func scanSerial(row pgx.Row) (*entity.SerialUnit, error) {
	var (
		u                         entity.SerialUnit
		purchaseID, orderID, sale *string
	)
	if err := row.Scan(&u.ID, &u.ProductID, &u.Serial, &u.WarehouseID, &u.Status,
		&purchaseID, &orderID, &sale, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.PurchaseID, u.OrderID, u.SaleID = deref(purchaseID), deref(orderID), deref(sale)
	return &u, nil
}

// Create persiste una unidad. La serie es única por producto.
func (r *SerialUnitRepo) Create(ctx context.Context, u *entity.SerialUnit) error {
	_, err := r.q.Exec(ctx, `INSERT INTO serial_units (`+serialColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.ProductID, u.Serial, u.WarehouseID, u.Status,
		nullable(u.PurchaseID), nullable(u.OrderID), nullable(u.SaleID), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewDuplicateError("serie", u.Serial)
		}
		return fmt.Errorf("create serial unit: %w", err)
	}
	return nil
}

// GetForUpdate bloquea la unidad. Devuelve (nil, nil) si no existe.
func (r *SerialUnitRepo) GetForUpdate(ctx context.Context, id string) (*entity.SerialUnit, error) {
	u, err := scanSerial(r.q.QueryRow(ctx, `SELECT `+serialColumns+` FROM serial_units WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get serial unit: %w", err)
	}
	return u, nil
}

// Update guarda estado y referencias de la unidad.
func (r *SerialUnitRepo) Update(ctx context.Context, u *entity.SerialUnit) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE serial_units
		SET warehouse_id = $2, status = $3, order_id = $4, sale_id = $5, updated_at = $6
		WHERE id = $1`,
		u.ID, u.WarehouseID, u.Status, nullable(u.OrderID), nullable(u.SaleID), u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update serial unit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("serie %s: %w", u.ID, domain.ErrNotFound)
	}
	return nil
}

// ListByPurchaseForUpdate bloquea las unidades ingresadas por una compra.
func (r *SerialUnitRepo) ListByPurchaseForUpdate(ctx context.Context, purchaseID string) ([]*entity.SerialUnit, error) {
	rows, err := r.q.Query(ctx, `SELECT `+serialColumns+` FROM serial_units
		WHERE purchase_id = $1 ORDER BY id FOR UPDATE`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("list serial units: %w", err)
	}
	defer rows.Close()
	var list []*entity.SerialUnit
	for rows.Next() {
		u, err := scanSerial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan serial unit: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// ExistsSerial indica si la serie ya fue registrada para el producto.
func (r *SerialUnitRepo) ExistsSerial(ctx context.Context, productID, serial string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM serial_units WHERE product_id = $1 AND serial = $2)`,
		productID, serial).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists serial: %w", err)
	}
	return exists, nil
}

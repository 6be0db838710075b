package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// ─── Existencias ─────────────────────────────────────────────────────────────

type stockRepo struct{ a accessor }

func (r stockRepo) Get(_ context.Context, productID, warehouseID string) (*entity.Stock, bool, error) {
	var (
		out    *entity.Stock
		exists bool
	)
	err := r.a.read(func(st *state) error {
		s, ok := st.stock[entity.StockKey{ProductID: productID, WarehouseID: warehouseID}]
		if !ok {
			s = entity.Stock{ProductID: productID, WarehouseID: warehouseID, OnHand: decimal.Zero, Reserved: decimal.Zero}
		}
		out, exists = &s, ok
		return nil
	})
	return out, exists, err
}

// GetForUpdate equivale a Get: la transacción ya tiene el almacén en exclusiva.
func (r stockRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.Stock, bool, error) {
	return r.Get(ctx, productID, warehouseID)
}

func (r stockRepo) EnsureForUpdate(_ context.Context, productID, warehouseID string) (*entity.Stock, error) {
	var out *entity.Stock
	err := r.a.write(func(st *state) error {
		k := entity.StockKey{ProductID: productID, WarehouseID: warehouseID}
		s, ok := st.stock[k]
		if !ok {
			s = entity.Stock{ProductID: productID, WarehouseID: warehouseID, OnHand: decimal.Zero, Reserved: decimal.Zero, UpdatedAt: time.Now()}
			st.stock[k] = s
		}
		out = &s
		return nil
	})
	return out, err
}

func (r stockRepo) Save(_ context.Context, s *entity.Stock) error {
	if s.OnHand.IsNegative() || s.Reserved.IsNegative() || s.Reserved.GreaterThan(s.OnHand) {
		// mismas restricciones CHECK que la tabla stock
		return fmt.Errorf("stock %s/%s: on_hand=%s reserved=%s viola restricción", s.ProductID, s.WarehouseID, s.OnHand, s.Reserved)
	}
	return r.a.write(func(st *state) error {
		st.stock[s.Key()] = *s
		return nil
	})
}

func (r stockRepo) List(_ context.Context, f entity.StockFilter) ([]*entity.Stock, error) {
	var out []*entity.Stock
	err := r.a.read(func(st *state) error {
		for k, s := range st.stock {
			s := s
			if f.ProductID != "" && k.ProductID != f.ProductID {
				continue
			}
			if f.WarehouseID != "" && k.WarehouseID != f.WarehouseID {
				continue
			}
			out = append(out, &s)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out, err
}

// ─── Kardex ──────────────────────────────────────────────────────────────────

type movementRepo struct{ a accessor }

func (r movementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	if (m.SourceWarehouseID == "") == (m.DestWarehouseID == "") {
		return fmt.Errorf("movimiento %s: debe tener exactamente una bodega origen o destino", m.ID)
	}
	return r.a.write(func(st *state) error {
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r movementRepo) ListByDocument(_ context.Context, documentType, documentID string) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	err := r.a.read(func(st *state) error {
		for _, m := range st.movements {
			m := m
			if m.DocumentType == documentType && m.DocumentID == documentID {
				out = append(out, &m)
			}
		}
		return nil
	})
	return out, err
}

func (r movementRepo) Kardex(_ context.Context, f entity.KardexFilter) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	err := r.a.read(func(st *state) error {
		for _, m := range st.movements {
			m := m
			if m.ProductID != f.ProductID {
				continue
			}
			if f.WarehouseID != "" && m.WarehouseID() != f.WarehouseID {
				continue
			}
			if f.From != nil && m.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && !m.CreatedAt.Before(*f.To) {
				continue
			}
			out = append(out, &m)
		}
		return nil
	})
	// orden de inserción como desempate
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r movementRepo) SumQuantity(_ context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.a.read(func(st *state) error {
		for _, m := range st.movements {
			if m.ProductID == productID && m.WarehouseID() == warehouseID {
				sum = sum.Add(m.Quantity)
			}
		}
		return nil
	})
	return sum, err
}

// ─── Reservas ────────────────────────────────────────────────────────────────

type reservationRepo struct{ a accessor }

func (r reservationRepo) Create(_ context.Context, res *entity.Reservation) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.reservations[res.ID]; ok {
			return domain.NewDuplicateError("reserva", res.ID)
		}
		st.reservations[res.ID] = *res
		return nil
	})
}

func (r reservationRepo) ListActiveByOrderForUpdate(_ context.Context, orderID string) ([]*entity.Reservation, error) {
	var out []*entity.Reservation
	err := r.a.read(func(st *state) error {
		for _, res := range st.reservations {
			res := res
			if res.OrderID == orderID && res.Status == entity.ReservationActive {
				out = append(out, &res)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r reservationRepo) UpdateStatus(_ context.Context, id, status string, at time.Time) error {
	return r.a.write(func(st *state) error {
		res, ok := st.reservations[id]
		if !ok {
			return fmt.Errorf("reserva %s: %w", id, domain.ErrNotFound)
		}
		res.Status = status
		res.UpdatedAt = at
		st.reservations[id] = res
		return nil
	})
}

func (r reservationRepo) ListExpiredOrderIDs(_ context.Context, now time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.a.read(func(st *state) error {
		seen := map[string]bool{}
		for _, res := range st.reservations {
			if res.Expired(now) && !seen[res.OrderID] {
				seen[res.OrderID] = true
				ids = append(ids, res.OrderID)
			}
		}
		return nil
	})
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, err
}

// ─── Unidades serializadas ───────────────────────────────────────────────────

type serialRepo struct{ a accessor }

func (r serialRepo) Create(_ context.Context, u *entity.SerialUnit) error {
	return r.a.write(func(st *state) error {
		for _, other := range st.serials {
			if other.ProductID == u.ProductID && other.Serial == u.Serial {
				return domain.NewDuplicateError("serie", u.Serial)
			}
		}
		st.serials[u.ID] = *u
		return nil
	})
}

func (r serialRepo) GetForUpdate(_ context.Context, id string) (*entity.SerialUnit, error) {
	var out *entity.SerialUnit
	err := r.a.read(func(st *state) error {
		if u, ok := st.serials[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r serialRepo) Update(_ context.Context, u *entity.SerialUnit) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.serials[u.ID]; !ok {
			return fmt.Errorf("serie %s: %w", u.ID, domain.ErrNotFound)
		}
		st.serials[u.ID] = *u
		return nil
	})
}

func (r serialRepo) ListByPurchaseForUpdate(_ context.Context, purchaseID string) ([]*entity.SerialUnit, error) {
	var out []*entity.SerialUnit
	err := r.a.read(func(st *state) error {
		for _, u := range st.serials {
			u := u
			if u.PurchaseID == purchaseID {
				out = append(out, &u)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r serialRepo) ExistsSerial(_ context.Context, productID, serial string) (bool, error) {
	found := false
	err := r.a.read(func(st *state) error {
		for _, u := range st.serials {
			if u.ProductID == productID && u.Serial == serial {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

func copyOrder(o entity.Order) entity.Order {
	lines := make([]entity.OrderLine, len(o.Lines))
	for i, l := range o.Lines {
		l.SerialIDs = append([]string(nil), l.SerialIDs...)
		lines[i] = l
	}
	o.Lines = lines
	return o
}

func copySale(s entity.Sale) entity.Sale {
	s.Lines = append([]entity.SaleLine(nil), s.Lines...)
	return s
}

// ─── Pedidos ─────────────────────────────────────────────────────────────────

type orderRepo struct{ a accessor }

func (r orderRepo) Create(_ context.Context, o *entity.Order) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.orders[o.ID]; ok {
			return domain.NewDuplicateError("pedido", o.ID)
		}
		st.orders[o.ID] = copyOrder(*o)
		return nil
	})
}

func (r orderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	var out *entity.Order
	err := r.a.read(func(st *state) error {
		if o, ok := st.orders[id]; ok {
			c := copyOrder(o)
			out = &c
		}
		return nil
	})
	return out, err
}

func (r orderRepo) GetForUpdate(ctx context.Context, id string) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

func (r orderRepo) ReplaceLines(_ context.Context, o *entity.Order) error {
	return r.a.write(func(st *state) error {
		cur, ok := st.orders[o.ID]
		if !ok {
			return domain.NewOrderNotFound(o.ID)
		}
		c := copyOrder(*o)
		cur.Lines = c.Lines
		cur.Total = o.Total
		cur.UpdatedAt = o.UpdatedAt
		st.orders[o.ID] = cur
		return nil
	})
}

func (r orderRepo) UpdateStatus(_ context.Context, o *entity.Order) error {
	return r.a.write(func(st *state) error {
		cur, ok := st.orders[o.ID]
		if !ok {
			return domain.NewOrderNotFound(o.ID)
		}
		cur.Status = o.Status
		cur.SaleID = o.SaleID
		cur.Notes = o.Notes
		cur.UpdatedAt = o.UpdatedAt
		st.orders[o.ID] = cur
		return nil
	})
}

func (r orderRepo) List(_ context.Context, f entity.OrderFilter) ([]*entity.Order, error) {
	var out []*entity.Order
	err := r.a.read(func(st *state) error {
		for _, o := range st.orders {
			if f.CustomerID != "" && o.CustomerID != f.CustomerID {
				continue
			}
			if f.Status != "" && o.Status != f.Status {
				continue
			}
			if f.From != nil && o.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && !o.CreatedAt.Before(*f.To) {
				continue
			}
			c := copyOrder(o)
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, err
}

// ─── Ventas ──────────────────────────────────────────────────────────────────

type saleRepo struct{ a accessor }

func (r saleRepo) Create(_ context.Context, s *entity.Sale) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.sales[s.ID]; ok {
			return domain.NewDuplicateError("venta", s.ID)
		}
		st.sales[s.ID] = copySale(*s)
		return nil
	})
}

func (r saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.a.read(func(st *state) error {
		if s, ok := st.sales[id]; ok {
			c := copySale(s)
			out = &c
		}
		return nil
	})
	return out, err
}

func (r saleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r saleRepo) UpdateStatus(_ context.Context, id, status string) error {
	return r.a.write(func(st *state) error {
		s, ok := st.sales[id]
		if !ok {
			return fmt.Errorf("venta %s: %w", id, domain.ErrNotFound)
		}
		s.Status = status
		st.sales[id] = s
		return nil
	})
}

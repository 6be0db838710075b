package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

const dashboardTop = 10

func copyPurchase(p entity.Purchase) entity.Purchase {
	lines := make([]entity.PurchaseLine, len(p.Lines))
	for i, l := range p.Lines {
		l.Serials = append([]string(nil), l.Serials...)
		lines[i] = l
	}
	p.Lines = lines
	if p.VoidedAt != nil {
		t := *p.VoidedAt
		p.VoidedAt = &t
	}
	return p
}

type purchaseRepo struct{ a accessor }

func (r purchaseRepo) Create(_ context.Context, p *entity.Purchase) error {
	return r.a.write(func(st *state) error {
		for _, other := range st.purchases {
			if other.SupplierID == p.SupplierID && other.DocumentNumber == p.DocumentNumber {
				return domain.NewDuplicateError("compra", p.SupplierID+"/"+p.DocumentNumber)
			}
		}
		st.purchases[p.ID] = copyPurchase(*p)
		return nil
	})
}

func (r purchaseRepo) GetByID(_ context.Context, id string) (*entity.Purchase, error) {
	var out *entity.Purchase
	err := r.a.read(func(st *state) error {
		if p, ok := st.purchases[id]; ok {
			c := copyPurchase(p)
			out = &c
		}
		return nil
	})
	return out, err
}

func (r purchaseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Purchase, error) {
	return r.GetByID(ctx, id)
}

func (r purchaseRepo) ExistsDocument(_ context.Context, supplierID, documentNumber string) (bool, error) {
	found := false
	err := r.a.read(func(st *state) error {
		for _, p := range st.purchases {
			if p.SupplierID == supplierID && p.DocumentNumber == documentNumber {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r purchaseRepo) MarkVoided(_ context.Context, p *entity.Purchase) error {
	return r.a.write(func(st *state) error {
		cur, ok := st.purchases[p.ID]
		if !ok {
			return fmt.Errorf("compra %s: %w", p.ID, domain.ErrNotFound)
		}
		cur.Status = p.Status
		cur.Notes = p.Notes
		if p.VoidedAt != nil {
			t := *p.VoidedAt
			cur.VoidedAt = &t
		}
		st.purchases[p.ID] = cur
		return nil
	})
}

func (r purchaseRepo) List(_ context.Context, f entity.PurchaseFilter) ([]*entity.Purchase, error) {
	var out []*entity.Purchase
	err := r.a.read(func(st *state) error {
		for _, p := range st.purchases {
			if !purchaseMatches(p, f) {
				continue
			}
			c := copyPurchase(p)
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

func (r purchaseRepo) Dashboard(_ context.Context, f entity.PurchaseFilter) (*entity.PurchaseDashboard, error) {
	f.Status = entity.PurchaseRegistered
	d := &entity.PurchaseDashboard{TotalAmount: decimal.Zero}
	err := r.a.read(func(st *state) error {
		suppliers := map[string]*entity.PurchaseAggregate{}
		warehouses := map[string]*entity.PurchaseAggregate{}
		products := map[string]*entity.PurchaseAggregate{}
		for _, p := range st.purchases {
			if !purchaseMatches(p, f) {
				continue
			}
			d.PurchaseCount++
			d.TotalAmount = d.TotalAmount.Add(p.Total)
			addAggregate(suppliers, p.SupplierID, st.suppliers[p.SupplierID].Name, p.Total, decimal.Zero)
			addAggregate(warehouses, p.WarehouseID, st.warehouses[p.WarehouseID].Name, p.Total, decimal.Zero)
			for _, l := range p.Lines {
				addAggregate(products, l.ProductID, st.products[l.ProductID].Name, l.Subtotal, l.Quantity)
			}
		}
		d.BySupplier = topAggregates(suppliers, false)
		d.ByWarehouse = topAggregates(warehouses, false)
		d.TopProducts = topAggregates(products, true)
		return nil
	})
	return d, err
}

func purchaseMatches(p entity.Purchase, f entity.PurchaseFilter) bool {
	if f.SupplierID != "" && p.SupplierID != f.SupplierID {
		return false
	}
	if f.WarehouseID != "" && p.WarehouseID != f.WarehouseID {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.From != nil && p.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !p.CreatedAt.Before(*f.To) {
		return false
	}
	return true
}

func addAggregate(m map[string]*entity.PurchaseAggregate, id, name string, amount, qty decimal.Decimal) {
	a, ok := m[id]
	if !ok {
		a = &entity.PurchaseAggregate{ID: id, Name: name, Amount: decimal.Zero, Quantity: decimal.Zero}
		m[id] = a
	}
	a.Amount = a.Amount.Add(amount)
	a.Quantity = a.Quantity.Add(qty)
	a.Count++
}

func topAggregates(m map[string]*entity.PurchaseAggregate, byQuantity bool) []entity.PurchaseAggregate {
	out := make([]entity.PurchaseAggregate, 0, len(m))
	for _, a := range m {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		vi, vj := out[i].Amount, out[j].Amount
		if byQuantity {
			vi, vj = out[i].Quantity, out[j].Quantity
		}
		if !vi.Equal(vj) {
			return vi.GreaterThan(vj)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > dashboardTop {
		out = out[:dashboardTop]
	}
	return out
}

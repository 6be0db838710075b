package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// ─── Carga de datos de referencia ────────────────────────────────────────────

// AddProduct registra un producto del catálogo.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.products[p.ID] = p
}

// AddWarehouse registra una bodega.
func (s *Store) AddWarehouse(w entity.Warehouse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.warehouses[w.ID] = w
}

// AddCustomer registra un cliente.
func (s *Store) AddCustomer(c entity.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.customers[c.ID] = c
}

// AddSupplier registra un proveedor.
func (s *Store) AddSupplier(p entity.Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.suppliers[p.ID] = p
}

// AddCashBox registra una caja.
func (s *Store) AddCashBox(b entity.CashBox) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.cashBoxes[b.ID] = b
}

// AddUser registra un usuario. El username debe ser único sin distinguir mayúsculas.
func (s *Store) AddUser(u entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.state.users {
		if strings.EqualFold(other.Username, u.Username) && other.ID != u.ID {
			return domain.NewDuplicateError("usuario", u.Username)
		}
	}
	u.Roles = append([]string(nil), u.Roles...)
	s.state.users[u.ID] = u
	return nil
}

// CashMovements devuelve los movimientos de caja confirmados.
func (s *Store) CashMovements() []entity.CashMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.CashMovement(nil), s.state.cashMoves...)
}

// ─── Productos ───────────────────────────────────────────────────────────────

type productRepo struct{ a accessor }

func (r productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.a.read(func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r productRepo) UpdateCostRef(_ context.Context, productID string, cost decimal.Decimal) error {
	return r.a.write(func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
		}
		p.CostRef = cost
		st.products[productID] = p
		return nil
	})
}

func (r productRepo) List(_ context.Context, f entity.CatalogFilter) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.a.read(func(st *state) error {
		for _, p := range st.products {
			p := p
			if f.ActiveOnly && !p.Active {
				continue
			}
			if !matches(f.Search, p.Name, p.SKU) {
				continue
			}
			out = append(out, &p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return byName(out[i].Name, out[i].ID, out[j].Name, out[j].ID) })
	return page(out, f), err
}

// ─── Bodegas ─────────────────────────────────────────────────────────────────

type warehouseRepo struct{ a accessor }

func (r warehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.a.read(func(st *state) error {
		if w, ok := st.warehouses[id]; ok {
			out = &w
		}
		return nil
	})
	return out, err
}

func (r warehouseRepo) List(_ context.Context, f entity.CatalogFilter) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	err := r.a.read(func(st *state) error {
		for _, w := range st.warehouses {
			w := w
			if (f.ActiveOnly && !w.Active) || !matches(f.Search, w.Name) {
				continue
			}
			out = append(out, &w)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return byName(out[i].Name, out[i].ID, out[j].Name, out[j].ID) })
	return page(out, f), err
}

// ─── Clientes y proveedores ──────────────────────────────────────────────────

type customerRepo struct{ a accessor }

func (r customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	var out *entity.Customer
	err := r.a.read(func(st *state) error {
		if c, ok := st.customers[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r customerRepo) List(_ context.Context, f entity.CatalogFilter) ([]*entity.Customer, error) {
	var out []*entity.Customer
	err := r.a.read(func(st *state) error {
		for _, c := range st.customers {
			c := c
			if (f.ActiveOnly && !c.Active) || !matches(f.Search, c.Name, c.TaxID) {
				continue
			}
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return byName(out[i].Name, out[i].ID, out[j].Name, out[j].ID) })
	return page(out, f), err
}

type supplierRepo struct{ a accessor }

func (r supplierRepo) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	var out *entity.Supplier
	err := r.a.read(func(st *state) error {
		if s, ok := st.suppliers[id]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

func (r supplierRepo) List(_ context.Context, f entity.CatalogFilter) ([]*entity.Supplier, error) {
	var out []*entity.Supplier
	err := r.a.read(func(st *state) error {
		for _, s := range st.suppliers {
			s := s
			if (f.ActiveOnly && !s.Active) || !matches(f.Search, s.Name, s.TaxID) {
				continue
			}
			out = append(out, &s)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return byName(out[i].Name, out[i].ID, out[j].Name, out[j].ID) })
	return page(out, f), err
}

// ─── Usuarios ────────────────────────────────────────────────────────────────

type userRepo struct{ a accessor }

func (r userRepo) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	var out *entity.User
	err := r.a.read(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Username, username) {
				u.Roles = append([]string(nil), u.Roles...)
				out = &u
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.a.read(func(st *state) error {
		if u, ok := st.users[id]; ok {
			u.Roles = append([]string(nil), u.Roles...)
			out = &u
		}
		return nil
	})
	return out, err
}

func matches(search string, fields ...string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func byName(ni, idi, nj, idj string) bool {
	if ni != nj {
		return ni < nj
	}
	return idi < idj
}

func page[T any](items []T, f entity.CatalogFilter) []T {
	if f.Offset > 0 {
		if f.Offset >= len(items) {
			return nil
		}
		items = items[f.Offset:]
	}
	if f.Limit > 0 && len(items) > f.Limit {
		items = items[:f.Limit]
	}
	return items
}

package catalog

import (
	"context"
	"fmt"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// MaxPage tope de registros por página.
const MaxPage = 100

// UseCase lectura de los catálogos de referencia. Cada CatalogKind tiene su repositorio
// tipado: no hay nombres de tabla construidos a partir de la entrada.
type UseCase struct {
	customers  repository.CustomerRepository
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	suppliers  repository.SupplierRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	customers repository.CustomerRepository,
	products repository.ProductRepository,
	warehouses repository.WarehouseRepository,
	suppliers repository.SupplierRepository,
) *UseCase {
	return &UseCase{customers: customers, products: products, warehouses: warehouses, suppliers: suppliers}
}

// ParseKind traduce el segmento de ruta; un catálogo desconocido es ErrInvalidInput.
func ParseKind(s string) (entity.CatalogKind, error) {
	k, ok := entity.ParseCatalogKind(s)
	if !ok {
		return 0, fmt.Errorf("catálogo %q: %w", s, domain.ErrInvalidInput)
	}
	return k, nil
}

// List devuelve una página del catálogo.
func (uc *UseCase) List(ctx context.Context, kind entity.CatalogKind, q dto.CatalogQuery) (*dto.CatalogListResponse, error) {
	q.DefaultPage()
	if q.Limit > MaxPage {
		q.Limit = MaxPage
	}
	f := entity.CatalogFilter{Search: q.Search, ActiveOnly: q.ActiveOnly, Limit: q.Limit, Offset: q.Offset}

	var items []entity.CatalogItem
	switch kind {
	case entity.CatalogCustomers:
		list, err := uc.customers.List(ctx, f)
		if err != nil {
			return nil, err
		}
		for _, c := range list {
			items = append(items, customerItem(c))
		}
	case entity.CatalogProducts:
		list, err := uc.products.List(ctx, f)
		if err != nil {
			return nil, err
		}
		for _, p := range list {
			items = append(items, productItem(p))
		}
	case entity.CatalogWarehouses:
		list, err := uc.warehouses.List(ctx, f)
		if err != nil {
			return nil, err
		}
		for _, w := range list {
			items = append(items, warehouseItem(w))
		}
	case entity.CatalogSuppliers:
		list, err := uc.suppliers.List(ctx, f)
		if err != nil {
			return nil, err
		}
		for _, s := range list {
			items = append(items, supplierItem(s))
		}
	default:
		return nil, fmt.Errorf("catálogo %s: %w", kind, domain.ErrInvalidInput)
	}

	out := &dto.CatalogListResponse{
		Kind:  kind.String(),
		Items: make([]dto.CatalogItemResponse, 0, len(items)),
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	}
	for _, it := range items {
		out.Items = append(out.Items, dto.CatalogItemFromEntity(it))
	}
	return out, nil
}

// Get devuelve un registro del catálogo por ID.
func (uc *UseCase) Get(ctx context.Context, kind entity.CatalogKind, id string) (*dto.CatalogItemResponse, error) {
	var (
		item  entity.CatalogItem
		found bool
	)
	switch kind {
	case entity.CatalogCustomers:
		c, err := uc.customers.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if found = c != nil; found {
			item = customerItem(c)
		}
	case entity.CatalogProducts:
		p, err := uc.products.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if found = p != nil; found {
			item = productItem(p)
		}
	case entity.CatalogWarehouses:
		w, err := uc.warehouses.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if found = w != nil; found {
			item = warehouseItem(w)
		}
	case entity.CatalogSuppliers:
		s, err := uc.suppliers.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if found = s != nil; found {
			item = supplierItem(s)
		}
	default:
		return nil, fmt.Errorf("catálogo %s: %w", kind, domain.ErrInvalidInput)
	}
	if !found {
		return nil, domain.ErrNotFound
	}
	out := dto.CatalogItemFromEntity(item)
	return &out, nil
}

func customerItem(c *entity.Customer) entity.CatalogItem {
	return entity.CatalogItem{ID: c.ID, Code: c.TaxID, Name: c.Name, Active: c.Active,
		Extra: map[string]string{"email": c.Email, "phone": c.Phone}}
}

func supplierItem(s *entity.Supplier) entity.CatalogItem {
	return entity.CatalogItem{ID: s.ID, Code: s.TaxID, Name: s.Name, Active: s.Active,
		Extra: map[string]string{"email": s.Email, "phone": s.Phone}}
}

func productItem(p *entity.Product) entity.CatalogItem {
	serialized := "false"
	if p.Serialized {
		serialized = "true"
	}
	return entity.CatalogItem{ID: p.ID, Code: p.SKU, Name: p.Name, Active: p.Active,
		Extra: map[string]string{
			"price":      p.Price.StringFixed(2),
			"tax_rate":   p.TaxRate.String(),
			"cost_ref":   p.CostRef.StringFixed(4),
			"serialized": serialized,
		}}
}

func warehouseItem(w *entity.Warehouse) entity.CatalogItem {
	return entity.CatalogItem{ID: w.ID, Name: w.Name, Active: w.Active}
}

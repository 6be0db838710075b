package catalog_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-ledger/internal/application/catalog"
	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/memory"
)

const (
	prodCemento = "10000000-0000-0000-0000-000000000001"
	prodArena   = "10000000-0000-0000-0000-000000000002"
	prodViejo   = "10000000-0000-0000-0000-000000000003"
	customerID  = "30000000-0000-0000-0000-000000000001"
)

func newCatalog(t *testing.T) *catalog.UseCase {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: prodCemento, SKU: "CEM-50", Name: "Cemento gris", Price: decimal.NewFromInt(32000), Serialized: false, Active: true})
	store.AddProduct(entity.Product{ID: prodArena, SKU: "ARE-01", Name: "Arena fina", Price: decimal.NewFromInt(9000), Active: true})
	store.AddProduct(entity.Product{ID: prodViejo, SKU: "OLD-01", Name: "Baldosa descontinuada", Active: false})
	store.AddCustomer(entity.Customer{ID: customerID, Name: "Ferretería Central", TaxID: "900123456", Email: "compras@central.co", Active: true})
	r := store.Repos()
	return catalog.NewUseCase(r.Customers, r.Products, r.Warehouses, r.Suppliers)
}

func TestParseKind_CatalogoCerrado(t *testing.T) {
	k, err := catalog.ParseKind("products")
	require.NoError(t, err)
	assert.Equal(t, entity.CatalogProducts, k)

	_, err = catalog.ParseKind("users")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = catalog.ParseKind("products; DROP TABLE products")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestList_OrdenBusquedaYActivos(t *testing.T) {
	uc := newCatalog(t)
	ctx := context.Background()

	all, err := uc.List(ctx, entity.CatalogProducts, dto.CatalogQuery{})
	require.NoError(t, err)
	assert.Equal(t, "products", all.Kind)
	assert.Equal(t, 20, all.Page.Limit, "límite por defecto")
	require.Len(t, all.Items, 3)
	assert.Equal(t, "Arena fina", all.Items[0].Name, "orden por nombre")

	active, err := uc.List(ctx, entity.CatalogProducts, dto.CatalogQuery{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active.Items, 2)

	found, err := uc.List(ctx, entity.CatalogProducts, dto.CatalogQuery{Search: "cem"})
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "CEM-50", found.Items[0].Code)
	assert.Equal(t, "32000.00", found.Items[0].Extra["price"])
	assert.Equal(t, "false", found.Items[0].Extra["serialized"])
}

func TestList_Paginacion(t *testing.T) {
	uc := newCatalog(t)
	q := dto.CatalogQuery{}
	q.Limit, q.Offset = 1, 1

	out, err := uc.List(context.Background(), entity.CatalogProducts, q)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Baldosa descontinuada", out.Items[0].Name)

	q.Limit = 1000
	q.Offset = 0
	out, err = uc.List(context.Background(), entity.CatalogProducts, q)
	require.NoError(t, err)
	assert.Equal(t, catalog.MaxPage, out.Page.Limit)
}

func TestGet_PorTipo(t *testing.T) {
	uc := newCatalog(t)
	ctx := context.Background()

	c, err := uc.Get(ctx, entity.CatalogCustomers, customerID)
	require.NoError(t, err)
	assert.Equal(t, "900123456", c.Code)
	assert.Equal(t, "compras@central.co", c.Extra["email"])

	_, err = uc.Get(ctx, entity.CatalogProducts, customerID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "el ID existe pero en otro catálogo")

	_, err = uc.Get(ctx, entity.CatalogKind(99), customerID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

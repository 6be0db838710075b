package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/erp-ledger/internal/application/auth"
	"github.com/jhoicas/erp-ledger/internal/application/billing"
	"github.com/jhoicas/erp-ledger/internal/application/catalog"
	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/application/inventory"
	"github.com/jhoicas/erp-ledger/internal/application/order"
	"github.com/jhoicas/erp-ledger/internal/application/payment"
	"github.com/jhoicas/erp-ledger/internal/application/purchase"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/erp-ledger/internal/interfaces/http"
	"github.com/jhoicas/erp-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: API completa sobre el almacén en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	productID   = "10000000-0000-0000-0000-000000000001"
	warehouseID = "20000000-0000-0000-0000-000000000001"
	customerID  = "30000000-0000-0000-0000-000000000001"
	supplierID  = "40000000-0000-0000-0000-000000000001"
	cashBoxID   = "50000000-0000-0000-0000-000000000001"
)

func newAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: productID, SKU: "SKU-1", Name: "Tornillo", Price: decimal.NewFromInt(10), Active: true})
	store.AddWarehouse(entity.Warehouse{ID: warehouseID, Name: "Principal", Active: true})
	store.AddCustomer(entity.Customer{ID: customerID, Name: "Cliente Uno", TaxID: "900-1", Active: true})
	store.AddSupplier(entity.Supplier{ID: supplierID, Name: "Proveedor Uno", TaxID: "800-1", Active: true})
	store.AddCashBox(entity.CashBox{ID: cashBoxID, Name: "Caja", Currency: "COP", Active: true})
	hash, err := bcrypt.GenerateFromPassword([]byte("secreto123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.AddUser(entity.User{ID: testUserID, Username: "ana", PasswordHash: string(hash), Active: true, Roles: []string{entity.RoleAdmin}}))

	repos := store.Repos()
	log := logger.Nop()
	ledger := inventory.NewLedger(nil)
	reservations := inventory.NewReservations(ledger, time.Hour)
	paymentUC := payment.NewUseCase(store, repos.Payments, repos.Installments, repos.Customers, repos.Sales,
		payment.Config{DefaultCashBoxID: cashBoxID}, nil, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:      auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}),
		OrderUC:     order.NewUseCase(store, repos.Orders, ledger, reservations, nil, log),
		PurchaseUC:  purchase.NewUseCase(store, repos.Purchases, ledger, nil, log),
		PaymentUC:   paymentUC,
		CatalogUC:   catalog.NewUseCase(repos.Customers, repos.Products, repos.Warehouses, repos.Suppliers),
		PDFUC:       billing.NewPDFUseCase(repos.Sales, repos.Customers, repos.Products, repos.Warehouses, repos.Payments, pdf.NewMarotoPDFGenerator("ERP Test")),
		StockQuery:  inventory.NewQueryUseCase(repos.Stock, repos.Movements, repos.Products),
		StockAdjust: inventory.NewAdjustUseCase(store, ledger, log),
		JWTSecret:   testJWTSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func purchaseBody(doc string, qty int64) dto.RegisterPurchaseRequest {
	return dto.RegisterPurchaseRequest{
		SupplierID:     supplierID,
		WarehouseID:    warehouseID,
		DocumentNumber: doc,
		Items: []dto.PurchaseItemRequest{{
			ProductID: productID,
			Quantity:  decimal.NewFromInt(qty),
			UnitCost:  decimal.NewFromInt(6),
		}},
	}
}

func orderBody(qty int64, reserve bool) dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		CustomerID:  customerID,
		WarehouseID: warehouseID,
		Items:       []dto.OrderItemRequest{{ProductID: productID, Quantity: decimal.NewFromInt(qty)}},
		Reserve:     reserve,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_CredencialesValidas_DevuelveToken(t *testing.T) {
	app := newAPI(t)
	resp := call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "ANA", Password: "secreto123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.LoginResponse
	decode(t, resp, &out)
	require.NotEmpty(t, out.AccessToken)

	me := call(t, app, http.MethodGet, "/api/auth/me", "Bearer "+out.AccessToken, nil)
	assert.Equal(t, http.StatusOK, me.StatusCode)
}

func TestLogin_PasswordIncorrecto_Retorna401(t *testing.T) {
	app := newAPI(t)
	resp := call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "ana", Password: "otra-clave"})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Roles por ruta
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_VendedorNoPuedeRegistrarCompra(t *testing.T) {
	app := newAPI(t)
	resp := call(t, app, http.MethodPost, "/api/purchases", tokenFor(t, entity.RoleVendedor), purchaseBody("F-1", 5))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_SoloAdminAnulaCompras(t *testing.T) {
	app := newAPI(t)
	resp := call(t, app, http.MethodPost, "/api/purchases", tokenFor(t, entity.RoleBodeguero), purchaseBody("F-1", 5))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p dto.PurchaseResponse
	decode(t, resp, &p)

	void := dto.VoidPurchaseRequest{Reason: "error de digitación"}
	denied := call(t, app, http.MethodPost, "/api/purchases/"+p.ID+"/void", tokenFor(t, entity.RoleBodeguero), void)
	defer denied.Body.Close()
	assert.Equal(t, http.StatusForbidden, denied.StatusCode)

	ok := call(t, app, http.MethodPost, "/api/purchases/"+p.ID+"/void", tokenFor(t, entity.RoleAdmin), void)
	var voided dto.PurchaseResponse
	decode(t, ok, &voided)
	assert.Equal(t, entity.PurchaseVoided, voided.Status)
}

func TestRouter_ConsultasAbiertasACualquierRol(t *testing.T) {
	app := newAPI(t)
	resp := call(t, app, http.MethodGet, "/api/inventory/stock", tokenFor(t, entity.RoleCajero), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Traducción de errores
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateOrder_SinStock_Retorna409InsufficientStock(t *testing.T) {
	app := newAPI(t)
	resp := call(t, app, http.MethodPost, "/api/orders", tokenFor(t, entity.RoleVendedor), orderBody(3, false))

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var out dto.ErrorResponse
	decode(t, resp, &out)
	assert.Equal(t, "INSUFFICIENT_STOCK", out.Code)
}

func TestCreateOrder_CuerpoInvalido_Retorna400ConDetalles(t *testing.T) {
	app := newAPI(t)
	body := orderBody(1, false)
	body.CustomerID = "no-es-uuid"
	resp := call(t, app, http.MethodPost, "/api/orders", tokenFor(t, entity.RoleVendedor), body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out dto.ErrorResponse
	decode(t, resp, &out)
	assert.Equal(t, "VALIDATION", out.Code)
	assert.Contains(t, out.Details, "customer_id")
}

func TestGetOrder_IDMalformado_Retorna400(t *testing.T) {
	app := newAPI(t)
	resp := call(t, app, http.MethodGet, "/api/orders/abc", tokenFor(t, entity.RoleAdmin), nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out dto.ErrorResponse
	decode(t, resp, &out)
	assert.Equal(t, "INVALID_ID", out.Code)
}

func TestGetOrder_Inexistente_Retorna404(t *testing.T) {
	app := newAPI(t)
	resp := call(t, app, http.MethodGet, "/api/orders/"+customerID, tokenFor(t, entity.RoleAdmin), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRegisterPurchase_DocumentoDuplicado_Retorna409(t *testing.T) {
	app := newAPI(t)
	first := call(t, app, http.MethodPost, "/api/purchases", tokenFor(t, entity.RoleAdmin), purchaseBody("F-9", 1))
	first.Body.Close()
	require.Equal(t, http.StatusCreated, first.StatusCode)

	resp := call(t, app, http.MethodPost, "/api/purchases", tokenFor(t, entity.RoleAdmin), purchaseBody("F-9", 1))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var out dto.ErrorResponse
	decode(t, resp, &out)
	assert.Equal(t, "DUPLICATE", out.Code)
}

func TestApplyPayment_SumaNoCoincide_Retorna400(t *testing.T) {
	app := newAPI(t)
	body := dto.ApplyPaymentRequest{
		CustomerID: customerID,
		Method:     entity.PaymentMethodCash,
		Total:      decimal.NewFromInt(100),
		Applications: []dto.ApplicationRequest{
			{TargetType: "SALE", SaleID: productID, Amount: decimal.NewFromInt(60)},
			{TargetType: "SALE", SaleID: productID, Amount: decimal.NewFromInt(30)},
		},
	}
	resp := call(t, app, http.MethodPost, "/api/payments", tokenFor(t, entity.RoleCajero), body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var out dto.ErrorResponse
	decode(t, resp, &out)
	assert.Equal(t, "INVALID_PAYMENT", out.Code)
}

func TestCatalog_TipoDesconocido_Retorna400(t *testing.T) {
	app := newAPI(t)
	resp := call(t, app, http.MethodGet, "/api/catalog/planetas", tokenFor(t, entity.RoleAdmin), nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo: compra → pedido → factura → PDF
// ──────────────────────────────────────────────────────────────────────────────

func TestFlujo_CompraPedidoConfirmacion(t *testing.T) {
	app := newAPI(t)
	admin := tokenFor(t, entity.RoleAdmin)

	resp := call(t, app, http.MethodPost, "/api/purchases", admin, purchaseBody("F-100", 5))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/orders", admin, orderBody(5, true))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var o dto.OrderResponse
	decode(t, resp, &o)
	assert.Equal(t, entity.OrderReserved, o.Status)

	resp = call(t, app, http.MethodPost, "/api/orders/"+o.ID+"/confirm", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var confirmed dto.ConfirmOrderResponse
	decode(t, resp, &confirmed)
	assert.Equal(t, entity.OrderInvoiced, confirmed.Order.Status)
	assert.True(t, decimal.NewFromInt(50).Equal(confirmed.Sale.Total), "venta = 5 × 10.00")

	resp = call(t, app, http.MethodGet, "/api/inventory/balance?product_id="+productID+"&warehouse_id="+warehouseID, admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bal dto.StockResponse
	decode(t, resp, &bal)
	assert.True(t, bal.OnHand.IsZero())
	assert.True(t, bal.Reserved.IsZero())

	resp = call(t, app, http.MethodGet, "/api/inventory/kardex/"+productID+"?from=2000-01-01", admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var kardex []dto.MovementResponse
	decode(t, resp, &kardex)
	require.Len(t, kardex, 2)
	assert.Equal(t, entity.MovementPurchase, kardex[0].Kind)
	assert.Equal(t, entity.MovementSale, kardex[1].Kind)
	assert.True(t, decimal.NewFromInt(-5).Equal(kardex[1].Quantity))

	resp = call(t, app, http.MethodGet, "/api/sales/"+confirmed.Sale.ID+"/pdf", admin, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

func TestCancelarPedido_DosVeces_EsIdempotente(t *testing.T) {
	app := newAPI(t)
	admin := tokenFor(t, entity.RoleAdmin)
	resp := call(t, app, http.MethodPost, "/api/purchases", admin, purchaseBody("F-200", 2))
	resp.Body.Close()

	resp = call(t, app, http.MethodPost, "/api/orders", admin, orderBody(2, true))
	var o dto.OrderResponse
	decode(t, resp, &o)

	for i := 0; i < 2; i++ {
		resp = call(t, app, http.MethodPost, "/api/orders/"+o.ID+"/cancel", admin, dto.CancelOrderRequest{Reason: "cliente desiste"})
		var out dto.OrderResponse
		decode(t, resp, &out)
		assert.Equal(t, entity.OrderCancelled, out.Status)
	}

	resp = call(t, app, http.MethodGet, "/api/inventory/balance?product_id="+productID+"&warehouse_id="+warehouseID, admin, nil)
	var bal dto.StockResponse
	decode(t, resp, &bal)
	assert.True(t, bal.Reserved.IsZero(), "cancelar libera la reserva")
	assert.True(t, decimal.NewFromInt(2).Equal(bal.OnHand))
}

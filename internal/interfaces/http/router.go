package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-ledger/internal/application/auth"
	"github.com/jhoicas/erp-ledger/internal/application/billing"
	"github.com/jhoicas/erp-ledger/internal/application/catalog"
	"github.com/jhoicas/erp-ledger/internal/application/inventory"
	"github.com/jhoicas/erp-ledger/internal/application/order"
	"github.com/jhoicas/erp-ledger/internal/application/payment"
	"github.com/jhoicas/erp-ledger/internal/application/purchase"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	OrderUC     *order.UseCase
	PurchaseUC  *purchase.UseCase
	PaymentUC   *payment.UseCase
	CatalogUC   *catalog.UseCase
	PDFUC       *billing.PDFUseCase
	StockQuery  *inventory.QueryUseCase
	StockAdjust *inventory.AdjustUseCase
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	protected.Get("/auth/me", authHandler.Me)

	sellers := RequireRole(entity.RoleAdmin, entity.RoleVendedor)
	stockKeepers := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)
	cashiers := RequireRole(entity.RoleAdmin, entity.RoleCajero)
	admins := RequireRole(entity.RoleAdmin)

	// Pedidos
	orders := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrderUC)
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.Get)
	orders.Post("/", sellers, orderHandler.Create)
	orders.Put("/:id/items", sellers, orderHandler.ReplaceItems)
	orders.Post("/:id/reserve", sellers, orderHandler.Reserve)
	orders.Post("/:id/confirm", sellers, orderHandler.Confirm)
	orders.Post("/:id/cancel", sellers, orderHandler.Cancel)

	// Ventas
	sales := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.PDFUC, deps.PaymentUC)
	sales.Get("/:id/pdf", saleHandler.DownloadPDF)
	sales.Get("/:id/payments", saleHandler.Payments)

	// Compras; /dashboard antes de /:id
	purchases := protected.Group("/purchases")
	purchaseHandler := NewPurchaseHandler(deps.PurchaseUC)
	purchases.Get("/", purchaseHandler.List)
	purchases.Get("/dashboard", purchaseHandler.Dashboard)
	purchases.Get("/:id", purchaseHandler.Get)
	purchases.Post("/", stockKeepers, purchaseHandler.Register)
	purchases.Post("/:id/void", admins, purchaseHandler.Void)

	// Pagos
	paymentHandler := NewPaymentHandler(deps.PaymentUC)
	protected.Post("/payments", cashiers, paymentHandler.Apply)
	protected.Post("/payment-plans", cashiers, paymentHandler.CreatePlan)
	protected.Get("/customers/:id/payments", paymentHandler.ListByCustomer)
	protected.Get("/customers/:id/account-statement", paymentHandler.AccountStatement)

	// Inventario
	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.StockQuery, deps.StockAdjust)
	inv.Get("/stock", inventoryHandler.ListStock)
	inv.Get("/balance", inventoryHandler.Balance)
	inv.Get("/kardex/:productID", inventoryHandler.Kardex)
	inv.Post("/adjustments", stockKeepers, inventoryHandler.Adjust)

	// Catálogos
	cat := protected.Group("/catalog")
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	cat.Get("/:kind", catalogHandler.List)
	cat.Get("/:kind/:id", catalogHandler.Get)
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseItemRequest línea de compra. Serials obligatorio para productos serializados.
type PurchaseItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Serials   []string        `json:"serials,omitempty" validate:"omitempty,dive,required,max=100"`
}

// RegisterPurchaseRequest body para POST /api/purchases.
type RegisterPurchaseRequest struct {
	SupplierID     string                `json:"supplier_id" validate:"required,uuid"`
	WarehouseID    string                `json:"warehouse_id" validate:"required,uuid"`
	DocumentNumber string                `json:"document_number" validate:"required,max=60"`
	Items          []PurchaseItemRequest `json:"items" validate:"dive"`
	Notes          string                `json:"notes,omitempty" validate:"max=1000"`
}

// VoidPurchaseRequest body para POST /api/purchases/:id/void.
type VoidPurchaseRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// PurchaseListQuery filtros de GET /api/purchases y /dashboard.
type PurchaseListQuery struct {
	SupplierID  string     `query:"supplier_id" validate:"omitempty,uuid"`
	WarehouseID string     `query:"warehouse_id" validate:"omitempty,uuid"`
	Status      string     `query:"status" validate:"omitempty,oneof=REGISTERED VOIDED"`
	From        *time.Time `query:"from"`
	To          *time.Time `query:"to"`
}

// PurchaseLineResponse línea de compra en respuestas.
type PurchaseLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Serials   []string        `json:"serials,omitempty"`
}

// PurchaseResponse compra con sus líneas.
type PurchaseResponse struct {
	ID             string                 `json:"id"`
	SupplierID     string                 `json:"supplier_id"`
	WarehouseID    string                 `json:"warehouse_id"`
	DocumentNumber string                 `json:"document_number"`
	Status         string                 `json:"status"`
	Total          decimal.Decimal        `json:"total"`
	Notes          string                 `json:"notes,omitempty"`
	ActorID        string                 `json:"actor_id"`
	Items          []PurchaseLineResponse `json:"items"`
	CreatedAt      time.Time              `json:"created_at"`
	VoidedAt       *time.Time             `json:"voided_at,omitempty"`
}

// PurchaseAggregateResponse fila de un top del tablero.
type PurchaseAggregateResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Quantity decimal.Decimal `json:"quantity,omitempty"`
	Count    int             `json:"count"`
}

// PurchaseDashboardResponse tablero de compras registradas.
type PurchaseDashboardResponse struct {
	TotalAmount   decimal.Decimal             `json:"total_amount"`
	PurchaseCount int                         `json:"purchase_count"`
	BySupplier    []PurchaseAggregateResponse `json:"by_supplier"`
	ByWarehouse   []PurchaseAggregateResponse `json:"by_warehouse"`
	TopProducts   []PurchaseAggregateResponse `json:"top_products"`
}

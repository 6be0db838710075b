package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest línea de pedido. UnitPrice opcional: si falta se usa el precio del producto.
type OrderItemRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	SerialIDs []string         `json:"serial_ids,omitempty" validate:"omitempty,dive,uuid"`
}

// CreateOrderRequest body para POST /api/orders.
type CreateOrderRequest struct {
	CustomerID  string             `json:"customer_id" validate:"required,uuid"`
	WarehouseID string             `json:"warehouse_id" validate:"required,uuid"`
	Items       []OrderItemRequest `json:"items" validate:"dive"`
	Reserve     bool               `json:"reserve"`
	Notes       string             `json:"notes,omitempty" validate:"max=1000"`
}

// ReplaceItemsRequest body para PUT /api/orders/:id/items.
type ReplaceItemsRequest struct {
	Items []OrderItemRequest `json:"items" validate:"dive"`
}

// ConfirmOrderRequest body para POST /api/orders/:id/confirm.
type ConfirmOrderRequest struct {
	PaymentType string `json:"payment_type" validate:"omitempty,oneof=CASH CREDIT"`
}

// CancelOrderRequest body para POST /api/orders/:id/cancel.
type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// OrderListQuery filtros de GET /api/orders.
type OrderListQuery struct {
	CustomerID string     `query:"customer_id" validate:"omitempty,uuid"`
	Status     string     `query:"status" validate:"omitempty,oneof=OPEN RESERVED INVOICED CANCELLED"`
	From       *time.Time `query:"from"`
	To         *time.Time `query:"to"`
}

// OrderLineResponse línea de pedido en respuestas.
type OrderLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	SerialIDs []string        `json:"serial_ids,omitempty"`
}

// OrderResponse pedido con sus líneas.
type OrderResponse struct {
	ID          string              `json:"id"`
	CustomerID  string              `json:"customer_id"`
	WarehouseID string              `json:"warehouse_id"`
	ActorID     string              `json:"actor_id"`
	Status      string              `json:"status"`
	Total       decimal.Decimal     `json:"total"`
	SaleID      string              `json:"sale_id,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	Items       []OrderLineResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// SaleLineResponse línea de venta.
type SaleLineResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SaleResponse venta emitida al confirmar un pedido.
type SaleResponse struct {
	ID          string             `json:"id"`
	OrderID     string             `json:"order_id"`
	CustomerID  string             `json:"customer_id"`
	WarehouseID string             `json:"warehouse_id"`
	PaymentType string             `json:"payment_type"`
	Status      string             `json:"status"`
	Total       decimal.Decimal    `json:"total"`
	Items       []SaleLineResponse `json:"items"`
	CreatedAt   time.Time          `json:"created_at"`
}

// ConfirmOrderResponse resultado de facturar un pedido.
type ConfirmOrderResponse struct {
	Order OrderResponse `json:"order"`
	Sale  SaleResponse  `json:"sale"`
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentRequest body para POST /api/inventory/adjustments.
// Quantity firmada: positiva ingresa, negativa retira.
type AdjustmentRequest struct {
	ProductID   string          `json:"product_id" validate:"required,uuid"`
	WarehouseID string          `json:"warehouse_id" validate:"required,uuid"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason" validate:"required,min=3,max=500"`
}

// StockQuery filtros de GET /api/inventory/stock y /balance.
type StockQuery struct {
	ProductID   string `query:"product_id" validate:"omitempty,uuid"`
	WarehouseID string `query:"warehouse_id" validate:"omitempty,uuid"`
}

// KardexQuery filtros de GET /api/inventory/kardex/:productID.
type KardexQuery struct {
	WarehouseID string     `query:"warehouse_id" validate:"omitempty,uuid"`
	From        *time.Time `query:"from"`
	To          *time.Time `query:"to"`
}

// StockResponse existencia de un producto en una bodega.
type StockResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	OnHand      decimal.Decimal `json:"on_hand"`
	Reserved    decimal.Decimal `json:"reserved"`
	Available   decimal.Decimal `json:"available"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// MovementResponse fila del kardex.
type MovementResponse struct {
	ID                string          `json:"id"`
	Kind              string          `json:"kind"`
	ProductID         string          `json:"product_id"`
	SourceWarehouseID string          `json:"source_warehouse_id,omitempty"`
	DestWarehouseID   string          `json:"dest_warehouse_id,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	BalanceAfter      decimal.Decimal `json:"balance_after"`
	Reference         string          `json:"reference"`
	DocumentType      string          `json:"document_type"`
	DocumentID        string          `json:"document_id"`
	ActorID           string          `json:"actor_id"`
	CreatedAt         time.Time       `json:"created_at"`
}

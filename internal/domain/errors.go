package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
)

// StockError indica existencia insuficiente o ausente para un débito o reserva.
type StockError struct {
	ProductID   string
	WarehouseID string
	Requested   decimal.Decimal
	Available   decimal.Decimal
	Absent      bool
}

func (e *StockError) Error() string {
	if e.Absent {
		return fmt.Sprintf("sin existencia para producto %s en bodega %s", e.ProductID, e.WarehouseID)
	}
	return fmt.Sprintf("stock insuficiente para producto %s en bodega %s: solicitado %s, disponible %s",
		e.ProductID, e.WarehouseID, e.Requested.String(), e.Available.String())
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// OrderError transición inválida, pedido inexistente o pedido sin ítems.
// Kind es uno de ErrConflict, ErrNotFound o ErrInvalidInput.
type OrderError struct {
	OrderID string
	Status  string
	Reason  string
	Kind    error
}

func (e *OrderError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("pedido %s (%s): %s", e.OrderID, e.Status, e.Reason)
	}
	if e.OrderID != "" {
		return fmt.Sprintf("pedido %s: %s", e.OrderID, e.Reason)
	}
	return "pedido: " + e.Reason
}

func (e *OrderError) Unwrap() error { return e.Kind }

// NewOrderStateError construye el error de transición no permitida.
func NewOrderStateError(orderID, status, reason string) *OrderError {
	return &OrderError{OrderID: orderID, Status: status, Reason: reason, Kind: ErrConflict}
}

// NewOrderNotFound construye el error de pedido inexistente.
func NewOrderNotFound(orderID string) *OrderError {
	return &OrderError{OrderID: orderID, Reason: "no existe", Kind: ErrNotFound}
}

// PaymentError suma de aplicaciones distinta al total o referencia objetivo inválida.
type PaymentError struct {
	Reason string
	Kind   error
}

func (e *PaymentError) Error() string { return "pago: " + e.Reason }

func (e *PaymentError) Unwrap() error { return e.Kind }

// NewPaymentError construye un PaymentError de validación.
func NewPaymentError(format string, args ...any) *PaymentError {
	return &PaymentError{Reason: fmt.Sprintf(format, args...), Kind: ErrInvalidInput}
}

// IntegrityError violación de unicidad o de estado (p. ej. proveedor + documento repetido).
type IntegrityError struct {
	Entity string
	Key    string
	Reason string
	Kind   error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.Key, e.Reason)
}

func (e *IntegrityError) Unwrap() error { return e.Kind }

// NewDuplicateError construye un IntegrityError por clave duplicada.
func NewDuplicateError(entity, key string) *IntegrityError {
	return &IntegrityError{Entity: entity, Key: key, Reason: "ya existe", Kind: ErrDuplicate}
}

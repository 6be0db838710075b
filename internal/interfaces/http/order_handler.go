package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/application/order"
)

// OrderHandler maneja el flujo de pedidos (protegido).
type OrderHandler struct {
	uc *order.UseCase
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *order.UseCase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// Create godoc
// @Summary      Crear pedido
// @Description  Crea el pedido OPEN; con reserve=true queda RESERVED en la misma transacción.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "customer_id, warehouse_id, items, reserve"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar pedidos
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        customer_id  query  string  false  "Cliente (UUID)"
// @Param        status       query  string  false  "OPEN, RESERVED, INVOICED o CANCELLED"
// @Param        from         query  string  false  "Desde"
// @Param        to           query  string  false  "Hasta, exclusivo"
// @Success      200  {array}   dto.OrderResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	var q dto.OrderListQuery
	if err := parseQuery(c, &q); err != nil {
		return writeError(c, err)
	}
	list, err := h.uc.List(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// Get godoc
// @Summary      Obtener pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Pedido (UUID)"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReplaceItems godoc
// @Summary      Reemplazar ítems de un pedido OPEN
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "Pedido (UUID)"
// @Param        body  body  dto.ReplaceItemsRequest  true  "items"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/items [put]
func (h *OrderHandler) ReplaceItems(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ReplaceItemsRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ReplaceItems(c.UserContext(), GetUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Reserve godoc
// @Summary      Reservar stock del pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Pedido (UUID)"
// @Success      200  {object}  dto.OrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/reserve [post]
func (h *OrderHandler) Reserve(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Reserve(c.UserContext(), GetUserID(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Confirm godoc
// @Summary      Confirmar pedido y emitir venta
// @Description  Descuenta el stock (SALE), crea la venta y deja el pedido INVOICED.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true   "Pedido (UUID)"
// @Param        body  body  dto.ConfirmOrderRequest  false  "payment_type (CASH por defecto)"
// @Success      200   {object}  dto.ConfirmOrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/confirm [post]
func (h *OrderHandler) Confirm(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.ConfirmOrderRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &in); err != nil {
			return writeError(c, err)
		}
	}
	out, err := h.uc.Confirm(c.UserContext(), GetUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar pedido
// @Description  Libera las reservas. Cancelar un pedido ya cancelado no hace nada.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true   "Pedido (UUID)"
// @Param        body  body  dto.CancelOrderRequest  false  "reason"
// @Success      200   {object}  dto.OrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.CancelOrderRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &in); err != nil {
			return writeError(c, err)
		}
	}
	out, err := h.uc.Cancel(c.UserContext(), GetUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

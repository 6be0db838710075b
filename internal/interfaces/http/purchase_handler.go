package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/application/purchase"
)

// PurchaseHandler maneja el registro y anulación de compras (protegido).
type PurchaseHandler struct {
	uc *purchase.UseCase
}

// NewPurchaseHandler construye el handler.
func NewPurchaseHandler(uc *purchase.UseCase) *PurchaseHandler {
	return &PurchaseHandler{uc: uc}
}

// Register godoc
// @Summary      Registrar compra
// @Description  Ingresa el stock (PURCHASE), actualiza costo promedio y registra seriales.
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterPurchaseRequest  true  "supplier_id, warehouse_id, document_number, items"
// @Success      201   {object}  dto.PurchaseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchases [post]
func (h *PurchaseHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterPurchaseRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Register(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar compras
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        supplier_id   query  string  false  "Proveedor (UUID)"
// @Param        warehouse_id  query  string  false  "Bodega (UUID)"
// @Param        status        query  string  false  "REGISTERED o VOIDED"
// @Param        from          query  string  false  "Desde"
// @Param        to            query  string  false  "Hasta, exclusivo"
// @Success      200  {array}   dto.PurchaseResponse
// @Router       /api/purchases [get]
func (h *PurchaseHandler) List(c *fiber.Ctx) error {
	var q dto.PurchaseListQuery
	if err := parseQuery(c, &q); err != nil {
		return writeError(c, err)
	}
	list, err := h.uc.List(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// Dashboard godoc
// @Summary      Resumen de compras registradas
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.PurchaseDashboardResponse
// @Router       /api/purchases/dashboard [get]
func (h *PurchaseHandler) Dashboard(c *fiber.Ctx) error {
	var q dto.PurchaseListQuery
	if err := parseQuery(c, &q); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Dashboard(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener compra
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Compra (UUID)"
// @Success      200  {object}  dto.PurchaseResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id} [get]
func (h *PurchaseHandler) Get(c *fiber.Ctx) error {
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

// Void godoc
// @Summary      Anular compra
// @Description  Revierte cada línea con un movimiento REVERSAL. Falla si el stock ya fue consumido.
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "Compra (UUID)"
// @Param        body  body  dto.VoidPurchaseRequest  true  "reason"
// @Success      200   {object}  dto.PurchaseResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/void [post]
func (h *PurchaseHandler) Void(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var in dto.VoidPurchaseRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Void(c.UserContext(), GetUserID(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

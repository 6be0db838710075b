package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/application/inventory"
)

// InventoryHandler maneja existencias, kardex y ajustes (protegido).
type InventoryHandler struct {
	query  *inventory.QueryUseCase
	adjust *inventory.AdjustUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(query *inventory.QueryUseCase, adjust *inventory.AdjustUseCase) *InventoryHandler {
	return &InventoryHandler{query: query, adjust: adjust}
}

// ListStock godoc
// @Summary      Existencias por producto y bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Filtrar por producto (UUID)"
// @Param        warehouse_id  query  string  false  "Filtrar por bodega (UUID)"
// @Success      200  {array}   dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) ListStock(c *fiber.Ctx) error {
	var q dto.StockQuery
	if err := parseQuery(c, &q); err != nil {
		return writeError(c, err)
	}
	list, err := h.query.ListStock(c.UserContext(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// Balance godoc
// @Summary      Saldo de un producto en una bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true  "Producto (UUID)"
// @Param        warehouse_id  query  string  true  "Bodega (UUID)"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/balance [get]
func (h *InventoryHandler) Balance(c *fiber.Ctx) error {
	var q dto.StockQuery
	if err := parseQuery(c, &q); err != nil {
		return writeError(c, err)
	}
	if q.ProductID == "" || q.WarehouseID == "" {
		return writeError(c, &requestError{code: "VALIDATION", message: "product_id y warehouse_id son requeridos"})
	}
	out, err := h.query.Balance(c.UserContext(), q.ProductID, q.WarehouseID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Kardex godoc
// @Summary      Kardex de un producto
// @Description  Movimientos en orden de registro. El rango es [from, to).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productID     path   string  true   "Producto (UUID)"
// @Param        warehouse_id  query  string  false  "Bodega (UUID)"
// @Param        from          query  string  false  "Desde (RFC3339 o AAAA-MM-DD)"
// @Param        to            query  string  false  "Hasta, exclusivo"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/kardex/{productID} [get]
func (h *InventoryHandler) Kardex(c *fiber.Ctx) error {
	productID, err := uuidParam(c, "productID")
	if err != nil {
		return writeError(c, err)
	}
	var q dto.KardexQuery
	if err := parseQuery(c, &q); err != nil {
		return writeError(c, err)
	}
	list, err := h.query.Kardex(c.UserContext(), productID, q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// Adjust godoc
// @Summary      Ajuste de inventario
// @Description  Cantidad firmada: positiva ingresa, negativa retira. Registra un movimiento ADJUSTMENT.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "product_id, warehouse_id, quantity, reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.adjust.Adjust(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

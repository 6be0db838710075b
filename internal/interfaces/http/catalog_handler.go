package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-ledger/internal/application/catalog"
	"github.com/jhoicas/erp-ledger/internal/application/dto"
)

// CatalogHandler consultas de catálogos (clientes, productos, bodegas, proveedores).
type CatalogHandler struct {
	uc *catalog.UseCase
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(uc *catalog.UseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// List godoc
// @Summary      Listar catálogo
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        kind    path   string  true   "customers, products, warehouses o suppliers"
// @Param        q       query  string  false  "Búsqueda por nombre o código"
// @Param        active  query  bool    false  "Solo activos"
// @Param        limit   query  int     false  "Tamaño de página"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.CatalogListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/catalog/{kind} [get]
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	kind, err := catalog.ParseKind(c.Params("kind"))
	if err != nil {
		return writeError(c, err)
	}
	var q dto.CatalogQuery
	if err := parseQuery(c, &q); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.UserContext(), kind, q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener registro de catálogo
// @Tags         catalog
// @Security     Bearer
// @Produce      json
// @Param        kind  path  string  true  "customers, products, warehouses o suppliers"
// @Param        id    path  string  true  "UUID"
// @Success      200  {object}  dto.CatalogItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/catalog/{kind}/{id} [get]
func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	kind, err := catalog.ParseKind(c.Params("kind"))
	if err != nil {
		return writeError(c, err)
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Get(c.UserContext(), kind, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-ledger/internal/application/billing"
	"github.com/jhoicas/erp-ledger/internal/application/payment"
)

// SaleHandler expone el PDF de la venta y sus pagos.
type SaleHandler struct {
	pdf      *billing.PDFUseCase
	payments *payment.UseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(pdf *billing.PDFUseCase, payments *payment.UseCase) *SaleHandler {
	return &SaleHandler{pdf: pdf, payments: payments}
}

// DownloadPDF godoc
// @Summary      Descargar venta en PDF
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "Venta (UUID)"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/pdf [get]
func (h *SaleHandler) DownloadPDF(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	data, filename, err := h.pdf.DownloadSalePDF(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}

// Payments godoc
// @Summary      Pagos aplicados a una venta
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Venta (UUID)"
// @Success      200  {array}  dto.PaymentResponse
// @Router       /api/sales/{id}/payments [get]
func (h *SaleHandler) Payments(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.payments.ListBySale(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/application/payment"
)

// PaymentHandler maneja pagos, planes de cuotas y estado de cuenta (protegido).
type PaymentHandler struct {
	uc *payment.UseCase
}

// NewPaymentHandler construye el handler.
func NewPaymentHandler(uc *payment.UseCase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

// Apply godoc
// @Summary      Registrar pago
// @Description  La suma de las aplicaciones debe ser igual al monto del pago.
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ApplyPaymentRequest  true  "customer_id, amount, applications"
// @Success      201   {object}  dto.PaymentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/payments [post]
func (h *PaymentHandler) Apply(c *fiber.Ctx) error {
	var in dto.ApplyPaymentRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Apply(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreatePlan godoc
// @Summary      Crear plan de cuotas para una venta
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePlanRequest  true  "sale_id, installments, first_due_date"
// @Success      201   {object}  dto.PaymentPlanResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/payment-plans [post]
func (h *PaymentHandler) CreatePlan(c *fiber.Ctx) error {
	var in dto.CreatePlanRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.CreatePlan(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListByCustomer godoc
// @Summary      Pagos de un cliente
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Cliente (UUID)"
// @Success      200  {array}  dto.PaymentResponse
// @Router       /api/customers/{id}/payments [get]
func (h *PaymentHandler) ListByCustomer(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.uc.ListByCustomer(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// AccountStatement godoc
// @Summary      Estado de cuenta del cliente
// @Description  Cuotas pendientes con antigüedad. solo_vencidas filtra las líneas; los totales cubren toda la deuda.
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        id             path   string  true   "Cliente (UUID)"
// @Param        solo_vencidas  query  bool    false  "Solo cuotas vencidas"
// @Success      200  {object}  dto.AccountStatementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/customers/{id}/account-statement [get]
func (h *PaymentHandler) AccountStatement(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var q dto.StatementQuery
	if err := parseQuery(c, &q); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.AccountStatement(c.UserContext(), id, q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

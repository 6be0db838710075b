package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/domain"
)

// errorStatus traduce la taxonomía de errores de dominio a status y código HTTP.
func errorStatus(err error) (int, string) {
	var (
		stockErr     *domain.StockError
		orderErr     *domain.OrderError
		paymentErr   *domain.PaymentError
		integrityErr *domain.IntegrityError
		validation   validator.ValidationErrors
		reqErr       *requestError
	)
	switch {
	case errors.As(err, &reqErr):
		return fiber.StatusBadRequest, reqErr.code
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.As(err, &stockErr):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.As(err, &orderErr):
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return fiber.StatusNotFound, "ORDER_NOT_FOUND"
		case errors.Is(err, domain.ErrInvalidInput):
			return fiber.StatusBadRequest, "INVALID_ORDER"
		default:
			return fiber.StatusConflict, "INVALID_ORDER_STATE"
		}
	case errors.As(err, &paymentErr):
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.StatusNotFound, "PAYMENT_TARGET_NOT_FOUND"
		}
		return fiber.StatusBadRequest, "INVALID_PAYMENT"
	case errors.As(err, &integrityErr):
		if errors.Is(err, domain.ErrDuplicate) {
			return fiber.StatusConflict, "DUPLICATE"
		}
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// writeError responde el error con el cuerpo estándar. Los 500 no exponen el detalle interno.
func writeError(c *fiber.Ctx, err error) error {
	status, code := errorStatus(err)
	resp := dto.ErrorResponse{Code: code, Message: err.Error()}
	var validation validator.ValidationErrors
	if errors.As(err, &validation) {
		resp.Message = "datos inválidos"
		resp.Details = validationDetails(validation)
	}
	if status == fiber.StatusInternalServerError {
		resp.Message = "error interno"
	}
	return c.Status(status).JSON(resp)
}

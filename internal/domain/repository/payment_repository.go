package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// PaymentRepository define el puerto de pagos y aplicaciones.
type PaymentRepository interface {
	// Create inserta la cabecera y sus aplicaciones.
	Create(ctx context.Context, p *entity.Payment) error
	ListByCustomer(ctx context.Context, customerID string) ([]*entity.Payment, error)
	ListBySale(ctx context.Context, saleID string) ([]*entity.Payment, error)
	// AppliedToSale suma lo aplicado a una venta, directo o a las cuotas de su plan.
	AppliedToSale(ctx context.Context, saleID string) (decimal.Decimal, error)
	// PlanBalance saldo abierto de las cuotas del plan de la venta. hasPlan es false si no tiene plan.
	PlanBalance(ctx context.Context, saleID string) (balance decimal.Decimal, hasPlan bool, err error)
}

// InstallmentRepository define el puerto de planes de pago y cuotas.
type InstallmentRepository interface {
	CreateAgreement(ctx context.Context, a *entity.PaymentAgreement) error
	GetForUpdate(ctx context.Context, id string) (*entity.Installment, error)
	// GetAgreement devuelve la cabecera del plan, sin cuotas. (nil, nil) si no existe.
	GetAgreement(ctx context.Context, id string) (*entity.PaymentAgreement, error)
	Update(ctx context.Context, i *entity.Installment) error
	ListOpenByCustomer(ctx context.Context, customerID string) ([]*entity.OpenInstallment, error)
	ExistsForSale(ctx context.Context, saleID string) (bool, error)
}

// CashRepository define el puerto de cajas y movimientos de caja.
type CashRepository interface {
	GetBox(ctx context.Context, id string) (*entity.CashBox, error)
	CreateMovement(ctx context.Context, m *entity.CashMovement) error
}

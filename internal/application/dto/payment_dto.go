package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplicationRequest porción del pago destinada a una venta o a una cuota.
type ApplicationRequest struct {
	TargetType    string          `json:"target_type" validate:"required,oneof=SALE INSTALLMENT"`
	SaleID        string          `json:"sale_id,omitempty" validate:"omitempty,uuid"`
	InstallmentID string          `json:"installment_id,omitempty" validate:"omitempty,uuid"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type,omitempty" validate:"omitempty,oneof=INSTALLMENT PRINCIPAL INTEREST PENALTY ADVANCE OTHER"`
}

// ApplyPaymentRequest body para POST /api/payments.
type ApplyPaymentRequest struct {
	CustomerID     string               `json:"customer_id" validate:"required,uuid"`
	Method         string               `json:"method" validate:"required,oneof=CASH POS TRANSFER DEPOSIT"`
	Reference      string               `json:"reference,omitempty" validate:"max=120"`
	Total          decimal.Decimal      `json:"total"`
	InitialDeposit bool                 `json:"initial_deposit"`
	CashBoxID      string               `json:"cash_box_id,omitempty" validate:"omitempty,uuid"`
	Applications   []ApplicationRequest `json:"applications" validate:"dive"`
}

// CreatePlanRequest body para POST /api/payment-plans.
type CreatePlanRequest struct {
	SaleID        string          `json:"sale_id" validate:"required,uuid"`
	Installments  int             `json:"installments" validate:"required,min=1,max=120"`
	FirstDueDate  time.Time       `json:"first_due_date" validate:"required"`
	IntervalDays  int             `json:"interval_days" validate:"omitempty,min=1,max=365"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
}

// ApplicationResponse aplicación registrada.
type ApplicationResponse struct {
	ID            string          `json:"id"`
	TargetType    string          `json:"target_type"`
	SaleID        string          `json:"sale_id,omitempty"`
	InstallmentID string          `json:"installment_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
}

// PaymentResponse pago con sus aplicaciones.
type PaymentResponse struct {
	ID             string                `json:"id"`
	CustomerID     string                `json:"customer_id"`
	Method         string                `json:"method"`
	Reference      string                `json:"reference,omitempty"`
	Total          decimal.Decimal       `json:"total"`
	ActorID        string                `json:"actor_id"`
	InitialDeposit bool                  `json:"initial_deposit"`
	CashBoxID      string                `json:"cash_box_id,omitempty"`
	Applications   []ApplicationResponse `json:"applications"`
	CreatedAt      time.Time             `json:"created_at"`
}

// InstallmentResponse cuota de un plan.
type InstallmentResponse struct {
	ID        string          `json:"id"`
	Number    int             `json:"number"`
	DueDate   time.Time       `json:"due_date"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Total     decimal.Decimal `json:"total"`
	Balance   decimal.Decimal `json:"balance"`
	Status    string          `json:"status"`
}

// PaymentPlanResponse plan de pagos creado.
type PaymentPlanResponse struct {
	ID           string                `json:"id"`
	SaleID       string                `json:"sale_id"`
	CustomerID   string                `json:"customer_id"`
	Installments []InstallmentResponse `json:"installments"`
	CreatedAt    time.Time             `json:"created_at"`
}

// StatementQuery filtros de GET /api/customers/:id/account-statement.
type StatementQuery struct {
	OnlyOverdue bool `query:"solo_vencidas"`
}

// StatementLine cuota pendiente con su antigüedad.
type StatementLine struct {
	InstallmentResponse
	SaleID      string `json:"sale_id"`
	DaysOverdue int    `json:"days_overdue"`
	Bucket      string `json:"bucket"`
}

// AccountStatementResponse estado de cuenta del cliente.
type AccountStatementResponse struct {
	CustomerID   string                     `json:"customer_id"`
	CustomerName string                     `json:"customer_name"`
	TotalDebt    decimal.Decimal            `json:"total_deuda"`
	TotalOverdue decimal.Decimal            `json:"total_vencido"`
	Buckets      map[string]decimal.Decimal `json:"buckets"`
	Lines        []StatementLine            `json:"cuotas"`
	GeneratedAt  time.Time                  `json:"generated_at"`
}

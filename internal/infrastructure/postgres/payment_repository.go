package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

var (
	_ repository.PaymentRepository     = (*PaymentRepo)(nil)
	_ repository.InstallmentRepository = (*InstallmentRepo)(nil)
	_ repository.CashRepository        = (*CashRepo)(nil)
)

// PaymentRepo implementación de PaymentRepository sobre PostgreSQL.
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador de pagos.
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

const paymentColumns = `id, customer_id, method, reference, total, actor_id, initial_deposit, cash_box_id, created_at`

// Create inserta la cabecera y sus aplicaciones.
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	_, err := r.q.Exec(ctx, `INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.CustomerID, p.Method, p.Reference, p.Total, p.ActorID, p.InitialDeposit, p.CashBoxID, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	for _, a := range p.Applications {
		_, err := r.q.Exec(ctx, `
			INSERT INTO payment_applications (id, payment_id, target_type, sale_id, installment_id, amount, type)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			a.ID, p.ID, a.TargetType, nullable(a.SaleID), nullable(a.InstallmentID), a.Amount, a.Type)
		if err != nil {
			return fmt.Errorf("create payment application: %w", err)
		}
	}
	return nil
}

// ListByCustomer lista los pagos del cliente, más recientes primero.
func (r *PaymentRepo) ListByCustomer(ctx context.Context, customerID string) ([]*entity.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE customer_id = $1 ORDER BY created_at DESC, id DESC`, customerID)
}

// saleApplications aplicaciones directas a la venta o a las cuotas de su plan.
const saleApplications = `
	SELECT pa.payment_id, pa.amount FROM payment_applications pa
	WHERE pa.target_type = 'SALE' AND pa.sale_id = $1
	UNION ALL
	SELECT pa.payment_id, pa.amount FROM payment_applications pa
	JOIN installments i ON i.id = pa.installment_id
	JOIN payment_agreements ag ON ag.id = i.agreement_id
	WHERE pa.target_type = 'INSTALLMENT' AND ag.sale_id = $1`

// ListBySale lista los pagos con alguna aplicación a la venta o a su plan.
func (r *PaymentRepo) ListBySale(ctx context.Context, saleID string) ([]*entity.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments
		WHERE id IN (SELECT payment_id FROM (`+saleApplications+`) s)
		ORDER BY created_at DESC, id DESC`, saleID)
}

// AppliedToSale suma lo aplicado a una venta, directo o a las cuotas de su plan.
func (r *PaymentRepo) AppliedToSale(ctx context.Context, saleID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM (`+saleApplications+`) s`, saleID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum applied to sale: %w", err)
	}
	return sum, nil
}

// PlanBalance saldo abierto del plan de la venta.
func (r *PaymentRepo) PlanBalance(ctx context.Context, saleID string) (decimal.Decimal, bool, error) {
	var (
		sum     decimal.Decimal
		hasPlan bool
	)
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(i.balance), 0), COUNT(ag.id) > 0
		FROM payment_agreements ag
		LEFT JOIN installments i ON i.agreement_id = ag.id
		WHERE ag.sale_id = $1`, saleID).Scan(&sum, &hasPlan)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("plan balance: %w", err)
	}
	return sum, hasPlan, nil
}

func (r *PaymentRepo) list(ctx context.Context, query string, arg string) ([]*entity.Payment, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	var (
		list []*entity.Payment
		ids  []string
	)
	byID := map[string]*entity.Payment{}
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.Method, &p.Reference, &p.Total, &p.ActorID,
			&p.InitialDeposit, &p.CashBoxID, &p.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, &p)
		ids = append(ids, p.ID)
		byID[p.ID] = &p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return list, nil
	}
	apps, err := r.q.Query(ctx, `
		SELECT id, payment_id, target_type, sale_id, installment_id, amount, type
		FROM payment_applications WHERE payment_id = ANY($1::uuid[]) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list payment applications: %w", err)
	}
	defer apps.Close()
	for apps.Next() {
		var (
			a                     entity.Application
			saleID, installmentID *string
		)
		if err := apps.Scan(&a.ID, &a.PaymentID, &a.TargetType, &saleID, &installmentID, &a.Amount, &a.Type); err != nil {
			return nil, fmt.Errorf("scan payment application: %w", err)
		}
		a.SaleID, a.InstallmentID = deref(saleID), deref(installmentID)
		if p, ok := byID[a.PaymentID]; ok {
			p.Applications = append(p.Applications, a)
		}
	}
	return list, apps.Err()
}

// InstallmentRepo implementación de InstallmentRepository sobre PostgreSQL.
type InstallmentRepo struct {
	q Querier
}

// NewInstallmentRepository construye el adaptador de planes de pago.
func NewInstallmentRepository(q Querier) *InstallmentRepo {
	return &InstallmentRepo{q: q}
}

const installmentColumns = `id, agreement_id, number, due_date, principal, interest, total, balance, status`

// CreateAgreement inserta el plan y sus cuotas.
func (r *InstallmentRepo) CreateAgreement(ctx context.Context, a *entity.PaymentAgreement) error {
	_, err := r.q.Exec(ctx, `INSERT INTO payment_agreements (id, sale_id, customer_id, created_at) VALUES ($1, $2, $3, $4)`,
		a.ID, a.SaleID, a.CustomerID, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create payment agreement: %w", err)
	}
	for _, in := range a.Installments {
		_, err := r.q.Exec(ctx, `INSERT INTO installments (`+installmentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			in.ID, a.ID, in.Number, in.DueDate, in.Principal, in.Interest, in.Total, in.Balance, in.Status)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.NewDuplicateError("cuota", fmt.Sprintf("%s/%d", a.ID, in.Number))
			}
			return fmt.Errorf("create installment: %w", err)
		}
	}
	return nil
}

// GetForUpdate bloquea la cuota. Devuelve (nil, nil) si no existe.
func (r *InstallmentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Installment, error) {
	var in entity.Installment
	err := r.q.QueryRow(ctx, `SELECT `+installmentColumns+` FROM installments WHERE id = $1 FOR UPDATE`, id).
		Scan(&in.ID, &in.AgreementID, &in.Number, &in.DueDate, &in.Principal, &in.Interest, &in.Total, &in.Balance, &in.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get installment: %w", err)
	}
	return &in, nil
}

// GetAgreement obtiene la cabecera del plan. Devuelve (nil, nil) si no existe.
func (r *InstallmentRepo) GetAgreement(ctx context.Context, id string) (*entity.PaymentAgreement, error) {
	var a entity.PaymentAgreement
	err := r.q.QueryRow(ctx, `SELECT id, sale_id, customer_id, created_at FROM payment_agreements WHERE id = $1`, id).
		Scan(&a.ID, &a.SaleID, &a.CustomerID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment agreement: %w", err)
	}
	return &a, nil
}

// Update guarda saldo y estado de la cuota.
func (r *InstallmentRepo) Update(ctx context.Context, in *entity.Installment) error {
	tag, err := r.q.Exec(ctx, `UPDATE installments SET balance = $2, status = $3 WHERE id = $1`, in.ID, in.Balance, in.Status)
	if err != nil {
		return fmt.Errorf("update installment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cuota %s: %w", in.ID, domain.ErrNotFound)
	}
	return nil
}

// ListOpenByCustomer lista cuotas con saldo del cliente, por vencimiento.
func (r *InstallmentRepo) ListOpenByCustomer(ctx context.Context, customerID string) ([]*entity.OpenInstallment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT i.id, i.agreement_id, i.number, i.due_date, i.principal, i.interest, i.total, i.balance, i.status,
		       a.customer_id, c.name, a.sale_id
		FROM installments i
		JOIN payment_agreements a ON a.id = i.agreement_id
		JOIN customers c ON c.id = a.customer_id
		WHERE a.customer_id = $1 AND i.balance > 0
		ORDER BY i.due_date, i.number`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list open installments: %w", err)
	}
	defer rows.Close()
	var list []*entity.OpenInstallment
	for rows.Next() {
		var o entity.OpenInstallment
		if err := rows.Scan(&o.ID, &o.AgreementID, &o.Number, &o.DueDate, &o.Principal, &o.Interest, &o.Total,
			&o.Balance, &o.Status, &o.CustomerID, &o.CustomerName, &o.SaleID); err != nil {
			return nil, fmt.Errorf("scan open installment: %w", err)
		}
		list = append(list, &o)
	}
	return list, rows.Err()
}

// ExistsForSale indica si la venta ya tiene un plan de pagos.
func (r *InstallmentRepo) ExistsForSale(ctx context.Context, saleID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payment_agreements WHERE sale_id = $1)`, saleID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists agreement: %w", err)
	}
	return exists, nil
}

// CashRepo implementación de CashRepository sobre PostgreSQL.
type CashRepo struct {
	q Querier
}

// NewCashRepository construye el adaptador de caja.
func NewCashRepository(q Querier) *CashRepo {
	return &CashRepo{q: q}
}

// GetBox obtiene una caja. Devuelve (nil, nil) si no existe.
func (r *CashRepo) GetBox(ctx context.Context, id string) (*entity.CashBox, error) {
	var b entity.CashBox
	err := r.q.QueryRow(ctx, `SELECT id, name, currency, active FROM cash_boxes WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Currency, &b.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cash box: %w", err)
	}
	return &b, nil
}

// CreateMovement registra un movimiento de caja.
func (r *CashRepo) CreateMovement(ctx context.Context, m *entity.CashMovement) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO cash_movements (id, cash_box_id, type, amount, reason, reference, payment_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.CashBoxID, m.Type, m.Amount, m.Reason, m.Reference, nullable(m.PaymentID), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create cash movement: %w", err)
	}
	return nil
}

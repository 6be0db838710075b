package payment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/pkg/logger"
	"github.com/jhoicas/erp-ledger/pkg/metrics"
)

// DefaultIntervalDays separación entre cuotas cuando no se indica.
const DefaultIntervalDays = 30

// Config parámetros del libro de pagos.
type Config struct {
	DefaultCashBoxID string // caja usada cuando el pago no indica una
}

// UseCase libro de pagos y cuotas. Un pago se reparte en aplicaciones a ventas o cuotas
// y se refleja como un ingreso en caja, todo en una transacción.
type UseCase struct {
	txRunner        TxRunner
	paymentRepo     repository.PaymentRepository
	installmentRepo repository.InstallmentRepository
	customerRepo    repository.CustomerRepository
	saleRepo        repository.SaleRepository
	cfg             Config
	metrics         *metrics.LedgerMetrics
	log             *logger.Logger
	now             func() time.Time
}

// NewUseCase construye el caso de uso. Los repositorios son de pool, para consultas.
func NewUseCase(
	txRunner TxRunner,
	paymentRepo repository.PaymentRepository,
	installmentRepo repository.InstallmentRepository,
	customerRepo repository.CustomerRepository,
	saleRepo repository.SaleRepository,
	cfg Config,
	m *metrics.LedgerMetrics,
	log *logger.Logger,
) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRunner:        txRunner,
		paymentRepo:     paymentRepo,
		installmentRepo: installmentRepo,
		customerRepo:    customerRepo,
		saleRepo:        saleRepo,
		cfg:             cfg,
		metrics:         m,
		log:             log.Component("payment"),
		now:             time.Now,
	}
}

// SetClock reemplaza el reloj (pruebas de antigüedad de cartera).
func (uc *UseCase) SetClock(now func() time.Time) { uc.now = now }

// Apply registra un pago y sus aplicaciones. La suma de aplicaciones debe ser igual al total.
func (uc *UseCase) Apply(ctx context.Context, actorID string, in dto.ApplyPaymentRequest) (resp *dto.PaymentResponse, err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveWorkflow("payment.apply", err, time.Since(start)) }()

	if actorID == "" || in.CustomerID == "" {
		return nil, domain.ErrInvalidInput
	}
	switch in.Method {
	case entity.PaymentMethodCash, entity.PaymentMethodPOS, entity.PaymentMethodTransfer, entity.PaymentMethodDeposit:
	default:
		return nil, domain.NewPaymentError("método de pago %q no soportado", in.Method)
	}
	total := entity.Money(in.Total)
	if !total.IsPositive() {
		return nil, domain.NewPaymentError("el total debe ser positivo")
	}
	if len(in.Applications) == 0 {
		return nil, domain.NewPaymentError("el pago no tiene aplicaciones")
	}
	cashBoxID := in.CashBoxID
	if cashBoxID == "" {
		cashBoxID = uc.cfg.DefaultCashBoxID
	}
	if cashBoxID == "" {
		return nil, fmt.Errorf("caja requerida: %w", domain.ErrInvalidInput)
	}

	now := uc.now()
	p := &entity.Payment{
		ID:             uuid.New().String(),
		CustomerID:     in.CustomerID,
		Method:         in.Method,
		Reference:      strings.TrimSpace(in.Reference),
		Total:          total,
		ActorID:        actorID,
		InitialDeposit: in.InitialDeposit,
		CashBoxID:      cashBoxID,
		CreatedAt:      now,
	}
	for i, a := range in.Applications {
		app, err := buildApplication(i, p.ID, a)
		if err != nil {
			return nil, err
		}
		p.Applications = append(p.Applications, app)
	}
	if applied := p.AppliedTotal(); !applied.Equal(total) {
		return nil, domain.NewPaymentError("la suma de aplicaciones (%s) no coincide con el total (%s)", applied.StringFixed(2), total.StringFixed(2))
	}

	err = uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		c, err := repos.Customers.GetByID(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		if c == nil {
			return &domain.PaymentError{Reason: "cliente " + in.CustomerID + " no existe", Kind: domain.ErrNotFound}
		}
		box, err := repos.Cash.GetBox(ctx, cashBoxID)
		if err != nil {
			return err
		}
		if box == nil || !box.Active {
			return &domain.PaymentError{Reason: "caja " + cashBoxID + " no existe o está inactiva", Kind: domain.ErrNotFound}
		}

		sales, err := lockSales(ctx, repos, p)
		if err != nil {
			return err
		}
		planSales, err := applyInstallments(ctx, repos, p)
		if err != nil {
			return err
		}
		if err := repos.Payments.Create(ctx, p); err != nil {
			return err
		}
		for _, s := range sales {
			applied, err := repos.Payments.AppliedToSale(ctx, s.ID)
			if err != nil {
				return err
			}
			if s.Status != entity.SalePaid && applied.GreaterThanOrEqual(s.Total) {
				if err := repos.Sales.UpdateStatus(ctx, s.ID, entity.SalePaid); err != nil {
					return err
				}
			}
		}
		if err := settlePlans(ctx, repos, planSales); err != nil {
			return err
		}
		return repos.Cash.CreateMovement(ctx, &entity.CashMovement{
			ID:        uuid.New().String(),
			CashBoxID: cashBoxID,
			Type:      entity.CashIncome,
			Amount:    total,
			Reason:    "PAGO CLIENTE " + c.Name,
			Reference: p.Reference,
			PaymentID: p.ID,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("payment_id", p.ID).
		Str("customer_id", p.CustomerID).
		Str("total", p.Total.String()).
		Int("applications", len(p.Applications)).
		Str("actor_id", actorID).
		Msg("pago registrado")
	out := dto.PaymentFromEntity(p)
	return &out, nil
}

func buildApplication(i int, paymentID string, a dto.ApplicationRequest) (entity.Application, error) {
	app := entity.Application{
		ID:         uuid.New().String(),
		PaymentID:  paymentID,
		TargetType: a.TargetType,
		Amount:     entity.Money(a.Amount),
		Type:       a.Type,
	}
	switch a.Type {
	case "", entity.ApplicationInstallment, entity.ApplicationPrincipal, entity.ApplicationInterest,
		entity.ApplicationPenalty, entity.ApplicationAdvance, entity.ApplicationOther:
	default:
		return app, domain.NewPaymentError("aplicación %d: tipo %q no soportado", i+1, a.Type)
	}
	switch a.TargetType {
	case entity.TargetSale:
		if a.SaleID == "" {
			return app, domain.NewPaymentError("aplicación %d: falta sale_id", i+1)
		}
		app.SaleID = a.SaleID
		if app.Type == "" {
			app.Type = entity.ApplicationPrincipal
		}
	case entity.TargetInstallment:
		if a.InstallmentID == "" {
			return app, domain.NewPaymentError("aplicación %d: falta installment_id", i+1)
		}
		app.InstallmentID = a.InstallmentID
		if app.Type == "" {
			app.Type = entity.ApplicationInstallment
		}
	default:
		return app, domain.NewPaymentError("aplicación %d: objetivo %q no soportado", i+1, a.TargetType)
	}
	if !app.Amount.IsPositive() {
		return app, domain.NewPaymentError("aplicación %d: el monto debe ser positivo", i+1)
	}
	return app, nil
}

// lockSales bloquea las ventas objetivo en orden de ID y valida que sean del cliente,
// que no tengan plan de pagos y que lo aplicado no supere su saldo.
func lockSales(ctx context.Context, repos repository.TxRepos, p *entity.Payment) ([]*entity.Sale, error) {
	var ids []string
	amounts := map[string]decimal.Decimal{}
	for _, a := range p.Applications {
		if a.TargetType != entity.TargetSale {
			continue
		}
		if _, ok := amounts[a.SaleID]; !ok {
			ids = append(ids, a.SaleID)
		}
		amounts[a.SaleID] = amounts[a.SaleID].Add(a.Amount)
	}
	sort.Strings(ids)
	sales := make([]*entity.Sale, 0, len(ids))
	for _, id := range ids {
		s, err := repos.Sales.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, &domain.PaymentError{Reason: "venta " + id + " no existe", Kind: domain.ErrNotFound}
		}
		if s.CustomerID != p.CustomerID {
			return nil, domain.NewPaymentError("la venta %s no pertenece al cliente", id)
		}
		hasPlan, err := repos.Installments.ExistsForSale(ctx, id)
		if err != nil {
			return nil, err
		}
		if hasPlan {
			return nil, domain.NewPaymentError("la venta %s tiene plan de pagos, aplique a sus cuotas", id)
		}
		applied, err := repos.Payments.AppliedToSale(ctx, id)
		if err != nil {
			return nil, err
		}
		outstanding := s.Total.Sub(applied)
		if amounts[id].GreaterThan(outstanding) {
			return nil, domain.NewPaymentError("lo aplicado a la venta %s (%s) supera su saldo (%s)",
				id, amounts[id].StringFixed(2), entity.Money(decimal.Max(outstanding, decimal.Zero)).StringFixed(2))
		}
		sales = append(sales, s)
	}
	return sales, nil
}

// applyInstallments bloquea cada cuota objetivo (en orden de ID), valida que su plan sea
// del cliente y descuenta su saldo. Devuelve las ventas de los planes tocados.
func applyInstallments(ctx context.Context, repos repository.TxRepos, p *entity.Payment) ([]string, error) {
	idx := make([]int, 0, len(p.Applications))
	for i, a := range p.Applications {
		if a.TargetType == entity.TargetInstallment {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return p.Applications[idx[a]].InstallmentID < p.Applications[idx[b]].InstallmentID
	})
	var saleIDs []string
	seen := map[string]bool{}
	for _, i := range idx {
		a := p.Applications[i]
		inst, err := repos.Installments.GetForUpdate(ctx, a.InstallmentID)
		if err != nil {
			return nil, err
		}
		if inst == nil {
			return nil, &domain.PaymentError{Reason: "cuota " + a.InstallmentID + " no existe", Kind: domain.ErrNotFound}
		}
		ag, err := repos.Installments.GetAgreement(ctx, inst.AgreementID)
		if err != nil {
			return nil, err
		}
		if ag == nil || ag.CustomerID != p.CustomerID {
			return nil, domain.NewPaymentError("la cuota %s no pertenece al cliente", a.InstallmentID)
		}
		inst.Apply(a.Amount)
		if err := repos.Installments.Update(ctx, inst); err != nil {
			return nil, err
		}
		if !seen[ag.SaleID] {
			seen[ag.SaleID] = true
			saleIDs = append(saleIDs, ag.SaleID)
		}
	}
	sort.Strings(saleIDs)
	return saleIDs, nil
}

// settlePlans marca pagada cada venta cuyo plan ya no tiene saldo abierto.
func settlePlans(ctx context.Context, repos repository.TxRepos, saleIDs []string) error {
	for _, id := range saleIDs {
		balance, _, err := repos.Payments.PlanBalance(ctx, id)
		if err != nil {
			return err
		}
		if balance.IsPositive() {
			continue
		}
		s, err := repos.Sales.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if s == nil || s.Status == entity.SalePaid {
			continue
		}
		if err := repos.Sales.UpdateStatus(ctx, id, entity.SalePaid); err != nil {
			return err
		}
	}
	return nil
}

// CreatePlan divide el saldo pendiente de una venta en n cuotas. El capital se reparte
// en partes iguales y el residuo de redondeo va a la última cuota.
func (uc *UseCase) CreatePlan(ctx context.Context, actorID string, in dto.CreatePlanRequest) (resp *dto.PaymentPlanResponse, err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveWorkflow("payment.create_plan", err, time.Since(start)) }()

	if actorID == "" || in.SaleID == "" || in.Installments < 1 || in.FirstDueDate.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	if in.InterestRate.IsNegative() {
		return nil, domain.NewPaymentError("la tasa de interés no puede ser negativa")
	}
	interval := in.IntervalDays
	if interval <= 0 {
		interval = DefaultIntervalDays
	}

	var ag *entity.PaymentAgreement
	err = uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		s, err := repos.Sales.GetForUpdate(ctx, in.SaleID)
		if err != nil {
			return err
		}
		if s == nil {
			return &domain.PaymentError{Reason: "venta " + in.SaleID + " no existe", Kind: domain.ErrNotFound}
		}
		exists, err := repos.Installments.ExistsForSale(ctx, s.ID)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewDuplicateError("plan de pagos", s.ID)
		}
		applied, err := repos.Payments.AppliedToSale(ctx, s.ID)
		if err != nil {
			return err
		}
		outstanding := entity.Money(s.Total.Sub(applied))
		if !outstanding.IsPositive() {
			return domain.NewPaymentError("la venta %s no tiene saldo pendiente", s.ID)
		}
		ag = buildAgreement(s, outstanding, in.Installments, in.FirstDueDate, interval, in.InterestRate, uc.now())
		return repos.Installments.CreateAgreement(ctx, ag)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("agreement_id", ag.ID).
		Str("sale_id", ag.SaleID).
		Int("installments", len(ag.Installments)).
		Str("actor_id", actorID).
		Msg("plan de pagos creado")
	out := dto.PaymentPlanResponse{ID: ag.ID, SaleID: ag.SaleID, CustomerID: ag.CustomerID, CreatedAt: ag.CreatedAt}
	for i := range ag.Installments {
		out.Installments = append(out.Installments, dto.InstallmentFromEntity(&ag.Installments[i]))
	}
	return &out, nil
}

func buildAgreement(s *entity.Sale, outstanding decimal.Decimal, n int, firstDue time.Time, intervalDays int, rate decimal.Decimal, now time.Time) *entity.PaymentAgreement {
	ag := &entity.PaymentAgreement{
		ID:         uuid.New().String(),
		SaleID:     s.ID,
		CustomerID: s.CustomerID,
		CreatedAt:  now,
	}
	share := outstanding.Div(decimal.NewFromInt(int64(n))).RoundDown(entity.MoneyScale)
	assigned := decimal.Zero
	for i := 1; i <= n; i++ {
		principal := share
		if i == n {
			principal = outstanding.Sub(assigned)
		}
		assigned = assigned.Add(principal)
		interest := entity.Money(principal.Mul(rate))
		total := principal.Add(interest)
		ag.Installments = append(ag.Installments, entity.Installment{
			ID:          uuid.New().String(),
			AgreementID: ag.ID,
			Number:      i,
			DueDate:     firstDue.AddDate(0, 0, (i-1)*intervalDays),
			Principal:   principal,
			Interest:    interest,
			Total:       total,
			Balance:     total,
			Status:      entity.InstallmentPending,
		})
	}
	return ag
}

// ListByCustomer pagos del cliente, más recientes primero.
func (uc *UseCase) ListByCustomer(ctx context.Context, customerID string) ([]dto.PaymentResponse, error) {
	c, err := uc.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.paymentRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return toResponses(list), nil
}

// ListBySale pagos aplicados a una venta, más recientes primero.
func (uc *UseCase) ListBySale(ctx context.Context, saleID string) ([]dto.PaymentResponse, error) {
	s, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.paymentRepo.ListBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return toResponses(list), nil
}

// AccountStatement estado de cuenta: cuotas con saldo, antigüedad por bucket y totales.
// Con OnlyOverdue solo se listan las cuotas vencidas; los totales siempre cubren toda la deuda.
func (uc *UseCase) AccountStatement(ctx context.Context, customerID string, q dto.StatementQuery) (*dto.AccountStatementResponse, error) {
	c, err := uc.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	open, err := uc.installmentRepo.ListOpenByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	out := &dto.AccountStatementResponse{
		CustomerID:   c.ID,
		CustomerName: c.Name,
		TotalDebt:    decimal.Zero,
		TotalOverdue: decimal.Zero,
		Buckets:      make(map[string]decimal.Decimal, len(entity.AgingBuckets)),
		Lines:        []dto.StatementLine{},
		GeneratedAt:  now,
	}
	for _, b := range entity.AgingBuckets {
		out.Buckets[b] = decimal.Zero
	}
	for _, oi := range open {
		days := entity.DaysOverdue(oi.DueDate, now)
		bucket := entity.AgingBucket(days)
		out.Buckets[bucket] = out.Buckets[bucket].Add(oi.Balance)
		out.TotalDebt = out.TotalDebt.Add(oi.Balance)
		if days > 0 {
			out.TotalOverdue = out.TotalOverdue.Add(oi.Balance)
		} else if q.OnlyOverdue {
			continue
		}
		out.Lines = append(out.Lines, dto.StatementLine{
			InstallmentResponse: dto.InstallmentFromEntity(&oi.Installment),
			SaleID:              oi.SaleID,
			DaysOverdue:         max(days, 0),
			Bucket:              bucket,
		})
	}
	return out, nil
}

func toResponses(list []*entity.Payment) []dto.PaymentResponse {
	out := make([]dto.PaymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.PaymentFromEntity(p))
	}
	return out
}

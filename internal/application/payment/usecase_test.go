package payment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/application/payment"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/erp-ledger/pkg/logger"
)

const (
	actorID    = "a0000000-0000-0000-0000-000000000001"
	customerID = "30000000-0000-0000-0000-000000000001"
	otherCust  = "30000000-0000-0000-0000-000000000002"
	cashBoxID  = "50000000-0000-0000-0000-000000000001"
)

type fixture struct {
	store *memory.Store
	repos repository.TxRepos
	uc    *payment.UseCase
	now   time.Time
}

func newFixture(t *testing.T, cfg payment.Config) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddCustomer(entity.Customer{ID: customerID, Name: "Ferretería Central", Active: true})
	store.AddCustomer(entity.Customer{ID: otherCust, Name: "Otro", Active: true})
	store.AddCashBox(entity.CashBox{ID: cashBoxID, Name: "Caja principal", Currency: "COP", Active: true})
	repos := store.Repos()
	f := &fixture{
		store: store,
		repos: repos,
		uc:    payment.NewUseCase(store, repos.Payments, repos.Installments, repos.Customers, repos.Sales, cfg, nil, logger.Nop()),
		now:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.uc.SetClock(func() time.Time { return f.now })
	return f
}

// newSale inserta una venta emitida del cliente.
func (f *fixture) newSale(t *testing.T, customer string, total int64) string {
	t.Helper()
	id := uuid.New().String()
	err := f.store.Run(context.Background(), func(repos repository.TxRepos) error {
		return repos.Sales.Create(context.Background(), &entity.Sale{
			ID: id, OrderID: uuid.New().String(), CustomerID: customer, ActorID: actorID,
			PaymentType: entity.SalePaymentCredit, Status: entity.SaleIssued,
			Total: decimal.NewFromInt(total), CreatedAt: f.now,
		})
	})
	require.NoError(t, err)
	return id
}

func saleApp(saleID string, amount int64) dto.ApplicationRequest {
	return dto.ApplicationRequest{TargetType: entity.TargetSale, SaleID: saleID, Amount: decimal.NewFromInt(amount)}
}

func installmentApp(id string, amount int64) dto.ApplicationRequest {
	return dto.ApplicationRequest{TargetType: entity.TargetInstallment, InstallmentID: id, Amount: decimal.NewFromInt(amount)}
}

func (f *fixture) apply(total int64, apps ...dto.ApplicationRequest) (*dto.PaymentResponse, error) {
	return f.uc.Apply(context.Background(), actorID, dto.ApplyPaymentRequest{
		CustomerID: customerID, Method: entity.PaymentMethodCash, Total: decimal.NewFromInt(total),
		CashBoxID: cashBoxID, Applications: apps,
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Registrar pago
// ──────────────────────────────────────────────────────────────────────────────

func TestApply_SumaDistintaDelTotal_PaymentError(t *testing.T) {
	f := newFixture(t, payment.Config{})
	sale := f.newSale(t, customerID, 200)

	_, err := f.apply(100, saleApp(sale, 60), saleApp(sale, 30))
	var pe *domain.PaymentError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := f.uc.ListByCustomer(context.Background(), customerID)
	require.NoError(t, err)
	assert.Empty(t, list, "no se registra nada")
	assert.Empty(t, f.store.CashMovements())
}

func TestApply_VentaQuedaPagadaYSeRegistraCaja(t *testing.T) {
	f := newFixture(t, payment.Config{})
	ctx := context.Background()
	sale := f.newSale(t, customerID, 100)

	_, err := f.apply(60, saleApp(sale, 60))
	require.NoError(t, err)
	s, err := f.repos.Sales.GetByID(ctx, sale)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleIssued, s.Status, "pago parcial")

	p, err := f.apply(40, saleApp(sale, 40))
	require.NoError(t, err)
	assert.Equal(t, cashBoxID, p.CashBoxID)
	require.Len(t, p.Applications, 1)
	assert.Equal(t, entity.ApplicationPrincipal, p.Applications[0].Type)

	s, err = f.repos.Sales.GetByID(ctx, sale)
	require.NoError(t, err)
	assert.Equal(t, entity.SalePaid, s.Status)

	moves := f.store.CashMovements()
	require.Len(t, moves, 2)
	assert.Equal(t, entity.CashIncome, moves[1].Type)
	assert.True(t, decimal.NewFromInt(40).Equal(moves[1].Amount))
	assert.Equal(t, p.ID, moves[1].PaymentID)

	bySale, err := f.uc.ListBySale(ctx, sale)
	require.NoError(t, err)
	assert.Len(t, bySale, 2)
}

func TestApply_CajaPorDefectoYCajaRequerida(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, payment.Config{DefaultCashBoxID: cashBoxID})
	sale := f.newSale(t, customerID, 50)
	p, err := f.uc.Apply(ctx, actorID, dto.ApplyPaymentRequest{
		CustomerID: customerID, Method: entity.PaymentMethodTransfer, Total: decimal.NewFromInt(50),
		Applications: []dto.ApplicationRequest{saleApp(sale, 50)},
	})
	require.NoError(t, err)
	assert.Equal(t, cashBoxID, p.CashBoxID)

	bare := newFixture(t, payment.Config{})
	sale = bare.newSale(t, customerID, 50)
	_, err = bare.uc.Apply(ctx, actorID, dto.ApplyPaymentRequest{
		CustomerID: customerID, Method: entity.PaymentMethodCash, Total: decimal.NewFromInt(50),
		Applications: []dto.ApplicationRequest{saleApp(sale, 50)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApply_ObjetivosInvalidos(t *testing.T) {
	f := newFixture(t, payment.Config{})
	foreign := f.newSale(t, otherCust, 80)

	_, err := f.apply(80, saleApp(foreign, 80))
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "venta de otro cliente")

	_, err = f.apply(10, saleApp(uuid.New().String(), 10))
	var pe *domain.PaymentError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.apply(10, installmentApp(uuid.New().String(), 10))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.Apply(context.Background(), actorID, dto.ApplyPaymentRequest{
		CustomerID: customerID, Method: "CHEQUE", Total: decimal.NewFromInt(10), CashBoxID: cashBoxID,
		Applications: []dto.ApplicationRequest{saleApp(foreign, 10)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "método no soportado")

	_, err = f.apply(0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	mine := f.newSale(t, customerID, 10)
	typed := saleApp(mine, 10)
	typed.Type = "REGALO"
	_, err = f.apply(10, typed)
	require.True(t, errors.As(err, &pe), "tipo de aplicación desconocido")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "REGALO")

	typed.Type = entity.ApplicationPenalty
	_, err = f.apply(10, typed)
	require.NoError(t, err, "los tipos conocidos se aceptan")
	assert.Len(t, f.store.CashMovements(), 1)
}

func TestApply_CuotaDeOtroCliente_NoSeDescuenta(t *testing.T) {
	f := newFixture(t, payment.Config{})
	ctx := context.Background()
	foreign := f.newSale(t, otherCust, 100)
	plan, err := f.uc.CreatePlan(ctx, actorID, dto.CreatePlanRequest{SaleID: foreign, Installments: 1, FirstDueDate: f.now})
	require.NoError(t, err)
	inst := plan.Installments[0]

	_, err = f.apply(100, installmentApp(inst.ID, 100))
	var pe *domain.PaymentError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "no pertenece al cliente")

	got, err := f.repos.Installments.GetForUpdate(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InstallmentPending, got.Status)
	assert.Equal(t, "100.00", got.Balance.StringFixed(2))
	assert.Empty(t, f.store.CashMovements())

	s, err := f.repos.Sales.GetByID(ctx, foreign)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleIssued, s.Status)
}

func TestApply_ExcedeSaldoDeLaVenta_PaymentError(t *testing.T) {
	f := newFixture(t, payment.Config{})
	ctx := context.Background()
	sale := f.newSale(t, customerID, 100)

	_, err := f.apply(150, saleApp(sale, 150))
	var pe *domain.PaymentError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.apply(70, saleApp(sale, 70))
	require.NoError(t, err)
	_, err = f.apply(40, saleApp(sale, 20), saleApp(sale, 20))
	require.True(t, errors.As(err, &pe), "la suma por venta también cuenta")

	_, err = f.apply(30, saleApp(sale, 30))
	require.NoError(t, err)
	_, err = f.apply(1, saleApp(sale, 1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "venta ya pagada")

	bySale, err := f.uc.ListBySale(ctx, sale)
	require.NoError(t, err)
	assert.Len(t, bySale, 2)
}

// ──────────────────────────────────────────────────────────────────────────────
// Plan de pagos y cuotas
// ──────────────────────────────────────────────────────────────────────────────

func TestCreatePlan_ResiduoEnLaUltimaCuota(t *testing.T) {
	f := newFixture(t, payment.Config{})
	ctx := context.Background()
	sale := f.newSale(t, customerID, 100)
	first := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	plan, err := f.uc.CreatePlan(ctx, actorID, dto.CreatePlanRequest{SaleID: sale, Installments: 3, FirstDueDate: first})
	require.NoError(t, err)
	require.Len(t, plan.Installments, 3)
	assert.Equal(t, "33.33", plan.Installments[0].Principal.StringFixed(2))
	assert.Equal(t, "33.33", plan.Installments[1].Principal.StringFixed(2))
	assert.Equal(t, "33.34", plan.Installments[2].Principal.StringFixed(2))
	assert.Equal(t, first.AddDate(0, 0, 30), plan.Installments[1].DueDate, "intervalo por defecto")
	for _, in := range plan.Installments {
		assert.Equal(t, entity.InstallmentPending, in.Status)
		assert.True(t, in.Balance.Equal(in.Total))
	}

	_, err = f.uc.CreatePlan(ctx, actorID, dto.CreatePlanRequest{SaleID: sale, Installments: 2, FirstDueDate: first})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestCreatePlan_InteresYSaldoPendiente(t *testing.T) {
	f := newFixture(t, payment.Config{})
	ctx := context.Background()
	sale := f.newSale(t, customerID, 300)
	_, err := f.apply(100, saleApp(sale, 100))
	require.NoError(t, err)

	plan, err := f.uc.CreatePlan(ctx, actorID, dto.CreatePlanRequest{
		SaleID: sale, Installments: 2, FirstDueDate: f.now, IntervalDays: 15, InterestRate: decimal.RequireFromString("0.1"),
	})
	require.NoError(t, err)
	require.Len(t, plan.Installments, 2)
	assert.Equal(t, "100.00", plan.Installments[0].Principal.StringFixed(2), "solo el saldo pendiente")
	assert.Equal(t, "10.00", plan.Installments[0].Interest.StringFixed(2))
	assert.Equal(t, "110.00", plan.Installments[1].Total.StringFixed(2))
	assert.Equal(t, f.now.AddDate(0, 0, 15), plan.Installments[1].DueDate)

	paid := f.newSale(t, customerID, 20)
	_, err = f.apply(20, saleApp(paid, 20))
	require.NoError(t, err)
	_, err = f.uc.CreatePlan(ctx, actorID, dto.CreatePlanRequest{SaleID: paid, Installments: 1, FirstDueDate: f.now})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin saldo")
}

func TestApply_Cuotas_PagadaYParcial(t *testing.T) {
	f := newFixture(t, payment.Config{})
	ctx := context.Background()
	sale := f.newSale(t, customerID, 400)
	plan, err := f.uc.CreatePlan(ctx, actorID, dto.CreatePlanRequest{SaleID: sale, Installments: 2, FirstDueDate: f.now})
	require.NoError(t, err)
	first, second := plan.Installments[0], plan.Installments[1]

	_, err = f.apply(250, installmentApp(first.ID, 200), installmentApp(second.ID, 50))
	require.NoError(t, err)

	got, err := f.repos.Installments.GetForUpdate(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InstallmentPaid, got.Status)
	assert.True(t, got.Balance.IsZero())

	got, err = f.repos.Installments.GetForUpdate(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.InstallmentPartial, got.Status)
	assert.Equal(t, "150.00", got.Balance.StringFixed(2))

	s, err := f.repos.Sales.GetByID(ctx, sale)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleIssued, s.Status, "el plan aún tiene saldo")

	_, err = f.apply(500, installmentApp(second.ID, 500))
	require.NoError(t, err)
	got, err = f.repos.Installments.GetForUpdate(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero(), "el saldo no queda negativo")
	assert.Equal(t, entity.InstallmentPaid, got.Status)

	s, err = f.repos.Sales.GetByID(ctx, sale)
	require.NoError(t, err)
	assert.Equal(t, entity.SalePaid, s.Status, "plan saldado")
}

func TestApply_VentaConPlan_SoloPorCuotas(t *testing.T) {
	f := newFixture(t, payment.Config{})
	ctx := context.Background()
	sale := f.newSale(t, customerID, 100)
	plan, err := f.uc.CreatePlan(ctx, actorID, dto.CreatePlanRequest{SaleID: sale, Installments: 1, FirstDueDate: f.now})
	require.NoError(t, err)

	_, err = f.apply(100, saleApp(sale, 100))
	var pe *domain.PaymentError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, err.Error(), "plan de pagos")

	_, err = f.apply(100, installmentApp(plan.Installments[0].ID, 100))
	require.NoError(t, err)

	s, err := f.repos.Sales.GetByID(ctx, sale)
	require.NoError(t, err)
	assert.Equal(t, entity.SalePaid, s.Status)

	applied, err := f.repos.Payments.AppliedToSale(ctx, sale)
	require.NoError(t, err)
	assert.Equal(t, "100.00", applied.StringFixed(2))

	bySale, err := f.uc.ListBySale(ctx, sale)
	require.NoError(t, err)
	require.Len(t, bySale, 1, "los pagos a cuotas aparecen en la venta")
	assert.Equal(t, entity.TargetInstallment, bySale[0].Applications[0].TargetType)
}

// ──────────────────────────────────────────────────────────────────────────────
// Estado de cuenta
// ──────────────────────────────────────────────────────────────────────────────

func TestAccountStatement_AntiguedadYSoloVencidas(t *testing.T) {
	f := newFixture(t, payment.Config{})
	ctx := context.Background()
	sale := f.newSale(t, customerID, 300)
	_, err := f.uc.CreatePlan(ctx, actorID, dto.CreatePlanRequest{
		SaleID: sale, Installments: 3, FirstDueDate: f.now.AddDate(0, 0, -45),
	})
	require.NoError(t, err)
	// vencimientos: hace 45 días, hace 15 días, dentro de 15 días

	st, err := f.uc.AccountStatement(ctx, customerID, dto.StatementQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Ferretería Central", st.CustomerName)
	assert.Equal(t, "300.00", st.TotalDebt.StringFixed(2))
	assert.Equal(t, "200.00", st.TotalOverdue.StringFixed(2))
	assert.Equal(t, "100.00", st.Buckets[entity.Bucket31To60].StringFixed(2))
	assert.Equal(t, "100.00", st.Buckets[entity.Bucket1To30].StringFixed(2))
	assert.Equal(t, "100.00", st.Buckets[entity.BucketCurrent].StringFixed(2))
	assert.True(t, st.Buckets[entity.BucketOver90].IsZero())
	require.Len(t, st.Lines, 3)
	assert.Equal(t, 45, st.Lines[0].DaysOverdue)
	assert.Equal(t, 0, st.Lines[2].DaysOverdue)

	overdue, err := f.uc.AccountStatement(ctx, customerID, dto.StatementQuery{OnlyOverdue: true})
	require.NoError(t, err)
	assert.Len(t, overdue.Lines, 2)
	assert.Equal(t, st.TotalDebt.String(), overdue.TotalDebt.String(), "los totales no se filtran")

	_, err = f.uc.AccountStatement(ctx, uuid.New().String(), dto.StatementQuery{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

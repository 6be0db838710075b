package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

func copyPayment(p entity.Payment) entity.Payment {
	p.Applications = append([]entity.Application(nil), p.Applications...)
	return p
}

// ─── Pagos ───────────────────────────────────────────────────────────────────

type paymentRepo struct{ a accessor }

func (r paymentRepo) Create(_ context.Context, p *entity.Payment) error {
	return r.a.write(func(st *state) error {
		st.payments = append(st.payments, copyPayment(*p))
		return nil
	})
}

func (r paymentRepo) ListByCustomer(_ context.Context, customerID string) ([]*entity.Payment, error) {
	return r.list(func(p entity.Payment) bool { return p.CustomerID == customerID })
}

// appliesToSale indica si la aplicación va a la venta, directo o a una cuota de su plan.
func appliesToSale(st *state, a entity.Application, saleID string) bool {
	switch a.TargetType {
	case entity.TargetSale:
		return a.SaleID == saleID
	case entity.TargetInstallment:
		in, ok := st.installments[a.InstallmentID]
		return ok && st.agreements[in.AgreementID].SaleID == saleID
	}
	return false
}

func (r paymentRepo) ListBySale(_ context.Context, saleID string) ([]*entity.Payment, error) {
	var out []*entity.Payment
	err := r.a.read(func(st *state) error {
		for i := len(st.payments) - 1; i >= 0; i-- {
			for _, a := range st.payments[i].Applications {
				if appliesToSale(st, a, saleID) {
					c := copyPayment(st.payments[i])
					out = append(out, &c)
					break
				}
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r paymentRepo) AppliedToSale(_ context.Context, saleID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.a.read(func(st *state) error {
		for _, p := range st.payments {
			for _, a := range p.Applications {
				if appliesToSale(st, a, saleID) {
					sum = sum.Add(a.Amount)
				}
			}
		}
		return nil
	})
	return sum, err
}

func (r paymentRepo) PlanBalance(_ context.Context, saleID string) (decimal.Decimal, bool, error) {
	sum, hasPlan := decimal.Zero, false
	err := r.a.read(func(st *state) error {
		for _, ag := range st.agreements {
			if ag.SaleID == saleID {
				hasPlan = true
			}
		}
		for _, in := range st.installments {
			if st.agreements[in.AgreementID].SaleID == saleID {
				sum = sum.Add(in.Balance)
			}
		}
		return nil
	})
	return sum, hasPlan, err
}

// list devuelve los pagos que cumplen keep, más recientes primero.
func (r paymentRepo) list(keep func(entity.Payment) bool) ([]*entity.Payment, error) {
	var out []*entity.Payment
	err := r.a.read(func(st *state) error {
		for i := len(st.payments) - 1; i >= 0; i-- {
			if keep(st.payments[i]) {
				c := copyPayment(st.payments[i])
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

// ─── Planes de pago y cuotas ─────────────────────────────────────────────────

type installmentRepo struct{ a accessor }

func (r installmentRepo) CreateAgreement(_ context.Context, ag *entity.PaymentAgreement) error {
	return r.a.write(func(st *state) error {
		numbers := map[int]bool{}
		for _, in := range ag.Installments {
			if numbers[in.Number] {
				return domain.NewDuplicateError("cuota", fmt.Sprintf("%s/%d", ag.ID, in.Number))
			}
			numbers[in.Number] = true
		}
		c := *ag
		c.Installments = nil
		st.agreements[ag.ID] = c
		for _, in := range ag.Installments {
			st.installments[in.ID] = in
		}
		return nil
	})
}

func (r installmentRepo) GetForUpdate(_ context.Context, id string) (*entity.Installment, error) {
	var out *entity.Installment
	err := r.a.read(func(st *state) error {
		if in, ok := st.installments[id]; ok {
			out = &in
		}
		return nil
	})
	return out, err
}

func (r installmentRepo) GetAgreement(_ context.Context, id string) (*entity.PaymentAgreement, error) {
	var out *entity.PaymentAgreement
	err := r.a.read(func(st *state) error {
		if ag, ok := st.agreements[id]; ok {
			out = &ag
		}
		return nil
	})
	return out, err
}

func (r installmentRepo) Update(_ context.Context, in *entity.Installment) error {
	return r.a.write(func(st *state) error {
		if _, ok := st.installments[in.ID]; !ok {
			return fmt.Errorf("cuota %s: %w", in.ID, domain.ErrNotFound)
		}
		st.installments[in.ID] = *in
		return nil
	})
}

func (r installmentRepo) ListOpenByCustomer(_ context.Context, customerID string) ([]*entity.OpenInstallment, error) {
	var out []*entity.OpenInstallment
	err := r.a.read(func(st *state) error {
		for _, in := range st.installments {
			ag := st.agreements[in.AgreementID]
			if ag.CustomerID != customerID || !in.Balance.IsPositive() {
				continue
			}
			out = append(out, &entity.OpenInstallment{
				Installment:  in,
				CustomerID:   ag.CustomerID,
				CustomerName: st.customers[ag.CustomerID].Name,
				SaleID:       ag.SaleID,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].Number < out[j].Number
	})
	return out, err
}

func (r installmentRepo) ExistsForSale(_ context.Context, saleID string) (bool, error) {
	found := false
	err := r.a.read(func(st *state) error {
		for _, ag := range st.agreements {
			if ag.SaleID == saleID {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

// ─── Caja ────────────────────────────────────────────────────────────────────

type cashRepo struct{ a accessor }

func (r cashRepo) GetBox(_ context.Context, id string) (*entity.CashBox, error) {
	var out *entity.CashBox
	err := r.a.read(func(st *state) error {
		if b, ok := st.cashBoxes[id]; ok {
			out = &b
		}
		return nil
	})
	return out, err
}

func (r cashRepo) CreateMovement(_ context.Context, m *entity.CashMovement) error {
	return r.a.write(func(st *state) error {
		st.cashMoves = append(st.cashMoves, *m)
		return nil
	})
}

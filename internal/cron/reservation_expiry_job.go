package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/pkg/logger"
	"github.com/jhoicas/erp-ledger/pkg/metrics"
)

// ReservationExpiryJobName nombre del trabajo en logs y métricas.
const ReservationExpiryJobName = "reservation_expiry"

const defaultBatchSize = 100

// orderExpirer cancela un pedido cuyas reservas vencieron (order.UseCase.Expire).
type orderExpirer interface {
	Expire(ctx context.Context, orderID string) (bool, error)
}

// ReservationExpiryJobParams configuración del trabajo.
type ReservationExpiryJobParams struct {
	Logger       *logger.Logger
	Reservations repository.ReservationRepository
	Orders       orderExpirer
	Metrics      *metrics.CronJobMetrics
	BatchSize    int
	Now          func() time.Time
}

type reservationExpiryJob struct {
	log          *logger.Logger
	reservations repository.ReservationRepository
	orders       orderExpirer
	metrics      *metrics.CronJobMetrics
	batch        int
	now          func() time.Time
}

// NewReservationExpiryJob construye el trabajo que cancela pedidos con reservas vencidas.
func NewReservationExpiryJob(params ReservationExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, errors.New("cron: logger requerido")
	}
	if params.Reservations == nil {
		return nil, errors.New("cron: repositorio de reservas requerido")
	}
	if params.Orders == nil {
		return nil, errors.New("cron: caso de uso de pedidos requerido")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &reservationExpiryJob{
		log:          params.Logger.Component(ReservationExpiryJobName),
		reservations: params.Reservations,
		orders:       params.Orders,
		metrics:      params.Metrics,
		batch:        batch,
		now:          now,
	}, nil
}

func (j *reservationExpiryJob) Name() string { return ReservationExpiryJobName }

// Run procesa un lote. Cada pedido va en su propia transacción; los errores se acumulan
// y el resto del lote sigue.
func (j *reservationExpiryJob) Run(ctx context.Context) error {
	ids, err := j.reservations.ListExpiredOrderIDs(ctx, j.now(), j.batch)
	if err != nil {
		return fmt.Errorf("listar reservas vencidas: %w", err)
	}
	var (
		errs    error
		expired int
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		ok, err := j.orders.Expire(ctx, id)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("pedido %s: %w", id, err))
			continue
		}
		if ok {
			expired++
		}
	}
	j.metrics.AddItems(ReservationExpiryJobName, expired)
	if len(ids) > 0 {
		j.log.Info().Int("candidates", len(ids)).Int("expired", expired).
			Int("failed", len(multierr.Errors(errs))).Msg("reservas vencidas procesadas")
	}
	return errs
}

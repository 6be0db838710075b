// Package cron ejecuta trabajos programados (vencimiento de reservas) con un lock
// distribuido para que solo una instancia corra cada ciclo.
package cron

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/erp-ledger/pkg/logger"
	"github.com/jhoicas/erp-ledger/pkg/metrics"
)

const defaultInterval = 5 * time.Minute

// Job trabajo programado.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// ServiceParams configuración del servicio.
type ServiceParams struct {
	Logger   *logger.Logger
	Jobs     []Job
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// Service ejecuta los trabajos registrados con una cadencia fija.
type Service struct {
	log      *logger.Logger
	jobs     []Job
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
}

// NewService construye el servicio.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("cron: logger requerido")
	}
	if params.Lock == nil {
		return nil, errors.New("cron: lock requerido")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	jobs := make([]Job, 0, len(params.Jobs))
	for _, j := range params.Jobs {
		if j != nil {
			jobs = append(jobs, j)
		}
	}
	return &Service{
		log:      params.Logger.Component("cron"),
		jobs:     jobs,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run corre un ciclo inmediato y luego uno por intervalo hasta que ctx se cancele.
func (s *Service) Run(ctx context.Context) error {
	if err := s.RunCycle(ctx); err != nil {
		s.log.Error().Err(err).Msg("ciclo programado falló")
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("cron detenido")
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunCycle(ctx); err != nil {
				s.log.Error().Err(err).Msg("ciclo programado falló")
			}
		}
	}
}

// RunCycle toma el lock y ejecuta todos los trabajos. Si otra instancia tiene el lock,
// el ciclo se omite. El fallo de un trabajo no impide correr los demás.
func (s *Service) RunCycle(ctx context.Context) error {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !locked {
		s.log.Debug().Msg("otra instancia ejecuta el ciclo; se omite")
		return nil
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.log.Error().Err(relErr).Msg("no se pudo liberar el lock del cron")
		}
	}()
	for _, job := range s.jobs {
		s.runJob(ctx, job)
	}
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) {
	start := time.Now()
	err := job.Run(ctx)
	d := time.Since(start)
	s.metrics.ObserveDuration(job.Name(), d)
	ev := s.log.Info()
	if err != nil {
		ev = s.log.Error().Err(err)
		s.metrics.IncFailure(job.Name())
	} else {
		s.metrics.IncSuccess(job.Name())
	}
	ev.Str("job", job.Name()).Int64("duration_ms", d.Milliseconds()).Msg("trabajo ejecutado")
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics registra movimientos de inventario y resultados de los flujos
// (pedidos, compras, pagos). Un *LedgerMetrics nil es válido y no hace nada.
type LedgerMetrics struct {
	movements *prometheus.CounterVec
	quantity  *prometheus.CounterVec
	workflows *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewLedgerMetrics registra los colectores en reg. Con reg nil devuelve métricas inertes.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "erp_inventory_movements_total",
		Help: "Movimientos de inventario registrados por tipo.",
	}, []string{"kind"})
	quantity := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "erp_inventory_quantity_total",
		Help: "Cantidad absoluta movida por tipo de movimiento.",
	}, []string{"kind"})
	workflows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "erp_workflow_operations_total",
		Help: "Operaciones de flujo por operación y resultado.",
	}, []string{"operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "erp_workflow_duration_seconds",
		Help:    "Duración de las operaciones de flujo.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(movements, quantity, workflows, duration)
	return &LedgerMetrics{
		movements: movements,
		quantity:  quantity,
		workflows: workflows,
		duration:  duration,
	}
}

// ObserveMovement cuenta un movimiento confirmado.
func (m *LedgerMetrics) ObserveMovement(kind string, absQty float64) {
	if m == nil || m.movements == nil {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(kind)).Inc()
	m.quantity.WithLabelValues(normalizeLabel(kind)).Add(absQty)
}

// ObserveWorkflow registra el resultado y la duración de una operación.
func (m *LedgerMetrics) ObserveWorkflow(operation string, err error, d time.Duration) {
	if m == nil || m.workflows == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.workflows.WithLabelValues(normalizeLabel(operation), outcome).Inc()
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

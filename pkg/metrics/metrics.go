package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics agrupa los contadores del núcleo de inventario y punto de venta.
// Todos los métodos toleran un receptor nil o sin registrar.
type Metrics struct {
	checkouts    *prometheus.CounterVec
	stockOps     *prometheus.CounterVec
	lockTimeouts prometheus.Counter
	syncItems    *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	jobSuccess   *prometheus.CounterVec
	jobFailure   *prometheus.CounterVec
}

// New registra las métricas en el registerer dado. Con reg nil devuelve métricas inertes.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_checkouts_total",
			Help: "Checkouts procesados por resultado.",
		}, []string{"result"}),
		stockOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_operations_total",
			Help: "Operaciones de stock (adjust, transfer, consume, restore) por resultado.",
		}, []string{"op", "result"}),
		lockTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stock_lock_timeouts_total",
			Help: "Transacciones abortadas por no obtener el bloqueo de una línea de stock.",
		}),
		syncItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_sync_items_total",
			Help: "Transacciones externas reproducidas por estado.",
		}, []string{"status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Duración de trabajos programados en segundos.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		jobSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_success",
			Help: "Ejecuciones exitosas de trabajos programados.",
		}, []string{"job"}),
		jobFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_failure",
			Help: "Ejecuciones fallidas de trabajos programados.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.checkouts, m.stockOps, m.lockTimeouts, m.syncItems, m.jobDuration, m.jobSuccess, m.jobFailure)
	return m
}

// IncCheckout cuenta un checkout con el resultado dado.
func (m *Metrics) IncCheckout(result string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncStockOp cuenta una operación de stock.
func (m *Metrics) IncStockOp(op, result string) {
	if m == nil || m.stockOps == nil {
		return
	}
	m.stockOps.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}

// IncLockTimeout cuenta un timeout de bloqueo.
func (m *Metrics) IncLockTimeout() {
	if m == nil || m.lockTimeouts == nil {
		return
	}
	m.lockTimeouts.Inc()
}

// IncSyncItem cuenta una transacción reproducida por el adaptador de sincronización.
func (m *Metrics) IncSyncItem(status string) {
	if m == nil || m.syncItems == nil {
		return
	}
	m.syncItems.WithLabelValues(normalizeLabel(status)).Inc()
}

// ObserveJob registra duración y resultado de un trabajo programado.
func (m *Metrics) ObserveJob(job string, duration time.Duration, err error) {
	if m == nil || m.jobDuration == nil {
		return
	}
	label := normalizeLabel(job)
	m.jobDuration.WithLabelValues(label).Observe(duration.Seconds())
	if err != nil {
		m.jobFailure.WithLabelValues(label).Inc()
		return
	}
	m.jobSuccess.WithLabelValues(label).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

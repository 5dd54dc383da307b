package scan

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "personawatch"
	MetricsSubsystem = "scan"
)

// Metrics holds the Prometheus collectors of the orchestrator. A nil *Metrics records nothing.
type Metrics struct {
	ScansTotal       *prometheus.CounterVec
	ScanDuration     prometheus.Histogram
	AdapterDuration  *prometheus.HistogramVec
	AdapterErrors    *prometheus.CounterVec
	RecordsFound     *prometheus.CounterVec
	RecordsNew       *prometheus.CounterVec
	RecordsDuplicate *prometheus.CounterVec
}

// NewMetrics creates and registers the scan metrics on reg, or on the default registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "scans_total",
			Help:      "Total number of scans by final state",
		}, []string{"state"}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "duration_seconds",
			Help:      "Duration of a whole scan in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12), // 250ms to ~8.5min
		}),
		AdapterDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "adapter_duration_seconds",
			Help:      "Duration of one adapter invocation in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 13),
		}, []string{"adapter"}),
		AdapterErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "adapter_errors_total",
			Help:      "Total number of failed adapter invocations",
		}, []string{"adapter"}),
		RecordsFound: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "records_found_total",
			Help:      "Records returned by adapters before deduplication",
		}, []string{"adapter"}),
		RecordsNew: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "records_new_total",
			Help:      "Records kept as new after deduplication",
		}, []string{"adapter"}),
		RecordsDuplicate: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "records_duplicate_total",
			Help:      "Records dropped because their fingerprint was already known",
		}, []string{"adapter"}),
	}
}

func (m *Metrics) observeAdapter(r adapterResult, kept int) {
	if m == nil {
		return
	}
	m.AdapterDuration.WithLabelValues(r.name).Observe(r.elapsed.Seconds())
	m.RecordsFound.WithLabelValues(r.name).Add(float64(len(r.records)))
	m.RecordsNew.WithLabelValues(r.name).Add(float64(kept))
	m.RecordsDuplicate.WithLabelValues(r.name).Add(float64(len(r.records) - kept))
	if r.err != nil {
		m.AdapterErrors.WithLabelValues(r.name).Inc()
	}
}

func (m *Metrics) observeScan(state string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(state).Inc()
	m.ScanDuration.Observe(elapsed.Seconds())
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	CalcProductionTime = "production_time"
	CalcRawMaterial    = "raw_material"

	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

type Metrics struct {
	Requests     *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	Calculations *prometheus.CounterVec
}

// New регистрирует метрики в reg. В main — prometheus.DefaultRegisterer,
// в тестах — отдельный prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "planner",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "calculations_total",
			Help:      "Planning calculations by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	reg.MustRegister(m.Requests, m.Duration, m.Calculations)
	return m
}

func (m *Metrics) Calc(kind, outcome string) {
	if m == nil {
		return
	}
	m.Calculations.WithLabelValues(kind, outcome).Inc()
}

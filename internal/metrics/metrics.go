package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kalletarpila/swingmaster/internal/core"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics for the scrape endpoint
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Run metrics
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	evaluations      *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	guardrailBlocks  *prometheus.CounterVec
	insufficientData prometheus.Counter
	lastRunTickers   prometheus.Gauge
	lastRunTimestamp prometheus.Gauge
	healthAlerts     *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingmaster_runs_total",
			Help: "Total number of daily runs",
		},
		[]string{"policy", "status"},
	)
	r.runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "swingmaster_run_duration_seconds",
			Help:    "Daily run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)
	r.evaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingmaster_evaluations_total",
			Help: "Ticker evaluations by final state",
		},
		[]string{"state"},
	)
	r.transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingmaster_transitions_total",
			Help: "State transitions by source and target state",
		},
		[]string{"from", "to"},
	)
	r.guardrailBlocks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingmaster_guardrail_blocks_total",
			Help: "Proposed transitions rejected by the guardrail",
		},
		[]string{"from", "proposed"},
	)
	r.insufficientData = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "swingmaster_data_insufficient_total",
			Help: "Evaluations that had too little market data",
		},
	)
	r.lastRunTickers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "swingmaster_last_run_tickers",
			Help: "Number of tickers evaluated by the last run",
		},
	)
	r.lastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "swingmaster_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		},
	)
	r.healthAlerts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingmaster_health_alerts_total",
			Help: "Run health rules that fired",
		},
		[]string{"rule", "severity"},
	)

	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.evaluations)
	reg.MustRegister(r.transitions)
	reg.MustRegister(r.guardrailBlocks)
	reg.MustRegister(r.insufficientData)
	reg.MustRegister(r.lastRunTickers)
	reg.MustRegister(r.lastRunTimestamp)
	reg.MustRegister(r.healthAlerts)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordRun records a finished run.
func (r *Registry) RecordRun(policy, status string, tickers int, duration, finishedUnix float64) {
	r.runsTotal.WithLabelValues(policy, status).Inc()
	r.runDuration.Observe(duration)
	r.lastRunTickers.Set(float64(tickers))
	r.lastRunTimestamp.Set(finishedUnix)
}

// RecordEvaluation records one ticker evaluation.
func (r *Registry) RecordEvaluation(final core.State, insufficient bool) {
	r.evaluations.WithLabelValues(final.String()).Inc()
	if insufficient {
		r.insufficientData.Inc()
	}
}

// RecordTransition records a state change.
func (r *Registry) RecordTransition(from, to core.State) {
	r.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

// RecordGuardrailBlock records a rejected proposal.
func (r *Registry) RecordGuardrailBlock(from, proposed core.State) {
	r.guardrailBlocks.WithLabelValues(from.String(), proposed.String()).Inc()
}

// RecordHealthAlert counts a fired run health rule.
func (r *Registry) RecordHealthAlert(rule, severity string) {
	r.healthAlerts.WithLabelValues(rule, severity).Inc()
}

// WriteTextfile writes the registry in node_exporter textfile format.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Registry)
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}

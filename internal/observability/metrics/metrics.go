package metrics

import "github.com/prometheus/client_golang/prometheus"

// AssistantMetrics exposes counters/histograms for the assistant pipeline.
type AssistantMetrics struct {
	searchTotal    *prometheus.CounterVec
	searchLatency  *prometheus.HistogramVec
	crisisTotal    *prometheus.CounterVec
	torUnavailable prometheus.Counter
	redactionTotal prometheus.Counter
}

func NewAssistantMetrics(reg prometheus.Registerer) *AssistantMetrics {
	m := &AssistantMetrics{
		searchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carl",
			Subsystem: "assistant",
			Name:      "search_total",
			Help:      "Total assistant searches by answer tier and status",
		}, []string{"tier", "status"}),
		searchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carl",
			Subsystem: "assistant",
			Name:      "search_latency_seconds",
			Help:      "End-to-end latency of assistant searches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tier"}),
		crisisTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carl",
			Subsystem: "assistant",
			Name:      "crisis_total",
			Help:      "Crisis signals detected, by type",
		}, []string{"type"}),
		torUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "carl",
			Subsystem: "assistant",
			Name:      "tor_unavailable_total",
			Help:      "Requests refused because tor mode was selected without a tor channel",
		}),
		redactionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "carl",
			Subsystem: "assistant",
			Name:      "pii_redaction_total",
			Help:      "Messages where the sanitizer redacted at least one identifier",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.searchTotal, m.searchLatency, m.crisisTotal, m.torUnavailable, m.redactionTotal)
	return m
}

func (m *AssistantMetrics) ObserveSearch(tier, status string, seconds float64) {
	if m == nil {
		return
	}
	m.searchTotal.WithLabelValues(tier, status).Inc()
	m.searchLatency.WithLabelValues(tier).Observe(seconds)
}

func (m *AssistantMetrics) ObserveCrisis(crisisType string) {
	if m == nil {
		return
	}
	m.crisisTotal.WithLabelValues(crisisType).Inc()
}

func (m *AssistantMetrics) ObserveTorUnavailable() {
	if m == nil {
		return
	}
	m.torUnavailable.Inc()
}

func (m *AssistantMetrics) ObserveRedaction() {
	if m == nil {
		return
	}
	m.redactionTotal.Inc()
}

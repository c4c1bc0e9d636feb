package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the support-chat flows.
type ChatMetrics struct {
	turnsTotal      *prometheus.CounterVec
	bookingOutcomes *prometheus.CounterVec
	llmLatency      *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetchat",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns processed, by engine action",
		}, []string{"action"}),
		bookingOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vetchat",
			Subsystem: "booking",
			Name:      "outcomes_total",
			Help:      "Terminal booking outcomes",
		}, []string{"outcome"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vetchat",
			Subsystem: "chat",
			Name:      "llm_latency_seconds",
			Help:      "Latency of LLM completions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.bookingOutcomes, m.llmLatency)
	return m
}

func (m *ChatMetrics) ObserveTurn(action string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(action).Inc()
}

func (m *ChatMetrics) ObserveBookingOutcome(outcome string) {
	if m == nil {
		return
	}
	m.bookingOutcomes.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveLLMLatency(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(kind).Observe(seconds)
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the booking chat.
type ChatMetrics struct {
	turnsTotal        *prometheus.CounterVec
	transitionsTotal  *prometheus.CounterVec
	bookingsTotal     *prometheus.CounterVec
	slotQueryFailures prometheus.Counter
	slotDefaulted     prometheus.Counter
	turnLatency       *prometheus.HistogramVec
	activeSessions    prometheus.Gauge
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geecurly",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns handled, by step at turn start and classified intent",
		}, []string{"step", "intent"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geecurly",
			Subsystem: "chat",
			Name:      "transitions_total",
			Help:      "Booking flow step changes",
		}, []string{"from", "to"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geecurly",
			Subsystem: "chat",
			Name:      "bookings_total",
			Help:      "Booking attempts from the chat, by outcome",
		}, []string{"outcome"}),
		slotQueryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geecurly",
			Subsystem: "chat",
			Name:      "slot_query_failures_total",
			Help:      "Per-day availability queries that failed during a slot scan",
		}),
		slotDefaulted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "geecurly",
			Subsystem: "chat",
			Name:      "slot_defaulted_total",
			Help:      "Slot selections that fell back to the next-day default",
		}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "geecurly",
			Subsystem: "chat",
			Name:      "turn_latency_seconds",
			Help:      "Time spent computing a reply, excluding the typing delay",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "geecurly",
			Subsystem: "chat",
			Name:      "active_sessions",
			Help:      "Chat sessions currently held in memory",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.transitionsTotal, m.bookingsTotal, m.slotQueryFailures, m.slotDefaulted, m.turnLatency, m.activeSessions)
	return m
}

func (m *ChatMetrics) ObserveTurn(step, intent string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(step, intent).Inc()
}

func (m *ChatMetrics) ObserveTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *ChatMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveSlotQueryFailure() {
	if m == nil {
		return
	}
	m.slotQueryFailures.Inc()
}

func (m *ChatMetrics) ObserveSlotDefaulted() {
	if m == nil {
		return
	}
	m.slotDefaulted.Inc()
}

func (m *ChatMetrics) ObserveTurnLatency(step string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(step).Observe(seconds)
}

func (m *ChatMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for saga step counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// SagaMetrics records how far shoppers get through checkout and how long
// payment confirmation takes.
type SagaMetrics struct {
	steps    *prometheus.CounterVec
	confirm  *prometheus.HistogramVec
	handoffs *prometheus.CounterVec
}

// NewSagaMetrics registers the checkout saga metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewSagaMetrics(reg prometheus.Registerer) *SagaMetrics {
	if reg == nil {
		return &SagaMetrics{}
	}
	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_saga_step_total",
		Help: "Checkout saga steps by outcome.",
	}, []string{"step", "outcome"})
	confirm := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_confirm_duration_seconds",
		Help:    "Duration of backend payment confirmation calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	handoffs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "handoff_slot_operations_total",
		Help: "Handoff store operations by slot and result.",
	}, []string{"slot", "op", "result"})
	reg.MustRegister(steps, confirm, handoffs)
	return &SagaMetrics{
		steps:    steps,
		confirm:  confirm,
		handoffs: handoffs,
	}
}

// Step counts one execution of a saga step.
func (m *SagaMetrics) Step(step, outcome string) {
	if m == nil || m.steps == nil {
		return
	}
	m.steps.WithLabelValues(normalizeLabel(step), normalizeLabel(outcome)).Inc()
}

// ObserveConfirm records the duration of a confirmation call for provider.
func (m *SagaMetrics) ObserveConfirm(provider string, duration time.Duration) {
	if m == nil || m.confirm == nil {
		return
	}
	m.confirm.WithLabelValues(normalizeLabel(provider)).Observe(duration.Seconds())
}

// Handoff counts a handoff store operation, e.g. ("pendingPayment", "consume", "hit").
func (m *SagaMetrics) Handoff(slot, op, result string) {
	if m == nil || m.handoffs == nil {
		return
	}
	m.handoffs.WithLabelValues(normalizeLabel(slot), normalizeLabel(op), normalizeLabel(result)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

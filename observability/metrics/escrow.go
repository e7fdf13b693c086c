package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EscrowMetrics tracks state-machine activity: applied transitions,
// silently rejected calls by reason, host failures and emitted events.
type EscrowMetrics struct {
	applied   *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	failed    *prometheus.CounterVec
	emitted   *prometheus.CounterVec
	heldValue prometheus.Gauge
}

var (
	escrowOnce     sync.Once
	escrowRegistry *EscrowMetrics
)

func Escrow() *EscrowMetrics {
	escrowOnce.Do(func() {
		escrowRegistry = &EscrowMetrics{
			applied: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "escrow_transitions_applied_total",
				Help: "Count of applied escrow transitions by operation.",
			}, []string{"op"}),
			rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "escrow_calls_rejected_total",
				Help: "Count of silently rejected escrow calls by operation and reason.",
			}, []string{"op", "reason"}),
			failed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "escrow_host_failures_total",
				Help: "Count of invocations aborted by host or transfer failures.",
			}, []string{"op"}),
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "escrow_events_emitted_total",
				Help: "Count of emitted escrow events by type.",
			}, []string{"type"}),
			heldValue: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "escrow_vault_held_value",
				Help: "Principal currently held by the escrow vault.",
			}),
		}
		prometheus.MustRegister(
			escrowRegistry.applied,
			escrowRegistry.rejected,
			escrowRegistry.failed,
			escrowRegistry.emitted,
			escrowRegistry.heldValue,
		)
	})
	return escrowRegistry
}

func (m *EscrowMetrics) ObserveApplied(op string) {
	if m == nil {
		return
	}
	m.applied.WithLabelValues(op).Inc()
}

func (m *EscrowMetrics) ObserveRejection(op, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.rejected.WithLabelValues(op, reason).Inc()
}

func (m *EscrowMetrics) ObserveFailure(op string) {
	if m == nil {
		return
	}
	m.failed.WithLabelValues(op).Inc()
}

func (m *EscrowMetrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	m.emitted.WithLabelValues(eventType).Inc()
}

// SetHeldValue records the vault's current balance for dashboards.
func (m *EscrowMetrics) SetHeldValue(v float64) {
	if m == nil {
		return
	}
	m.heldValue.Set(v)
}

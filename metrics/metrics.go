package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "r4300"

// Metrics is the prometheus implementation of Metricer.
type Metrics struct {
	registry *prometheus.Registry

	instructions  *prometheus.CounterVec
	compiles      *prometheus.CounterVec
	lookups       *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	exceptions    *prometheus.CounterVec
	interrupts    *prometheus.CounterVec
	tlbMisses     *prometheus.CounterVec
	queueErrors   prometheus.Counter
	consistency   *prometheus.CounterVec
}

var _ Metricer = (*Metrics)(nil)

// NewMetrics creates metrics registered on a fresh registry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

func newMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,

		instructions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "instructions_total",
			Help:      "Retired instructions by execution mode",
		}, []string{"mode"}),
		compiles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "block_compiles_total",
			Help:      "Blocks decoded or compiled by execution mode",
		}, []string{"mode"}),
		lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "block_lookups_total",
			Help:      "Block cache lookups by execution mode and result",
		}, []string{"mode", "result"}),
		invalidations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "block_invalidations_total",
			Help:      "Cached blocks dropped because their code was written",
		}, []string{"mode"}),
		exceptions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "exceptions_total",
			Help:      "Exceptions taken by code",
		}, []string{"code"}),
		interrupts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "interrupt_events_total",
			Help:      "Interrupt queue events dispatched by type",
		}, []string{"type"}),
		tlbMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tlb_misses_total",
			Help:      "TLB misses by access kind",
		}, []string{"write"}),
		queueErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "queue_errors_total",
			Help:      "Events that could not be queued",
		}),
		consistency: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "consistency_checks_total",
			Help:      "CP0 consistency checks by result",
		}, []string{"result"}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordInstructions(mode string, n uint64) {
	m.instructions.WithLabelValues(mode).Add(float64(n))
}

func (m *Metrics) RecordBlockCompile(mode string) {
	m.compiles.WithLabelValues(mode).Inc()
}

func (m *Metrics) RecordBlockLookup(mode string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.WithLabelValues(mode, result).Inc()
}

func (m *Metrics) RecordBlockInvalidation(mode string, n int) {
	m.invalidations.WithLabelValues(mode).Add(float64(n))
}

func (m *Metrics) RecordException(code string) {
	m.exceptions.WithLabelValues(code).Inc()
}

func (m *Metrics) RecordInterrupt(kind string) {
	m.interrupts.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordTLBMiss(write bool) {
	m.tlbMisses.WithLabelValues(strconv.FormatBool(write)).Inc()
}

func (m *Metrics) RecordQueueError() {
	m.queueErrors.Inc()
}

func (m *Metrics) RecordConsistency(match bool) {
	result := "mismatch"
	if match {
		result = "match"
	}
	m.consistency.WithLabelValues(result).Inc()
}

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/anmar534/tender-pricing-engine/pkg/enums"
)

// SnapshotMetrics counts pricing snapshot activity. It is the only
// shared mutable state in the engine: construct one instance per
// process (or per test) and hand it to whichever component records
// events. All operations are safe for concurrent use.
type SnapshotMetrics struct {
	mu                     sync.Mutex
	creationsBySource      map[enums.SnapshotSource]uint64
	totalSnapshots         uint64
	integrityFailures      uint64
	rebuilds               uint64
	lastCreationAt         map[enums.SnapshotSource]time.Time
	lastIntegrityFailureAt time.Time
	lastRebuildAt          time.Time

	creations  *prometheus.CounterVec
	integrity  prometheus.Counter
	rebuildCtr prometheus.Counter

	now func() time.Time
}

// MetricsState is a point-in-time copy of the counters.
type MetricsState struct {
	TotalSnapshots         uint64
	CreationsBySource      map[enums.SnapshotSource]uint64
	IntegrityFailures      uint64
	Rebuilds               uint64
	LastCreationAt         map[enums.SnapshotSource]time.Time
	LastIntegrityFailureAt time.Time
	LastRebuildAt          time.Time
}

// NewSnapshotMetrics builds a metrics instance, registering Prometheus
// collectors on reg when it is non-nil. A nil registerer yields a
// counter-only instance, which is what most tests want.
func NewSnapshotMetrics(reg prometheus.Registerer) *SnapshotMetrics {
	m := &SnapshotMetrics{
		creationsBySource: make(map[enums.SnapshotSource]uint64),
		lastCreationAt:    make(map[enums.SnapshotSource]time.Time),
		now:               time.Now,
	}
	if reg == nil {
		return m
	}

	m.creations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_snapshot_created_total",
		Help: "Pricing snapshots created, labeled by provenance.",
	}, []string{"source"})
	m.integrity = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricing_snapshot_integrity_failures_total",
		Help: "Recomputed totals that diverged from persisted ones beyond tolerance.",
	})
	m.rebuildCtr = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricing_snapshot_rebuilds_total",
		Help: "Snapshot recomputations after invalidation.",
	})
	reg.MustRegister(m.creations, m.integrity, m.rebuildCtr)
	return m
}

// RecordCreation counts one snapshot created with the given provenance.
func (m *SnapshotMetrics) RecordCreation(source enums.SnapshotSource) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.creationsBySource[source]++
	m.totalSnapshots++
	m.lastCreationAt[source] = m.now()
	m.mu.Unlock()

	if m.creations != nil {
		m.creations.WithLabelValues(source.String()).Inc()
	}
}

// RecordIntegrityFailure counts one detected totals divergence.
func (m *SnapshotMetrics) RecordIntegrityFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.integrityFailures++
	m.lastIntegrityFailureAt = m.now()
	m.mu.Unlock()

	if m.integrity != nil {
		m.integrity.Inc()
	}
}

// RecordRebuild counts one snapshot recomputation.
func (m *SnapshotMetrics) RecordRebuild() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.rebuilds++
	m.lastRebuildAt = m.now()
	m.mu.Unlock()

	if m.rebuildCtr != nil {
		m.rebuildCtr.Inc()
	}
}

// Snapshot returns a defensive copy of the counter state.
func (m *SnapshotMetrics) Snapshot() MetricsState {
	if m == nil {
		return MetricsState{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	state := MetricsState{
		TotalSnapshots:         m.totalSnapshots,
		CreationsBySource:      make(map[enums.SnapshotSource]uint64, len(m.creationsBySource)),
		IntegrityFailures:      m.integrityFailures,
		Rebuilds:               m.rebuilds,
		LastCreationAt:         make(map[enums.SnapshotSource]time.Time, len(m.lastCreationAt)),
		LastIntegrityFailureAt: m.lastIntegrityFailureAt,
		LastRebuildAt:          m.lastRebuildAt,
	}
	for source, count := range m.creationsBySource {
		state.CreationsBySource[source] = count
	}
	for source, at := range m.lastCreationAt {
		state.LastCreationAt[source] = at
	}
	return state
}

// Reset zeroes the in-process counters. Test/debug only; registered
// Prometheus counters are monotonic and are left alone.
func (m *SnapshotMetrics) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creationsBySource = make(map[enums.SnapshotSource]uint64)
	m.lastCreationAt = make(map[enums.SnapshotSource]time.Time)
	m.totalSnapshots = 0
	m.integrityFailures = 0
	m.rebuilds = 0
	m.lastIntegrityFailureAt = time.Time{}
	m.lastRebuildAt = time.Time{}
}

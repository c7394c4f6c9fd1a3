package metrics

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/anmar534/tender-pricing-engine/pkg/enums"
)

func TestSnapshotMetricsCountsByProvenance(t *testing.T) {
	m := NewSnapshotMetrics(nil)

	m.RecordCreation(enums.SnapshotSourceAuthoring)
	m.RecordCreation(enums.SnapshotSourceAuthoring)
	m.RecordCreation(enums.SnapshotSourceMigration)
	m.RecordRebuild()
	m.RecordIntegrityFailure()

	state := m.Snapshot()
	if state.TotalSnapshots != 3 {
		t.Fatalf("expected 3 snapshots, got %d", state.TotalSnapshots)
	}
	if state.CreationsBySource[enums.SnapshotSourceAuthoring] != 2 {
		t.Fatalf("expected 2 authoring creations, got %d", state.CreationsBySource[enums.SnapshotSourceAuthoring])
	}
	if state.CreationsBySource[enums.SnapshotSourceMigration] != 1 {
		t.Fatalf("expected 1 migration creation, got %d", state.CreationsBySource[enums.SnapshotSourceMigration])
	}
	if state.Rebuilds != 1 || state.IntegrityFailures != 1 {
		t.Fatalf("unexpected rebuilds/failures: %d/%d", state.Rebuilds, state.IntegrityFailures)
	}
	if state.LastCreationAt[enums.SnapshotSourceAuthoring].IsZero() {
		t.Fatal("expected last creation timestamp to be stamped")
	}
	if state.LastRebuildAt.IsZero() || state.LastIntegrityFailureAt.IsZero() {
		t.Fatal("expected rebuild/failure timestamps to be stamped")
	}
}

func TestSnapshotIsDefensiveCopy(t *testing.T) {
	m := NewSnapshotMetrics(nil)
	m.RecordCreation(enums.SnapshotSourceRebuild)

	state := m.Snapshot()
	state.CreationsBySource[enums.SnapshotSourceRebuild] = 99
	state.LastCreationAt[enums.SnapshotSourceRebuild] = time.Time{}

	fresh := m.Snapshot()
	if fresh.CreationsBySource[enums.SnapshotSourceRebuild] != 1 {
		t.Fatal("mutating a snapshot must not affect live counters")
	}
	if fresh.LastCreationAt[enums.SnapshotSourceRebuild].IsZero() {
		t.Fatal("mutating a snapshot must not clear live timestamps")
	}
}

func TestResetZeroesState(t *testing.T) {
	m := NewSnapshotMetrics(nil)
	m.RecordCreation(enums.SnapshotSourceAuthoring)
	m.RecordIntegrityFailure()

	m.Reset()

	state := m.Snapshot()
	if state.TotalSnapshots != 0 || state.IntegrityFailures != 0 || len(state.CreationsBySource) != 0 {
		t.Fatalf("expected zeroed state, got %+v", state)
	}
}

func TestConcurrentRecording(t *testing.T) {
	m := NewSnapshotMetrics(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordCreation(enums.SnapshotSourceAuthoring)
			m.RecordRebuild()
		}()
	}
	wg.Wait()

	state := m.Snapshot()
	if state.TotalSnapshots != 50 || state.Rebuilds != 50 {
		t.Fatalf("expected 50/50, got %d/%d", state.TotalSnapshots, state.Rebuilds)
	}
}

func TestSnapshotMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSnapshotMetrics(reg)

	m.RecordCreation(enums.SnapshotSourceMigration)
	m.RecordCreation(enums.SnapshotSourceMigration)
	m.RecordIntegrityFailure()
	m.RecordRebuild()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "pricing_snapshot_created_total", "source", "migration"); err != nil {
		t.Fatalf("fetch creations: %v", err)
	} else if got != 2 {
		t.Fatalf("expected created=2, got %f", got)
	}

	if got := fetchPlainCounter(t, mfs, "pricing_snapshot_integrity_failures_total"); got != 1 {
		t.Fatalf("expected failures=1, got %f", got)
	}
	if got := fetchPlainCounter(t, mfs, "pricing_snapshot_rebuilds_total"); got != 1 {
		t.Fatalf("expected rebuilds=1, got %f", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *SnapshotMetrics
	m.RecordCreation(enums.SnapshotSourceAuthoring)
	m.RecordIntegrityFailure()
	m.RecordRebuild()
	if state := m.Snapshot(); state.TotalSnapshots != 0 {
		t.Fatal("nil metrics must report zero state")
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchPlainCounter(t *testing.T, mfs []*dto.MetricFamily, name string) float64 {
	t.Helper()
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		t.Fatalf("metric %q not found", name)
	}
	if len(mf.GetMetric()) != 1 {
		t.Fatalf("expected single series for %q", name)
	}
	return mf.GetMetric()[0].GetCounter().GetValue()
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(pairs []*dto.LabelPair, label, value string) bool {
	for _, pair := range pairs {
		if pair.GetName() == label && pair.GetValue() == value {
			return true
		}
	}
	return false
}

package snapshot

import (
	"context"
	"math"
)

// totalsTolerance is the relative divergence allowed between a
// recomputed total and the one a host carried around before the
// snapshot is declared corrupt. Floating point drift across runs sits
// orders of magnitude below this.
const totalsTolerance = 1e-6

// VerifyTotals checks a snapshot's recomputed pre-VAT total against a
// total the host obtained elsewhere (an export, a cached figure, an
// earlier snapshot). A divergence beyond tolerance is recorded in the
// metrics and logged; the caller decides whether to rebuild.
func (c *Computer) VerifyTotals(ctx context.Context, snap *Snapshot, knownTotal float64) bool {
	if snap == nil {
		return false
	}

	recomputed := snap.Totals.TotalValue
	diff := math.Abs(recomputed - knownTotal)
	scale := math.Max(math.Abs(recomputed), math.Abs(knownTotal))
	if scale == 0 || diff/scale <= totalsTolerance {
		return true
	}

	c.metrics.RecordIntegrityFailure()
	ctx = c.log.WithTenderID(ctx, snap.TenderID)
	ctx = c.log.WithFields(ctx, map[string]any{
		"snapshot_id": snap.ID.String(),
		"recomputed":  recomputed,
		"known":       knownTotal,
	})
	c.log.Warn(ctx, "snapshot totals diverged from known total")
	return false
}

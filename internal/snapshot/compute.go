package snapshot

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/anmar534/tender-pricing-engine/internal/pricing"
	"github.com/anmar534/tender-pricing-engine/pkg/config"
	pkgerrors "github.com/anmar534/tender-pricing-engine/pkg/errors"
	"github.com/anmar534/tender-pricing-engine/pkg/enums"
	"github.com/anmar534/tender-pricing-engine/pkg/logger"
	"github.com/anmar534/tender-pricing-engine/pkg/metrics"
)

// Item is the per-line projection frozen inside a snapshot.
type Item struct {
	ID          string
	LineNo      string
	Description string
	Unit        string
	Quantity    float64
	UnitPrice   float64
	TotalPrice  float64
	Breakdown   pricing.Breakdown
	Priced      bool
}

// Snapshot is an immutable, provenance-tagged record of one pricing
// computation over a tender. Once returned it is never mutated; a new
// computation yields a new snapshot with a new ID.
type Snapshot struct {
	ID        uuid.UUID
	TenderID  string
	Source    enums.SnapshotSource
	CreatedAt time.Time
	Items     []Item
	Totals    pricing.Totals
}

// Computer runs pricing computations and freezes the results.
type Computer struct {
	cfg     config.PricingConfig
	log     *logger.Logger
	metrics *metrics.SnapshotMetrics
	now     func() time.Time
}

// NewComputer wires a snapshot computer. The pricing configuration is
// validated up front so a misconfigured host fails at startup, not in
// the middle of a tender.
func NewComputer(cfg config.PricingConfig, log *logger.Logger, m *metrics.SnapshotMetrics) (*Computer, error) {
	if err := config.ValidatePricing(cfg); err != nil {
		return nil, err
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if m == nil {
		return nil, fmt.Errorf("snapshot metrics are required")
	}
	return &Computer{cfg: cfg, log: log, metrics: m, now: time.Now}, nil
}

// Compute prices the tender's items against the raw cost inputs and
// returns a frozen snapshot tagged with the given provenance. Malformed
// input entries are skipped with a warning rather than failing the
// whole computation; an empty snapshot is a valid result.
func (c *Computer) Compute(ctx context.Context, tenderID string, raw []pricing.ComponentInput, items []pricing.BaseLineItem, source enums.SnapshotSource) (*Snapshot, error) {
	if !source.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid snapshot source").
			WithDetails(map[string]any{"source": string(source)})
	}

	ctx = c.log.WithTenderID(ctx, tenderID)
	ctx = c.log.WithSource(ctx, source.String())

	usable := c.filterInputs(ctx, raw)
	merged := pricing.DedupeInputs(usable)
	enriched := pricing.Enrich(items, merged, c.cfg.Percentages)
	enriched = pricing.Dedupe(enriched)
	totals := pricing.AggregateTotals(enriched, c.cfg.VATRate)

	snap := &Snapshot{
		ID:        uuid.New(),
		TenderID:  tenderID,
		Source:    source,
		CreatedAt: c.now().UTC(),
		Items:     project(enriched),
		Totals:    totals,
	}

	c.metrics.RecordCreation(source)
	if source == enums.SnapshotSourceRebuild {
		c.metrics.RecordRebuild()
	}
	c.log.Info(c.log.WithFields(ctx, map[string]any{
		"snapshot_id": snap.ID.String(),
		"items":       len(snap.Items),
		"total_value": totals.TotalValue,
	}), "pricing snapshot computed")
	return snap, nil
}

// filterInputs drops entries that cannot participate in a computation:
// no item ID to correlate by, or explicit add-on amounts that are not
// finite numbers. Each drop is logged per entry; the rest proceed.
func (c *Computer) filterInputs(ctx context.Context, raw []pricing.ComponentInput) []pricing.ComponentInput {
	out := make([]pricing.ComponentInput, 0, len(raw))
	for i, in := range raw {
		if in.ItemID == "" {
			c.log.Warn(c.log.WithField(ctx, "index", i), "skipping cost input without item id")
			continue
		}
		if !finitePtr(in.Administrative) || !finitePtr(in.Operational) || !finitePtr(in.Profit) {
			c.log.Warn(c.log.WithFields(ctx, map[string]any{"index": i, "item_id": in.ItemID}),
				"skipping cost input with non-numeric add-on")
			continue
		}
		out = append(out, in)
	}
	return out
}

func finitePtr(v *float64) bool {
	return v == nil || (!math.IsNaN(*v) && !math.IsInf(*v, 0))
}

func project(enriched []pricing.EnrichedLineItem) []Item {
	items := make([]Item, 0, len(enriched))
	for _, e := range enriched {
		items = append(items, Item{
			ID:          e.ID,
			LineNo:      e.LineNo,
			Description: e.Description,
			Unit:        e.Unit,
			Quantity:    e.Quantity,
			UnitPrice:   e.UnitPrice,
			TotalPrice:  e.TotalPrice,
			Breakdown:   e.Breakdown,
			Priced:      e.Priced,
		})
	}
	return items
}

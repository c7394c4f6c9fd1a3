package pricing

import (
	"math"

	"github.com/anmar534/tender-pricing-engine/pkg/config"
)

// BaseLineItem is one row of a bill of quantities. It is the source of
// truth for identity, description, unit, and quantity; the engine only
// reads it and never fabricates descriptive text for it.
type BaseLineItem struct {
	ID          string
	LineNo      string
	Description string
	Unit        string
	Quantity    float64
	Category    string
}

// CostRow is one entry of a cost sub-collection (a material purchase, a
// labor line, a rented machine, a subcontracted package).
type CostRow struct {
	ID          string
	Description string
	Unit        string
	Quantity    float64
	Price       float64
	Total       float64
}

// Amount resolves the row's contribution to its category: an explicit
// Total wins, otherwise Price*Quantity. Non-finite values contribute
// nothing, so one corrupt row never poisons a whole computation.
func (r CostRow) Amount() float64 {
	if isFinite(r.Total) && r.Total != 0 {
		return r.Total
	}
	if isFinite(r.Price) && isFinite(r.Quantity) {
		return r.Price * r.Quantity
	}
	return 0
}

// ComponentInput is the per-item cost decomposition supplied by a
// pricing author or a legacy import. The four sub-collections carry the
// base costs. Administrative/Operational/Profit, when non-nil, are
// explicit absolute amounts (authoring path) and take precedence over
// the percentage-derived defaults (migration path). Percentages, when
// non-nil, overrides the configured default percentages for this item.
type ComponentInput struct {
	ItemID         string
	Materials      []CostRow
	Labor          []CostRow
	Equipment      []CostRow
	Subcontractors []CostRow

	Administrative *float64
	Operational    *float64
	Profit         *float64

	Percentages *config.Percentages
}

// Breakdown decomposes an item's total price. Subtotal covers the four
// base cost categories; Total adds the administrative, operational, and
// profit add-ons.
type Breakdown struct {
	Materials      float64
	Labor          float64
	Equipment      float64
	Subcontractors float64
	Administrative float64
	Operational    float64
	Profit         float64
	Subtotal       float64
	Total          float64
}

// EnrichedLineItem is the engine's per-item output. Descriptive fields
// come from the base item only. Recomputed on every enrichment pass,
// never mutated in place.
type EnrichedLineItem struct {
	ID          string
	LineNo      string
	Description string
	Unit        string
	Category    string
	Quantity    float64

	UnitPrice  float64
	TotalPrice float64
	Breakdown  Breakdown

	Materials      []CostRow
	Labor          []CostRow
	Equipment      []CostRow
	Subcontractors []CostRow

	Priced bool
}

// Totals aggregates a sequence of enriched items. Category sums are
// straight sums of per-item absolutes; quantity multiplication already
// happened inside each item's breakdown.
type Totals struct {
	TotalValue   float64
	BaseSubtotal float64

	VATRate      float64
	VATAmount    float64
	TotalWithVAT float64

	Profit           float64
	Administrative   float64
	Operational      float64
	AdminOperational float64

	ProfitPercentage           float64
	AdminOperationalPercentage float64
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func sumRows(rows []CostRow) float64 {
	var sum float64
	for _, row := range rows {
		sum += row.Amount()
	}
	return sum
}

func cloneRows(rows []CostRow) []CostRow {
	if len(rows) == 0 {
		return nil
	}
	out := make([]CostRow, len(rows))
	copy(out, rows)
	return out
}

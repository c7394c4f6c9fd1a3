package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/anmar534/tender-pricing-engine/pkg/config"
)

// Enrich prices every base item against its cost inputs. Items with no
// matching input (or whose input produces a zero total) come back with
// zeroed money fields and Priced=false; "not yet priced" is a valid
// state, never an error. When several inputs carry the same item ID the
// first one wins; dedupe the inputs beforehand if merging is wanted.
//
// The returned slice preserves the order of items and shares nothing
// with the inputs, so callers may mutate either side freely.
func Enrich(items []BaseLineItem, inputs []ComponentInput, defaults config.Percentages) []EnrichedLineItem {
	index := make(map[string]*ComponentInput, len(inputs))
	for i := range inputs {
		in := &inputs[i]
		if in.ItemID == "" {
			continue
		}
		if _, ok := index[in.ItemID]; !ok {
			index[in.ItemID] = in
		}
	}

	out := make([]EnrichedLineItem, 0, len(items))
	for _, item := range items {
		enriched := EnrichedLineItem{
			ID:          item.ID,
			LineNo:      item.LineNo,
			Description: item.Description,
			Unit:        item.Unit,
			Category:    item.Category,
			Quantity:    item.Quantity,
		}

		input := index[item.ID]
		if input != nil {
			enriched.Materials = cloneRows(input.Materials)
			enriched.Labor = cloneRows(input.Labor)
			enriched.Equipment = cloneRows(input.Equipment)
			enriched.Subcontractors = cloneRows(input.Subcontractors)
		}

		enriched.Breakdown = computeBreakdown(enriched, input, defaults)
		enriched.TotalPrice = enriched.Breakdown.Total
		if enriched.Quantity > 0 {
			enriched.UnitPrice = enriched.TotalPrice / enriched.Quantity
		}
		enriched.Priced = input != nil && enriched.TotalPrice > 0

		out = append(out, enriched)
	}
	return out
}

func computeBreakdown(item EnrichedLineItem, input *ComponentInput, defaults config.Percentages) Breakdown {
	b := Breakdown{
		Materials:      sumRows(item.Materials),
		Labor:          sumRows(item.Labor),
		Equipment:      sumRows(item.Equipment),
		Subcontractors: sumRows(item.Subcontractors),
	}
	b.Subtotal = b.Materials + b.Labor + b.Equipment + b.Subcontractors

	pcts := defaults
	var adminOverride, opOverride, profitOverride *float64
	if input != nil {
		if input.Percentages != nil {
			pcts = *input.Percentages
		}
		adminOverride = input.Administrative
		opOverride = input.Operational
		profitOverride = input.Profit
	}

	b.Administrative = addOn(adminOverride, b.Subtotal, pcts.Administrative)
	b.Operational = addOn(opOverride, b.Subtotal, pcts.Operational)
	b.Profit = addOn(profitOverride, b.Subtotal, pcts.Profit)
	b.Total = b.Subtotal + b.Administrative + b.Operational + b.Profit
	return b
}

// addOn picks between the two pricing paths: an explicit absolute
// amount from an authoring session wins; otherwise the amount is
// derived from the subtotal and the applicable percentage.
func addOn(explicit *float64, subtotal, percent float64) float64 {
	if explicit != nil && isFinite(*explicit) {
		return *explicit
	}
	return subtotal * percent / 100
}

// AggregateTotals sums enriched items into tender-level totals and
// applies VAT on top. All category figures are straight sums of the
// per-item absolutes. The two reporting percentages are expressed
// relative to the pre-VAT total and rounded to two decimals; every
// currency figure keeps full precision.
func AggregateTotals(items []EnrichedLineItem, vatRate float64) Totals {
	t := Totals{VATRate: vatRate}
	for _, item := range items {
		t.TotalValue += item.TotalPrice
		t.BaseSubtotal += item.Breakdown.Subtotal
		t.Profit += item.Breakdown.Profit
		t.Administrative += item.Breakdown.Administrative
		t.Operational += item.Breakdown.Operational
	}
	t.AdminOperational = t.Administrative + t.Operational
	t.VATAmount = t.TotalValue * vatRate
	t.TotalWithVAT = t.TotalValue + t.VATAmount

	if t.TotalValue > 0 {
		t.ProfitPercentage = round2(t.Profit / t.TotalValue * 100)
		t.AdminOperationalPercentage = round2(t.AdminOperational / t.TotalValue * 100)
	}
	return t
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

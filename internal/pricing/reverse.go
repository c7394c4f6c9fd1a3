package pricing

import "github.com/anmar534/tender-pricing-engine/pkg/config"

// ReverseResult is the implied cost decomposition of a single all-in
// price. Percentages echoes the rates the derivation used, so a caller
// can round-trip the result through Enrich and land on the same total.
type ReverseResult struct {
	Subtotal       float64
	Administrative float64
	Operational    float64
	Profit         float64
	UnitPrice      float64
	TotalPrice     float64
	Percentages    config.Percentages
}

// ReversePricing derives a base subtotal and add-on amounts from a
// known total price, inverting the forward calculation
// total = subtotal * (1 + pcts.Total()/100). A non-positive or
// non-finite total or quantity yields an all-zero result: an unpriced
// item is a legitimate state, not an error.
func ReversePricing(totalPrice, quantity float64, pcts config.Percentages) ReverseResult {
	result := ReverseResult{Percentages: pcts}
	if !isFinite(totalPrice) || !isFinite(quantity) || totalPrice <= 0 || quantity <= 0 {
		return result
	}

	subtotal := totalPrice / (1 + pcts.Total()/100)
	result.Subtotal = subtotal
	result.Administrative = subtotal * pcts.Administrative / 100
	result.Operational = subtotal * pcts.Operational / 100
	result.Profit = subtotal * pcts.Profit / 100
	result.TotalPrice = totalPrice
	result.UnitPrice = totalPrice / quantity
	return result
}

// DeriveSubtotalFromUnitPrice strips the add-on percentages from a
// per-unit price. Non-positive or non-finite input yields zero.
func DeriveSubtotalFromUnitPrice(unitPrice float64, pcts config.Percentages) float64 {
	if !isFinite(unitPrice) || unitPrice <= 0 {
		return 0
	}
	return unitPrice / (1 + pcts.Total()/100)
}

// AsComponentInput converts a derived breakdown into a cost input for
// the given item: the whole subtotal lands in a single materials row
// and the add-ons are carried as explicit absolutes, so re-enriching
// reproduces the original total regardless of configured percentages.
func (r ReverseResult) AsComponentInput(itemID string) ComponentInput {
	admin, op, profit := r.Administrative, r.Operational, r.Profit
	return ComponentInput{
		ItemID:         itemID,
		Materials:      []CostRow{{Total: r.Subtotal}},
		Administrative: &admin,
		Operational:    &op,
		Profit:         &profit,
	}
}

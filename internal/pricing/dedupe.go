package pricing

import (
	"fmt"
	"strings"
)

// placeholders are descriptive values that carry no information. They
// never beat real text during a merge and score nothing for richness.
var placeholders = map[string]struct{}{
	"-":       {},
	"—":       {},
	"n/a":     {},
	"na":      {},
	"none":    {},
	"null":    {},
	"unknown": {},
}

// Meaningful reports whether a descriptive value carries real content:
// non-empty after trimming and not a known placeholder token.
func Meaningful(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	_, placeholder := placeholders[strings.ToLower(trimmed)]
	return !placeholder
}

// Richer reports whether candidate should replace current during a
// merge: a meaningful value always beats a meaningless one, and between
// two meaningful values the longer wins.
func Richer(candidate, current string) bool {
	if !Meaningful(candidate) {
		return false
	}
	if !Meaningful(current) {
		return true
	}
	return len(strings.TrimSpace(candidate)) > len(strings.TrimSpace(current))
}

// Dedupe collapses enriched items that share an ID into one item per
// ID, keeping the first-occurrence order. The survivor takes the
// richest descriptive fields of the group, the union of the group's
// cost rows, and the first non-zero quantity; its breakdown is
// recomputed from the merged rows. Items with an empty ID are passed
// through untouched since there is nothing to correlate them by.
func Dedupe(items []EnrichedLineItem) []EnrichedLineItem {
	if len(items) <= 1 {
		return items
	}

	groups := make(map[string][]EnrichedLineItem, len(items))
	order := make([]string, 0, len(items))
	var unkeyed []EnrichedLineItem
	for _, item := range items {
		if item.ID == "" {
			unkeyed = append(unkeyed, item)
			continue
		}
		if _, seen := groups[item.ID]; !seen {
			order = append(order, item.ID)
		}
		groups[item.ID] = append(groups[item.ID], item)
	}

	out := make([]EnrichedLineItem, 0, len(order)+len(unkeyed))
	for _, id := range order {
		out = append(out, mergeGroup(groups[id]))
	}
	out = append(out, unkeyed...)
	return out
}

func mergeGroup(group []EnrichedLineItem) EnrichedLineItem {
	if len(group) == 1 {
		return group[0]
	}

	merged := pickPrimary(group)

	for _, cand := range group {
		if Richer(cand.Description, merged.Description) {
			merged.Description = cand.Description
		}
		if Richer(cand.Unit, merged.Unit) {
			merged.Unit = cand.Unit
		}
		if merged.LineNo == "" {
			merged.LineNo = cand.LineNo
		}
	}

	merged.Quantity = 0
	for _, cand := range group {
		if cand.Quantity != 0 {
			merged.Quantity = cand.Quantity
			break
		}
	}

	merged.Materials = mergeRows(collect(group, func(it EnrichedLineItem) []CostRow { return it.Materials }))
	merged.Labor = mergeRows(collect(group, func(it EnrichedLineItem) []CostRow { return it.Labor }))
	merged.Equipment = mergeRows(collect(group, func(it EnrichedLineItem) []CostRow { return it.Equipment }))
	merged.Subcontractors = mergeRows(collect(group, func(it EnrichedLineItem) []CostRow { return it.Subcontractors }))

	// Base costs come from the merged rows; the add-ons stay with the
	// primary since they were decided for that item, not per row.
	b := merged.Breakdown
	b.Materials = sumRows(merged.Materials)
	b.Labor = sumRows(merged.Labor)
	b.Equipment = sumRows(merged.Equipment)
	b.Subcontractors = sumRows(merged.Subcontractors)
	b.Subtotal = b.Materials + b.Labor + b.Equipment + b.Subcontractors
	b.Total = b.Subtotal + b.Administrative + b.Operational + b.Profit
	merged.Breakdown = b
	merged.TotalPrice = b.Total
	merged.UnitPrice = 0
	if merged.Quantity > 0 {
		merged.UnitPrice = merged.TotalPrice / merged.Quantity
	}
	merged.Priced = merged.TotalPrice > 0
	return merged
}

// pickPrimary chooses the richest duplicate: meaningful description
// length (capped so a novel does not dominate), a real unit, an actual
// price, and how many cost rows it carries. Ties keep the earliest.
func pickPrimary(group []EnrichedLineItem) EnrichedLineItem {
	best := group[0]
	bestScore := richnessScore(best)
	for _, cand := range group[1:] {
		if score := richnessScore(cand); score > bestScore {
			best, bestScore = cand, score
		}
	}
	return best
}

func richnessScore(item EnrichedLineItem) int {
	score := 0
	if Meaningful(item.Description) {
		if n := len(strings.TrimSpace(item.Description)); n > 50 {
			score += 50
		} else {
			score += n
		}
	}
	if Meaningful(item.Unit) {
		score += 10
	}
	if item.Breakdown.Total > 0 {
		score += 5
	}
	score += len(item.Materials) + len(item.Labor) + len(item.Equipment) + len(item.Subcontractors)
	return score
}

// DedupeInputs merges cost inputs that target the same item before
// enrichment: row collections are unioned, and for the explicit add-on
// amounts and percentage overrides the first non-nil value wins.
// Inputs without an item ID are dropped; they can never be matched to a
// line item anyway.
func DedupeInputs(inputs []ComponentInput) []ComponentInput {
	if len(inputs) <= 1 {
		return inputs
	}

	merged := make(map[string]*ComponentInput, len(inputs))
	order := make([]string, 0, len(inputs))
	for i := range inputs {
		in := inputs[i]
		if in.ItemID == "" {
			continue
		}
		existing, ok := merged[in.ItemID]
		if !ok {
			clone := in
			clone.Materials = cloneRows(in.Materials)
			clone.Labor = cloneRows(in.Labor)
			clone.Equipment = cloneRows(in.Equipment)
			clone.Subcontractors = cloneRows(in.Subcontractors)
			merged[in.ItemID] = &clone
			order = append(order, in.ItemID)
			continue
		}
		existing.Materials = mergeRows([][]CostRow{existing.Materials, in.Materials})
		existing.Labor = mergeRows([][]CostRow{existing.Labor, in.Labor})
		existing.Equipment = mergeRows([][]CostRow{existing.Equipment, in.Equipment})
		existing.Subcontractors = mergeRows([][]CostRow{existing.Subcontractors, in.Subcontractors})
		if existing.Administrative == nil {
			existing.Administrative = in.Administrative
		}
		if existing.Operational == nil {
			existing.Operational = in.Operational
		}
		if existing.Profit == nil {
			existing.Profit = in.Profit
		}
		if existing.Percentages == nil {
			existing.Percentages = in.Percentages
		}
	}

	out := make([]ComponentInput, 0, len(order))
	for _, id := range order {
		out = append(out, *merged[id])
	}
	return out
}

// mergeRows unions row collections in order, dropping rows already seen
// under the same identity. Two rows are the same when their IDs match,
// or, lacking IDs, when description, price, and quantity all match.
func mergeRows(collections [][]CostRow) []CostRow {
	var out []CostRow
	seen := make(map[string]struct{})
	for _, rows := range collections {
		for _, row := range rows {
			key := rowKey(row)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, row)
		}
	}
	return out
}

func rowKey(row CostRow) string {
	if row.ID != "" {
		return "id:" + row.ID
	}
	return fmt.Sprintf("v:%s|%g|%g", strings.TrimSpace(row.Description), row.Price, row.Quantity)
}

func collect(group []EnrichedLineItem, pick func(EnrichedLineItem) []CostRow) [][]CostRow {
	out := make([][]CostRow, 0, len(group))
	for _, item := range group {
		out = append(out, pick(item))
	}
	return out
}

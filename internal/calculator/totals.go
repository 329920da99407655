// Package calculator derives billing figures from an estimate's line items.
// Everything here is pure and deterministic: totals are recomputed on every
// read rather than cached, so these functions must stay O(n) with no state.
package calculator

import "github.com/serhq/estimator/internal/models"

// Totals holds the derived figures for one estimate.
type Totals struct {
	Subtotal     float64 `json:"subtotal"`
	MarkupAmount float64 `json:"markupAmount"`
	TaxAmount    float64 `json:"taxAmount"`
	Total        float64 `json:"total"`
}

// ComputeTotals computes subtotal, markup, tax and total for a set of line
// items.
//
// Tax applies to the taxable share of the subtotal plus that share's markup:
// markup on non-taxable items is never taxed. Negative quantities or rates
// are not rejected; the editor is as permissive as its inputs. No rounding
// happens here; presentation formats to two decimals.
func ComputeTotals(items []models.LineItem, markupPercent, taxPercent float64) Totals {
	var subtotal, taxableSubtotal float64
	for _, item := range items {
		subtotal += item.Amount()
		if item.Taxable {
			taxableSubtotal += item.Amount()
		}
	}

	markupAmount := subtotal * markupPercent / 100
	taxableAmount := taxableSubtotal + taxableSubtotal*markupPercent/100
	taxAmount := taxableAmount * taxPercent / 100

	return Totals{
		Subtotal:     subtotal,
		MarkupAmount: markupAmount,
		TaxAmount:    taxAmount,
		Total:        subtotal + markupAmount + taxAmount,
	}
}

// CategoryTotal is one category's share of the estimate.
type CategoryTotal struct {
	Category models.Category `json:"category"`
	Amount   float64         `json:"amount"`
}

// AllocationByCategory sums quantity*rate per category for chart and summary
// display. It iterates the fixed category enum so ordering is stable no
// matter which categories appear in the data, then drops empty categories.
func AllocationByCategory(items []models.LineItem) []CategoryTotal {
	sums := make(map[models.Category]float64)
	for _, item := range items {
		sums[item.Category] += item.Amount()
	}

	var allocation []CategoryTotal
	for _, category := range models.Categories() {
		if sums[category] == 0 {
			continue
		}
		allocation = append(allocation, CategoryTotal{Category: category, Amount: sums[category]})
	}
	return allocation
}

package calculator

import (
	"math"
	"testing"

	"github.com/serhq/estimator/internal/models"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name          string
		items         []models.LineItem
		markupPercent float64
		taxPercent    float64
		want          Totals
	}{
		{
			name: "mixed taxable and non-taxable with markup and tax",
			items: []models.LineItem{
				{Description: "DP", Quantity: 2, Rate: 500, Taxable: true},
				{Description: "Parking", Quantity: 1, Rate: 100, Taxable: false},
			},
			markupPercent: 10,
			taxPercent:    8,
			// subtotal = 1100, markup = 110
			// taxable subtotal = 1000, taxable amount = 1100, tax = 88
			want: Totals{Subtotal: 1100, MarkupAmount: 110, TaxAmount: 88, Total: 1298},
		},
		{
			name:          "empty item list yields all zeros",
			items:         nil,
			markupPercent: 15,
			taxPercent:    10,
			want:          Totals{},
		},
		{
			name: "no taxable items means no tax regardless of rate",
			items: []models.LineItem{
				{Description: "Editor", Quantity: 3, Rate: 350, Taxable: false},
				{Description: "Color", Quantity: 1, Rate: 800, Taxable: false},
			},
			markupPercent: 20,
			taxPercent:    20,
			// subtotal = 1850, markup = 370, tax = 0
			want: Totals{Subtotal: 1850, MarkupAmount: 370, TaxAmount: 0, Total: 2220},
		},
		{
			name: "zero percentages",
			items: []models.LineItem{
				{Description: "Gaffer", Quantity: 1, Rate: 650, Taxable: true},
			},
			markupPercent: 0,
			taxPercent:    0,
			want:          Totals{Subtotal: 650, MarkupAmount: 0, TaxAmount: 0, Total: 650},
		},
		{
			name: "negative quantity is tolerated, not rejected",
			items: []models.LineItem{
				{Description: "Credit", Quantity: -1, Rate: 200, Taxable: true},
				{Description: "Camera", Quantity: 1, Rate: 1200, Taxable: true},
			},
			markupPercent: 10,
			taxPercent:    10,
			// subtotal = 1000, markup = 100, taxable amount = 1100, tax = 110
			want: Totals{Subtotal: 1000, MarkupAmount: 100, TaxAmount: 110, Total: 1210},
		},
		{
			name: "markup on non-taxable share is never taxed",
			items: []models.LineItem{
				{Description: "Crew", Quantity: 1, Rate: 1000, Taxable: true},
				{Description: "Travel", Quantity: 1, Rate: 1000, Taxable: false},
			},
			markupPercent: 50,
			taxPercent:    10,
			// subtotal = 2000, markup = 1000
			// taxable amount = 1000 + 500 = 1500, tax = 150 (not 300)
			want: Totals{Subtotal: 2000, MarkupAmount: 1000, TaxAmount: 150, Total: 3150},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.items, tt.markupPercent, tt.taxPercent)
			assertTotals(t, got, tt.want)

			// Totals are recomputed on every read; two calls on the same
			// input must agree exactly.
			again := ComputeTotals(tt.items, tt.markupPercent, tt.taxPercent)
			if got != again {
				t.Errorf("ComputeTotals is not deterministic: %+v vs %+v", got, again)
			}
		})
	}
}

func TestComputeTotalsInvariant(t *testing.T) {
	items := []models.LineItem{
		{Quantity: 3, Rate: 450.50, Taxable: true},
		{Quantity: 2, Rate: 125, Taxable: false},
		{Quantity: 0.5, Rate: 900, Taxable: true},
	}
	got := ComputeTotals(items, 12.5, 8.875)
	if math.Abs(got.Total-(got.Subtotal+got.MarkupAmount+got.TaxAmount)) > 1e-9 {
		t.Errorf("total = %v, want subtotal+markup+tax = %v",
			got.Total, got.Subtotal+got.MarkupAmount+got.TaxAmount)
	}
}

func TestAllocationByCategory(t *testing.T) {
	items := []models.LineItem{
		{Category: models.CategoryExpenses, Quantity: 1, Rate: 50},
		{Category: models.CategoryProduction, Quantity: 2, Rate: 500},
		{Category: models.CategoryPreProduction, Quantity: 1, Rate: 300},
		{Category: models.CategoryProduction, Quantity: 1, Rate: 250},
	}

	got := AllocationByCategory(items)

	want := []CategoryTotal{
		{Category: models.CategoryPreProduction, Amount: 300},
		{Category: models.CategoryProduction, Amount: 1250},
		{Category: models.CategoryExpenses, Amount: 50},
	}

	if len(got) != len(want) {
		t.Fatalf("allocation has %d categories, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Category != want[i].Category {
			t.Errorf("allocation[%d].Category = %s, want %s (enum order must be stable)",
				i, got[i].Category, want[i].Category)
		}
		if math.Abs(got[i].Amount-want[i].Amount) > 0.01 {
			t.Errorf("allocation[%d].Amount = %v, want %v", i, got[i].Amount, want[i].Amount)
		}
	}
}

func TestAllocationByCategoryEmpty(t *testing.T) {
	if got := AllocationByCategory(nil); len(got) != 0 {
		t.Errorf("allocation of no items = %+v, want empty", got)
	}

	// Zero-value rows produce zero-value categories, which are dropped.
	items := []models.LineItem{{Category: models.CategoryOther, Quantity: 0, Rate: 500}}
	if got := AllocationByCategory(items); len(got) != 0 {
		t.Errorf("allocation of zero-amount items = %+v, want empty", got)
	}
}

func assertTotals(t *testing.T, got, want Totals) {
	t.Helper()
	if math.Abs(got.Subtotal-want.Subtotal) > 0.01 {
		t.Errorf("Subtotal = %v, want %v", got.Subtotal, want.Subtotal)
	}
	if math.Abs(got.MarkupAmount-want.MarkupAmount) > 0.01 {
		t.Errorf("MarkupAmount = %v, want %v", got.MarkupAmount, want.MarkupAmount)
	}
	if math.Abs(got.TaxAmount-want.TaxAmount) > 0.01 {
		t.Errorf("TaxAmount = %v, want %v", got.TaxAmount, want.TaxAmount)
	}
	if math.Abs(got.Total-want.Total) > 0.01 {
		t.Errorf("Total = %v, want %v", got.Total, want.Total)
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a line item within an estimate. The set is fixed;
// anything an external source supplies outside this set is mapped to
// CategoryOther at the boundary.
type Category string

const (
	CategoryPreProduction  Category = "Pre-Production"
	CategoryProduction     Category = "Production"
	CategoryPostProduction Category = "Post-Production"
	CategoryEquipment      Category = "Equipment & Rentals"
	CategoryExpenses       Category = "Expenses"
	CategoryOther          Category = "Other"
)

// Categories returns every category in display order. Callers that group
// items iterate this slice rather than the categories present in the data,
// so the ordering is stable regardless of input.
func Categories() []Category {
	return []Category{
		CategoryPreProduction,
		CategoryProduction,
		CategoryPostProduction,
		CategoryEquipment,
		CategoryExpenses,
		CategoryOther,
	}
}

// ValidCategory reports whether c exactly matches one of the fixed categories.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryPreProduction, CategoryProduction, CategoryPostProduction,
		CategoryEquipment, CategoryExpenses, CategoryOther:
		return true
	}
	return false
}

// Billing units for a line item. Unknown unit strings are tolerated; these
// constants cover what the editor and the AI assistant emit.
const (
	UnitDay  = "day"
	UnitHour = "hour"
	UnitFlat = "flat"
	UnitItem = "item"
)

// LineItem is one billable row of an estimate.
type LineItem struct {
	// ID is unique within an estimate (UUID format).
	ID string `json:"id"`

	// Description is the human-readable label, e.g. "Director of Photography".
	Description string `json:"description"`

	// Category groups the item for display and allocation summaries.
	Category Category `json:"category"`

	// Quantity is the number of units billed. Non-numeric input upstream
	// coerces to a safe default before it reaches this field.
	Quantity float64 `json:"quantity"`

	// Rate is the price per unit in the estimate's currency.
	Rate float64 `json:"rate"`

	// Unit is the billing unit: "day", "hour", "flat" or "item".
	Unit string `json:"unit"`

	// Taxable marks whether this row contributes to the taxable subtotal.
	Taxable bool `json:"taxable"`
}

// Amount returns the extended price of the row.
func (li LineItem) Amount() float64 {
	return li.Quantity * li.Rate
}

// ProjectDetails carries the client and business identity printed on an
// invoice. All fields are optional strings; BusinessLogo and PaymentLink are
// only meaningfully populated for Pro members.
type ProjectDetails struct {
	ClientName  string `json:"clientName"`
	ProjectName string `json:"projectName"`
	ProjectDate string `json:"projectDate"`
	Location    string `json:"location"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Notes       string `json:"notes"`
	PaymentLink string `json:"paymentLink,omitempty"`

	// Branding fields.
	BusinessName string `json:"businessName,omitempty"`
	BusinessLogo string `json:"businessLogo,omitempty"`
	PayableTo    string `json:"payableTo,omitempty"`

	// Contact fields.
	BusinessAddress string `json:"businessAddress,omitempty"`
	BusinessEmail   string `json:"businessEmail,omitempty"`
	BusinessPhone   string `json:"businessPhone,omitempty"`
}

// Estimate is the unit of editing. Invoice rendering is a pure projection of
// an Estimate; totals are derived on every read, never stored.
type Estimate struct {
	// ID is the unique identifier (UUID format).
	ID string `json:"id"`

	Details ProjectDetails `json:"details"`

	// Items in display order. Order carries no meaning beyond grouping.
	Items []LineItem `json:"items"`

	// MarkupPercent is the production-fee percentage, expected in [0, 50].
	MarkupPercent float64 `json:"markupPercent"`

	// TaxPercent is the tax percentage, expected in [0, 20].
	TaxPercent float64 `json:"taxPercent"`

	// Currency is an ISO code such as "USD".
	Currency string `json:"currency"`

	// CreatedAt is the Unix timestamp in milliseconds.
	CreatedAt int64 `json:"createdAt"`
}

// NewEstimate returns an empty estimate with the default knobs the editor
// starts from: 10% markup, no tax, USD.
func NewEstimate() *Estimate {
	return &Estimate{
		ID:            uuid.New().String(),
		Items:         []LineItem{},
		MarkupPercent: 10,
		TaxPercent:    0,
		Currency:      "USD",
		CreatedAt:     time.Now().UnixMilli(),
	}
}

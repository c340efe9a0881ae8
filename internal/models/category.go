package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Category identifies which ledger an adjustment entry belongs to
type Category string

// Category constants
const (
	CategoryBenefit   Category = "benefit"
	CategoryDeduction Category = "deduction"
)

// ErrUnknownCategory is returned by ParseCategory for anything outside the closed set
var ErrUnknownCategory = errors.New("unknown adjustment category")

// AmountScale is the number of decimal places stored for every ledger amount
const AmountScale = 2

// MaxAmount matches the decimal(12,2) column type
var MaxAmount = decimal.RequireFromString("9999999999.99")

// FieldSpec describes one monetary column of a category
type FieldSpec struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Validate checks an amount against the field rule: non-negative, at most
// AmountScale decimals after rounding, and within the column range.
func (f FieldSpec) Validate(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%s must not be negative", f.Key)
	}
	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%s exceeds %s", f.Key, MaxAmount.StringFixed(AmountScale))
	}
	return nil
}

var categoryFields = map[Category][]FieldSpec{
	CategoryBenefit: {
		{Key: "allowances", Label: "Allowances"},
		{Key: "mf_shares", Label: "MF Shares"},
		{Key: "mf_loan", Label: "MF Loan"},
		{Key: "sss_loan", Label: "SSS Loan"},
		{Key: "sss_prem", Label: "SSS Premium"},
		{Key: "hmdf_loan", Label: "HDMF Loan"},
		{Key: "hmdf_prem", Label: "HDMF Premium"},
		{Key: "philhealth", Label: "PhilHealth"},
	},
	CategoryDeduction: {
		{Key: "advance", Label: "Advance"},
		{Key: "charge_store", Label: "Charge (Store)"},
		{Key: "charge", Label: "Charge"},
		{Key: "meals", Label: "Meals"},
		{Key: "miscellaneous", Label: "Miscellaneous"},
		{Key: "other_deductions", Label: "Other Deductions"},
	},
}

// Categories lists every category in display order
func Categories() []Category {
	return []Category{CategoryBenefit, CategoryDeduction}
}

// ParseCategory accepts the singular or plural route form ("benefit", "benefits")
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "benefit", "benefits":
		return CategoryBenefit, nil
	case "deduction", "deductions":
		return CategoryDeduction, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	_, ok := categoryFields[c]
	return ok
}

// Fields returns the ordered field schema of the category
func (c Category) Fields() []FieldSpec {
	return categoryFields[c]
}

// Field looks up a field by key
func (c Category) Field(key string) (FieldSpec, bool) {
	for _, f := range categoryFields[c] {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Plural is the route segment used by the HTTP API
func (c Category) Plural() string {
	return string(c) + "s"
}

// ZeroValues returns a value map with every field of the category set to zero
func (c Category) ZeroValues() map[string]decimal.Decimal {
	values := make(map[string]decimal.Decimal, len(categoryFields[c]))
	for _, f := range categoryFields[c] {
		values[f.Key] = decimal.Zero
	}
	return values
}

// ParseAmount parses a grid cell into a 2-decimal amount.
// Thousands separators are tolerated and an empty cell means zero. Negative input is
// rejected before rounding, so "-0.004" does not become zero.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%q must not be negative", raw)
	}
	return d.Round(AmountScale), nil
}

package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	for _, raw := range []string{"benefit", "benefits", " Benefits "} {
		c, err := ParseCategory(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, CategoryBenefit, c)
	}

	c, err := ParseCategory("deductions")
	require.NoError(t, err)
	assert.Equal(t, CategoryDeduction, c)
	assert.Equal(t, "deductions", c.Plural())

	_, err = ParseCategory("bonus")
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.False(t, Category("bonus").Valid())
}

func TestCategoryFields(t *testing.T) {
	_, ok := CategoryBenefit.Field("allowances")
	assert.True(t, ok)
	_, ok = CategoryBenefit.Field("meals")
	assert.False(t, ok, "fields belong to exactly one category")
	_, ok = CategoryDeduction.Field("meals")
	assert.True(t, ok)

	zeros := CategoryDeduction.ZeroValues()
	assert.Len(t, zeros, len(CategoryDeduction.Fields()))
	for _, v := range zeros {
		assert.True(t, v.IsZero())
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"", "0.00", false},
		{"  ", "0.00", false},
		{"500", "500.00", false},
		{"1,250.50", "1250.50", false},
		{"0.005", "0.01", false},
		{"-3", "", true},
		{"-0.004", "", true},
		{"-0", "0.00", false},
		{"abc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(AmountScale))
		})
	}
}

func TestFieldSpecValidate(t *testing.T) {
	spec, _ := CategoryBenefit.Field("sss_loan")
	assert.NoError(t, spec.Validate(decimal.Zero))
	assert.NoError(t, spec.Validate(MaxAmount))
	assert.Error(t, spec.Validate(decimal.NewFromInt(-1)))
	assert.Error(t, spec.Validate(MaxAmount.Add(decimal.RequireFromString("0.01"))))
}

func TestNewAdjustmentEntry(t *testing.T) {
	pr, err := ResolvePeriod(2025, 6, "first")
	require.NoError(t, err)

	entry := NewAdjustmentEntry(9, CategoryBenefit, pr, map[string]decimal.Decimal{
		"allowances": decimal.RequireFromString("500.004"),
		"meals":      decimal.NewFromInt(10),
	}, 1)

	assert.Len(t, entry.Lines, len(CategoryBenefit.Fields()))
	assert.Equal(t, "500.00", entry.Value("allowances").StringFixed(2))
	assert.True(t, entry.Value("meals").IsZero(), "keys outside the schema are dropped")
	assert.Equal(t, "500.00", entry.Total().StringFixed(2))
	assert.Equal(t, EntryStatusPending, entry.Status())
	assert.Equal(t, pr.Anchor, entry.CutoffDate)

	resp := entry.ToResponse()
	assert.Equal(t, "2025-06-15", resp.CutoffDate)
	assert.Equal(t, "0.00", resp.Values["sss_loan"])

	row := LedgerRow{Employee: Employee{ID: 9}}
	assert.Equal(t, EntryStatusNoData, row.ToResponse().Status)
	assert.Nil(t, row.ToResponse().Entry)
}

package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/payroll-ledger-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRepository_UpsertFromEntry(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerRepository(db)
	templates := NewTemplateRepository(db)
	ctx := context.Background()
	employee := seedEmployees(t, db, 1, "Finance")[0]

	_, err := templates.FindByEmployee(ctx, employee.ID, models.CategoryBenefit)
	assert.True(t, IsNotFound(err))

	first := createEntry(t, ledger, employee.ID, models.CategoryBenefit, june2025First)
	_, err = ledger.PatchField(ctx, first.ID, "allowances", decimal.NewFromInt(500))
	require.NoError(t, err)

	tmpl, entry, err := templates.UpsertFromEntry(ctx, models.CategoryBenefit, first.ID, 3)
	require.NoError(t, err)
	assert.True(t, entry.IsDefault)
	assert.Equal(t, "500.00", tmpl.Values()["allowances"].StringFixed(2))
	assert.Equal(t, "0.00", tmpl.Values()["sss_loan"].StringFixed(2))
	require.NotNil(t, tmpl.SourceEntryID)
	assert.Equal(t, first.ID, *tmpl.SourceEntryID)

	// A second set-default replaces the values in place
	second := createEntry(t, ledger, employee.ID, models.CategoryBenefit, june2025Second)
	_, err = ledger.PatchField(ctx, second.ID, "sss_loan", decimal.RequireFromString("75.25"))
	require.NoError(t, err)

	updated, _, err := templates.UpsertFromEntry(ctx, models.CategoryBenefit, second.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, tmpl.ID, updated.ID)
	assert.Equal(t, "0.00", updated.Values()["allowances"].StringFixed(2))
	assert.Equal(t, "75.25", updated.Values()["sss_loan"].StringFixed(2))
	assert.Equal(t, uint(4), updated.UpdatedBy)

	var count int64
	require.NoError(t, db.Model(&models.DefaultTemplate{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	byEmployee, err := templates.FindByCategory(ctx, models.CategoryBenefit)
	require.NoError(t, err)
	require.Contains(t, byEmployee, employee.ID)
	assert.Len(t, byEmployee[employee.ID].Lines, len(models.CategoryBenefit.Fields()))
}

func TestTemplateRepository_UpsertFromEntryRejections(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerRepository(db)
	templates := NewTemplateRepository(db)
	ctx := context.Background()
	employee := seedEmployees(t, db, 1, "Finance")[0]

	entry := createEntry(t, ledger, employee.ID, models.CategoryDeduction, june2025First)

	_, _, err := templates.UpsertFromEntry(ctx, models.CategoryBenefit, entry.ID, 1)
	assert.True(t, IsNotFound(err), "entry of another ledger is not found")

	_, _, err = templates.UpsertFromEntry(ctx, models.CategoryDeduction, 4242, 1)
	assert.True(t, IsNotFound(err))

	_, err = ledger.Post(ctx, entry.ID, 1)
	require.NoError(t, err)
	_, _, err = templates.UpsertFromEntry(ctx, models.CategoryDeduction, entry.ID, 1)
	assert.ErrorIs(t, err, ErrEntryLocked)

	_, err = templates.FindByEmployee(ctx, employee.ID, models.CategoryDeduction)
	assert.True(t, IsNotFound(err))
}

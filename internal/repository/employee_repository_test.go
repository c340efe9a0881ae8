package repository

import (
	"context"
	"testing"

	"github.com/sjperalta/payroll-ledger-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeRepository_FindOrCreateByNumber(t *testing.T) {
	db := newTestDB(t)
	repo := NewEmployeeRepository(db)
	ctx := context.Background()

	first := models.Employee{EmployeeNo: "EMP-0001", FullName: "Maria Santos", Department: "Finance", Active: true}
	inserted, err := repo.FindOrCreateByNumber(ctx, &first)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotZero(t, first.ID)

	again := models.Employee{EmployeeNo: "EMP-0001", FullName: "Someone Else", Department: "Sales", Active: true}
	inserted, err = repo.FindOrCreateByNumber(ctx, &again)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Maria Santos", again.FullName)

	ids, err := repo.FindActiveIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{first.ID}, ids)
}

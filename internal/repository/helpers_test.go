package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/sjperalta/payroll-ledger-api/internal/database"
	"github.com/sjperalta/payroll-ledger-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	june2025First  = models.CutoffPeriod{Year: 2025, Month: 6, Cutoff: models.CutoffFirst}
	june2025Second = models.CutoffPeriod{Year: 2025, Month: 6, Cutoff: models.CutoffSecond}
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	t.Setenv("ENVIRONMENT", "production")

	db, err := database.Connect("sqlite://" + filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedEmployees(t *testing.T, db *gorm.DB, n int, department string) []models.Employee {
	t.Helper()
	var existing int64
	require.NoError(t, db.Model(&models.Employee{}).Count(&existing).Error)

	employees := make([]models.Employee, n)
	for i := range employees {
		seq := int(existing) + i + 1
		employees[i] = models.Employee{
			EmployeeNo: fmt.Sprintf("EMP-%04d", seq),
			FullName:   fmt.Sprintf("Employee %04d", seq),
			Department: department,
			Active:     true,
		}
	}
	require.NoError(t, db.Create(&employees).Error)
	return employees
}

func createEntry(t *testing.T, repo LedgerRepository, employeeID uint, category models.Category, period models.CutoffPeriod) *models.AdjustmentEntry {
	t.Helper()
	pr, err := period.Resolve()
	require.NoError(t, err)

	entry := models.NewAdjustmentEntry(employeeID, category, pr, nil, 1)
	require.NoError(t, repo.Create(context.Background(), entry))
	return entry
}

package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sjperalta/payroll-ledger-api/internal/database"
	"github.com/sjperalta/payroll-ledger-api/internal/models"
	"github.com/sjperalta/payroll-ledger-api/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	june2025First  = models.CutoffPeriod{Year: 2025, Month: 6, Cutoff: models.CutoffFirst}
	june2025Second = models.CutoffPeriod{Year: 2025, Month: 6, Cutoff: models.CutoffSecond}
)

type testEnv struct {
	db     *gorm.DB
	repos  *repository.Repositories
	ledger *LedgerService
	cache  *memoryStatusCache
}

func newTestEnv(t *testing.T) *testEnv {
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

	repos := repository.NewRepositories(db)
	cache := newMemoryStatusCache()
	return &testEnv{
		db:     db,
		repos:  repos,
		cache:  cache,
		ledger: NewLedgerService(repos.Ledger, repos.Template, repos.Employee, cache, BulkOptions{ChunkSize: 3, Concurrency: 4}),
	}
}

func (e *testEnv) seedEmployees(t *testing.T, n int) []models.Employee {
	t.Helper()
	var existing int64
	require.NoError(t, e.db.Model(&models.Employee{}).Count(&existing).Error)

	employees := make([]models.Employee, n)
	for i := range employees {
		seq := int(existing) + i + 1
		employees[i] = models.Employee{
			EmployeeNo: fmt.Sprintf("EMP-%04d", seq),
			FullName:   fmt.Sprintf("Employee %04d", seq),
			Department: "Operations",
			Active:     true,
		}
	}
	require.NoError(t, e.db.Create(&employees).Error)
	return employees
}

func (e *testEnv) countEntries(t *testing.T, category models.Category, period models.CutoffPeriod) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.AdjustmentEntry{}).
		Where("category = ? AND period_year = ? AND period_month = ? AND cutoff = ?", category, period.Year, period.Month, period.Cutoff).
		Count(&n).Error)
	return n
}

// memoryStatusCache is an in-process StatusCache with the same versioning rules as
// the Redis cache. It records invalidations.
type memoryStatusCache struct {
	mu            sync.Mutex
	counts        map[string]models.StatusCounts
	generations   map[string]int
	invalidations int
}

func newMemoryStatusCache() *memoryStatusCache {
	return &memoryStatusCache{
		counts:      make(map[string]models.StatusCounts),
		generations: make(map[string]int),
	}
}

func (c *memoryStatusCache) versionLocked(category models.Category, period models.CutoffPeriod) string {
	return fmt.Sprintf("%d.%d", c.generations[string(category)], c.generations[statusCacheKey(category, period)])
}

func (c *memoryStatusCache) Get(_ context.Context, category models.Category, period models.CutoffPeriod) (*models.StatusCounts, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	version := c.versionLocked(category, period)
	counts, ok := c.counts[statusCacheKey(category, period)+":"+version]
	if !ok {
		return nil, version, false
	}
	return &counts, version, true
}

func (c *memoryStatusCache) Set(_ context.Context, category models.Category, period models.CutoffPeriod, version string, counts *models.StatusCounts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[statusCacheKey(category, period)+":"+version] = *counts
}

func (c *memoryStatusCache) Invalidate(_ context.Context, category models.Category, period models.CutoffPeriod) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	c.generations[statusCacheKey(category, period)]++
}

func (c *memoryStatusCache) InvalidateCategory(_ context.Context, category models.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations++
	c.generations[string(category)]++
}

// newLedgerService builds a service over repo that shares the env's database and cache
func (e *testEnv) newLedgerService(repo repository.LedgerRepository) *LedgerService {
	return NewLedgerService(repo, e.repos.Template, e.repos.Employee, e.cache, BulkOptions{ChunkSize: 3, Concurrency: 4})
}

// faultyLedgerRepo wraps a LedgerRepository with optional failures and hooks
type faultyLedgerRepo struct {
	repository.LedgerRepository
	createErr         func(entry *models.AdjustmentEntry) error
	postManyErr       func(ids []uint) error
	afterStatusCounts func()
}

func (r *faultyLedgerRepo) Create(ctx context.Context, entry *models.AdjustmentEntry) error {
	if r.createErr != nil {
		if err := r.createErr(entry); err != nil {
			return err
		}
	}
	return r.LedgerRepository.Create(ctx, entry)
}

func (r *faultyLedgerRepo) PostMany(ctx context.Context, category models.Category, ids []uint, actor uint) (int64, error) {
	if r.postManyErr != nil {
		if err := r.postManyErr(ids); err != nil {
			return 0, err
		}
	}
	return r.LedgerRepository.PostMany(ctx, category, ids, actor)
}

func (r *faultyLedgerRepo) StatusCounts(ctx context.Context, category models.Category, period models.CutoffPeriod) (*models.StatusCounts, error) {
	counts, err := r.LedgerRepository.StatusCounts(ctx, category, period)
	if r.afterStatusCounts != nil {
		r.afterStatusCounts()
	}
	return counts, err
}

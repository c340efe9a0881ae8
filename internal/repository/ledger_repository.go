package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/payroll-ledger-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository defines the interface for adjustment entry data access
type LedgerRepository interface {
	FindByID(ctx context.Context, id uint) (*models.AdjustmentEntry, error)
	FindByKey(ctx context.Context, employeeID uint, category models.Category, period models.CutoffPeriod) (*models.AdjustmentEntry, error)
	EmployeeIDsWithEntry(ctx context.Context, category models.Category, period models.CutoffPeriod) ([]uint, error)
	PendingIDs(ctx context.Context, category models.Category, period models.CutoffPeriod) ([]uint, error)
	Create(ctx context.Context, entry *models.AdjustmentEntry) error
	PatchField(ctx context.Context, id uint, field string, amount decimal.Decimal) (*models.AdjustmentEntry, error)
	Post(ctx context.Context, id uint, actor uint) (*models.AdjustmentEntry, error)
	PostMany(ctx context.Context, category models.Category, ids []uint, actor uint) (int64, error)
	List(ctx context.Context, query *LedgerQuery) ([]models.LedgerRow, int64, error)
	StatusCounts(ctx context.Context, category models.Category, period models.CutoffPeriod) (*models.StatusCounts, error)
}

// LedgerQuery extends ListQuery with the ledger scope and filters
type LedgerQuery struct {
	*ListQuery
	Category   models.Category
	Period     models.CutoffPeriod
	Department string
	Status     string
}

// Status filter values accepted by LedgerQuery
const (
	StatusFilterAll     = "all"
	StatusFilterPosted  = models.EntryStatusPosted
	StatusFilterPending = models.EntryStatusPending
	StatusFilterNoData  = models.EntryStatusNoData
)

var ledgerSortColumns = map[string]string{
	"full_name":   "employees.full_name",
	"employee_no": "employees.employee_no",
	"department":  "employees.department",
}

// ledgerRepository handles database operations for adjustment entries
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func periodScope(category models.Category, period models.CutoffPeriod) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("adjustment_entries.category = ? AND adjustment_entries.period_year = ? AND adjustment_entries.period_month = ? AND adjustment_entries.cutoff = ?",
			category, period.Year, period.Month, period.Cutoff)
	}
}

// FindByID retrieves an entry with its lines
func (r *ledgerRepository) FindByID(ctx context.Context, id uint) (*models.AdjustmentEntry, error) {
	var entry models.AdjustmentEntry
	if err := r.db.WithContext(ctx).Preload("Lines").First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByKey retrieves the entry for the natural key (employee, category, period)
func (r *ledgerRepository) FindByKey(ctx context.Context, employeeID uint, category models.Category, period models.CutoffPeriod) (*models.AdjustmentEntry, error) {
	var entry models.AdjustmentEntry
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Scopes(periodScope(category, period)).
		Where("adjustment_entries.employee_id = ?", employeeID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// EmployeeIDsWithEntry lists the employees that already have an entry for the period
func (r *ledgerRepository) EmployeeIDsWithEntry(ctx context.Context, category models.Category, period models.CutoffPeriod) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.AdjustmentEntry{}).
		Scopes(periodScope(category, period)).
		Pluck("employee_id", &ids).Error
	return ids, err
}

// PendingIDs lists the not-yet-posted entries of the period
func (r *ledgerRepository) PendingIDs(ctx context.Context, category models.Category, period models.CutoffPeriod) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.AdjustmentEntry{}).
		Scopes(periodScope(category, period)).
		Where("adjustment_entries.is_posted = ?", false).
		Order("adjustment_entries.id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// Create inserts the entry and its lines in one transaction.
// The unique index on the natural key rejects a second entry for the same period.
func (r *ledgerRepository) Create(ctx context.Context, entry *models.AdjustmentEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines", "Employee").Create(entry).Error; err != nil {
			return err
		}
		if len(entry.Lines) == 0 {
			return nil
		}
		for i := range entry.Lines {
			entry.Lines[i].EntryID = entry.ID
		}
		return tx.Create(&entry.Lines).Error
	})
	if isDuplicateKeyError(err) {
		return ErrDuplicateEntry
	}
	return err
}

// PatchField writes a single line under the entry row lock.
// Sibling lines are never rewritten, so concurrent patches on different fields do not clobber each other.
func (r *ledgerRepository) PatchField(ctx context.Context, id uint, field string, amount decimal.Decimal) (*models.AdjustmentEntry, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.AdjustmentEntry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&entry, id).Error; err != nil {
			return err
		}
		if !entry.MayPatch() {
			return ErrEntryLocked
		}

		now := time.Now()
		line := models.AdjustmentEntryLine{
			EntryID:   id,
			FieldKey:  field,
			Amount:    amount,
			UpdatedAt: now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_id"}, {Name: "field_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).Create(&line).Error
		if err != nil {
			return err
		}

		return tx.Model(&models.AdjustmentEntry{}).
			Where("id = ?", id).
			Update("updated_at", now).Error
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Post is a compare-and-set on is_posted. Of two concurrent calls exactly one
// updates the row; the other gets ErrEntryAlreadyPosted.
func (r *ledgerRepository) Post(ctx context.Context, id uint, actor uint) (*models.AdjustmentEntry, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.AdjustmentEntry{}).
		Where("id = ? AND is_posted = ?", id, false).
		Updates(map[string]interface{}{
			"is_posted":  true,
			"posted_at":  now,
			"posted_by":  actor,
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	entry, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return entry, ErrEntryAlreadyPosted
	}
	return entry, nil
}

// PostMany posts every pending entry of the category among ids with one guarded
// UPDATE and returns how many rows transitioned. Already-posted and unknown ids are ignored.
func (r *ledgerRepository) PostMany(ctx context.Context, category models.Category, ids []uint, actor uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.AdjustmentEntry{}).
		Where("id IN ? AND category = ? AND is_posted = ?", ids, category, false).
		Updates(map[string]interface{}{
			"is_posted":  true,
			"posted_at":  now,
			"posted_by":  actor,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

// List returns active employees left-joined with their entry for the period.
// Employees without an entry are returned with a nil Entry.
func (r *ledgerRepository) List(ctx context.Context, query *LedgerQuery) ([]models.LedgerRow, int64, error) {
	if query.ListQuery == nil {
		query.ListQuery = NewListQuery()
	}
	query.Normalize()

	var employees []models.Employee
	var total int64

	db := r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Joins("LEFT JOIN adjustment_entries ON adjustment_entries.employee_id = employees.id AND adjustment_entries.category = ? AND adjustment_entries.period_year = ? AND adjustment_entries.period_month = ? AND adjustment_entries.cutoff = ?",
			query.Category, query.Period.Year, query.Period.Month, query.Period.Cutoff).
		Where("employees.active = ?", true)

	if query.Search != "" {
		search := likeTerm(query.Search)
		db = db.Where(`LOWER(employees.full_name) LIKE ? ESCAPE '\' OR LOWER(employees.employee_no) LIKE ? ESCAPE '\' OR LOWER(employees.department) LIKE ? ESCAPE '\'`,
			search, search, search)
	}

	if query.Department != "" {
		db = db.Where("employees.department = ?", query.Department)
	}

	switch query.Status {
	case StatusFilterPosted:
		db = db.Where("adjustment_entries.is_posted = ?", true)
	case StatusFilterPending:
		db = db.Where("adjustment_entries.id IS NOT NULL AND adjustment_entries.is_posted = ?", false)
	case StatusFilterNoData:
		db = db.Where("adjustment_entries.id IS NULL")
	}

	// Count total using a separate session so the main query is not altered by Count()
	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "employees.full_name"
	if col, ok := ledgerSortColumns[query.SortBy]; ok {
		order = col
	}
	if query.SortDir == "desc" {
		order += " DESC"
	}
	db = db.Order(order).Order("employees.id ASC")

	if err := query.paginate(db).Select("employees.*").Find(&employees).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]models.LedgerRow, len(employees))
	if len(employees) == 0 {
		return rows, total, nil
	}

	employeeIDs := make([]uint, len(employees))
	for i, e := range employees {
		employeeIDs[i] = e.ID
	}

	var entries []models.AdjustmentEntry
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Scopes(periodScope(query.Category, query.Period)).
		Where("adjustment_entries.employee_id IN ?", employeeIDs).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	byEmployee := make(map[uint]*models.AdjustmentEntry, len(entries))
	for i := range entries {
		byEmployee[entries[i].EmployeeID] = &entries[i]
	}
	for i, e := range employees {
		rows[i] = models.LedgerRow{Employee: e, Entry: byEmployee[e.ID]}
	}

	return rows, total, nil
}

// StatusCounts counts entries of active employees for the period.
// Employees without an entry are not part of any count.
func (r *ledgerRepository) StatusCounts(ctx context.Context, category models.Category, period models.CutoffPeriod) (*models.StatusCounts, error) {
	var result struct {
		AllCount    int64
		PostedCount int64
	}

	err := r.db.WithContext(ctx).
		Model(&models.AdjustmentEntry{}).
		Select("COUNT(adjustment_entries.id) AS all_count, COALESCE(SUM(CASE WHEN adjustment_entries.is_posted THEN 1 ELSE 0 END), 0) AS posted_count").
		Joins("JOIN employees ON employees.id = adjustment_entries.employee_id AND employees.active = ?", true).
		Scopes(periodScope(category, period)).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return &models.StatusCounts{
		All:     result.AllCount,
		Posted:  result.PostedCount,
		Pending: result.AllCount - result.PostedCount,
	}, nil
}

// IsNotFound reports whether err means the row does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

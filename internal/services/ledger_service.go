package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sjperalta/payroll-ledger-api/internal/metrics"
	"github.com/sjperalta/payroll-ledger-api/internal/models"
	"github.com/sjperalta/payroll-ledger-api/internal/repository"
	"github.com/sjperalta/payroll-ledger-api/internal/statemachine"
	"github.com/sjperalta/payroll-ledger-api/pkg/logger"
)

// BulkOptions tunes how bulk operations split their work
type BulkOptions struct {
	ChunkSize   int
	Concurrency int
}

// DefaultBulkOptions returns the defaults used when config leaves them unset
func DefaultBulkOptions() BulkOptions {
	return BulkOptions{ChunkSize: 200, Concurrency: 8}
}

// LedgerService orchestrates adjustment entry operations for both categories
type LedgerService struct {
	ledgerRepo   repository.LedgerRepository
	templateRepo repository.TemplateRepository
	employeeRepo repository.EmployeeRepository
	cache        StatusCache
	bulk         BulkOptions
}

func NewLedgerService(
	ledgerRepo repository.LedgerRepository,
	templateRepo repository.TemplateRepository,
	employeeRepo repository.EmployeeRepository,
	cache StatusCache,
	bulk BulkOptions,
) *LedgerService {
	if cache == nil {
		cache = noopStatusCache{}
	}
	defaults := DefaultBulkOptions()
	if bulk.ChunkSize < 1 {
		bulk.ChunkSize = defaults.ChunkSize
	}
	if bulk.Concurrency < 1 {
		bulk.Concurrency = defaults.Concurrency
	}
	return &LedgerService{
		ledgerRepo:   ledgerRepo,
		templateRepo: templateRepo,
		employeeRepo: employeeRepo,
		cache:        cache,
		bulk:         bulk,
	}
}

func resolve(category models.Category, period models.CutoffPeriod) (models.PeriodRange, error) {
	if !category.Valid() {
		return models.PeriodRange{}, validationError("unknown category %q", category)
	}
	pr, err := period.Resolve()
	if err != nil {
		return models.PeriodRange{}, translateError(err)
	}
	return pr, nil
}

// parseFieldValue validates a field key against the category schema and parses the cell value
func parseFieldValue(category models.Category, field, raw string) (decimal.Decimal, error) {
	spec, ok := category.Field(field)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q is not a %s field", ErrUnknownField, field, category)
	}
	amount, err := models.ParseAmount(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if err := spec.Validate(amount); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return amount, nil
}

// findEntry loads an entry and checks it belongs to the category
func (s *LedgerService) findEntry(ctx context.Context, category models.Category, entryID uint) (*models.AdjustmentEntry, error) {
	entry, err := s.ledgerRepo.FindByID(ctx, entryID)
	if err != nil {
		return nil, translateError(err)
	}
	if entry.Category != category {
		return nil, ErrNotFound
	}
	return entry, nil
}

// CreateFromDefault returns the entry for (employee, category, period), creating it
// from the employee's default template (or zeros) when none exists yet.
// The boolean reports whether this call created the entry.
func (s *LedgerService) CreateFromDefault(ctx context.Context, employeeID uint, category models.Category, period models.CutoffPeriod, actor uint) (*models.AdjustmentEntry, bool, error) {
	pr, err := resolve(category, period)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.ledgerRepo.FindByKey(ctx, employeeID, category, period)
	if err == nil {
		return existing, false, nil
	}
	if !repository.IsNotFound(err) {
		return nil, false, err
	}

	if _, err := s.employeeRepo.FindByID(ctx, employeeID); err != nil {
		if repository.IsNotFound(err) {
			return nil, false, validationError("employee %d does not exist", employeeID)
		}
		return nil, false, err
	}

	var tmpl *models.DefaultTemplate
	tmpl, err = s.templateRepo.FindByEmployee(ctx, employeeID, category)
	if err != nil && !repository.IsNotFound(err) {
		return nil, false, err
	}

	entry, created, err := s.createMember(ctx, employeeID, category, pr, tmpl, actor)
	metrics.ObserveOperation(string(category), "create", err)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.cache.Invalidate(ctx, category, period)
	}
	return entry, created, nil
}

// createMember inserts one entry seeded from tmpl. A concurrent insert of the same key
// is resolved by returning the row that won.
func (s *LedgerService) createMember(ctx context.Context, employeeID uint, category models.Category, pr models.PeriodRange, tmpl *models.DefaultTemplate, actor uint) (*models.AdjustmentEntry, bool, error) {
	if err := statemachine.NewEntryFSM(nil).Create(ctx); err != nil {
		return nil, false, err
	}

	var values map[string]decimal.Decimal
	if tmpl != nil {
		values = tmpl.Values()
	}
	entry := models.NewAdjustmentEntry(employeeID, category, pr, values, actor)

	err := s.ledgerRepo.Create(ctx, entry)
	if errors.Is(err, repository.ErrDuplicateEntry) {
		existing, findErr := s.ledgerRepo.FindByKey(ctx, employeeID, category, pr.CutoffPeriod)
		if findErr != nil {
			return nil, false, findErr
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// PatchField sets a single field of an unposted entry
func (s *LedgerService) PatchField(ctx context.Context, category models.Category, entryID uint, field, raw string) (*models.AdjustmentEntry, error) {
	entry, err := s.findEntry(ctx, category, entryID)
	if err != nil {
		return nil, err
	}

	if err := statemachine.NewEntryFSM(entry).Patch(ctx); err != nil {
		return nil, ErrLocked
	}

	amount, err := parseFieldValue(category, field, raw)
	if err != nil {
		return nil, err
	}

	updated, err := s.ledgerRepo.PatchField(ctx, entryID, field, amount)
	metrics.ObserveOperation(string(category), "patch", err)
	if err != nil {
		return nil, translateError(err)
	}
	return updated, nil
}

// PatchCell is the create-and-edit composite used by the grid: the first edit of a cell
// without a backing entry creates it from the default template, then patches the field.
func (s *LedgerService) PatchCell(ctx context.Context, employeeID uint, category models.Category, period models.CutoffPeriod, field, raw string, actor uint) (*models.AdjustmentEntry, error) {
	if _, err := resolve(category, period); err != nil {
		return nil, err
	}

	existing, err := s.ledgerRepo.FindByKey(ctx, employeeID, category, period)
	switch {
	case err == nil:
		return s.PatchField(ctx, category, existing.ID, field, raw)
	case !repository.IsNotFound(err):
		return nil, err
	}

	// Validate before creating so a rejected edit leaves no entry behind
	if _, err := parseFieldValue(category, field, raw); err != nil {
		return nil, err
	}

	entry, _, err := s.CreateFromDefault(ctx, employeeID, category, period, actor)
	if err != nil {
		return nil, err
	}
	return s.PatchField(ctx, category, entry.ID, field, raw)
}

// Post locks the entry for payroll processing
func (s *LedgerService) Post(ctx context.Context, category models.Category, entryID uint, actor uint) (*models.AdjustmentEntry, error) {
	entry, err := s.findEntry(ctx, category, entryID)
	if err != nil {
		return nil, err
	}

	if err := statemachine.NewEntryFSM(entry).Post(ctx); err != nil {
		return nil, ErrAlreadyPosted
	}

	posted, err := s.ledgerRepo.Post(ctx, entryID, actor)
	metrics.ObserveOperation(string(category), "post", err)
	if err != nil {
		return nil, translateError(err)
	}

	s.cache.Invalidate(ctx, category, posted.Period())
	logger.Info("Entry posted", "entry_id", entryID, "category", category, "period", posted.Period().String(), "actor", actor)
	return posted, nil
}

// SetDefault snapshots the entry's values into the employee's default template
func (s *LedgerService) SetDefault(ctx context.Context, category models.Category, entryID uint, actor uint) (*models.DefaultTemplate, *models.AdjustmentEntry, error) {
	entry, err := s.findEntry(ctx, category, entryID)
	if err != nil {
		return nil, nil, err
	}

	if err := statemachine.NewEntryFSM(entry).SetDefault(ctx); err != nil {
		return nil, nil, ErrLocked
	}

	tmpl, updated, err := s.templateRepo.UpsertFromEntry(ctx, category, entryID, actor)
	metrics.ObserveOperation(string(category), "set_default", err)
	if err != nil {
		return nil, nil, translateError(err)
	}
	return tmpl, updated, nil
}

// GetTemplate returns the default template of an employee
func (s *LedgerService) GetTemplate(ctx context.Context, employeeID uint, category models.Category) (*models.DefaultTemplate, error) {
	if !category.Valid() {
		return nil, validationError("unknown category %q", category)
	}
	tmpl, err := s.templateRepo.FindByEmployee(ctx, employeeID, category)
	if err != nil {
		return nil, translateError(err)
	}
	return tmpl, nil
}

// List returns a page of ledger rows for the period
func (s *LedgerService) List(ctx context.Context, query *repository.LedgerQuery) ([]models.LedgerRow, int64, error) {
	if _, err := resolve(query.Category, query.Period); err != nil {
		return nil, 0, err
	}
	switch query.Status {
	case "", repository.StatusFilterAll, repository.StatusFilterPosted, repository.StatusFilterPending, repository.StatusFilterNoData:
	default:
		return nil, 0, validationError("unknown status filter %q", query.Status)
	}
	return s.ledgerRepo.List(ctx, query)
}

// StatusCounts returns {all, posted, pending} for the period, read through the cache
func (s *LedgerService) StatusCounts(ctx context.Context, category models.Category, period models.CutoffPeriod) (*models.StatusCounts, error) {
	if _, err := resolve(category, period); err != nil {
		return nil, err
	}
	cached, version, ok := s.cache.Get(ctx, category, period)
	if ok {
		return cached, nil
	}

	counts, err := s.ledgerRepo.StatusCounts(ctx, category, period)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, category, period, version, counts)
	return counts, nil
}

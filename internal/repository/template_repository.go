package repository

import (
	"context"
	"time"

	"github.com/sjperalta/payroll-ledger-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TemplateRepository defines the interface for default template data access
type TemplateRepository interface {
	FindByEmployee(ctx context.Context, employeeID uint, category models.Category) (*models.DefaultTemplate, error)
	FindByCategory(ctx context.Context, category models.Category) (map[uint]*models.DefaultTemplate, error)
	UpsertFromEntry(ctx context.Context, category models.Category, entryID uint, actor uint) (*models.DefaultTemplate, *models.AdjustmentEntry, error)
}

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) FindByEmployee(ctx context.Context, employeeID uint, category models.Category) (*models.DefaultTemplate, error) {
	var tmpl models.DefaultTemplate
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("employee_id = ? AND category = ?", employeeID, category).
		First(&tmpl).Error
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// FindByCategory loads every template of a category keyed by employee id
func (r *templateRepository) FindByCategory(ctx context.Context, category models.Category) (map[uint]*models.DefaultTemplate, error) {
	var templates []models.DefaultTemplate
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("category = ?", category).
		Find(&templates).Error
	if err != nil {
		return nil, err
	}

	byEmployee := make(map[uint]*models.DefaultTemplate, len(templates))
	for i := range templates {
		byEmployee[templates[i].EmployeeID] = &templates[i]
	}
	return byEmployee, nil
}

// UpsertFromEntry copies the entry's current values into the template for
// (entry.employee_id, entry.category) and marks the entry as the template source.
// The entry row is locked for the duration so a concurrent post cannot interleave.
// Entries of another category are reported as not found.
func (r *templateRepository) UpsertFromEntry(ctx context.Context, category models.Category, entryID uint, actor uint) (*models.DefaultTemplate, *models.AdjustmentEntry, error) {
	var entry models.AdjustmentEntry
	var templateID uint

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&entry, entryID).Error; err != nil {
			return err
		}
		if entry.Category != category {
			return gorm.ErrRecordNotFound
		}
		if !entry.MaySetDefault() {
			return ErrEntryLocked
		}
		if err := tx.Where("entry_id = ?", entry.ID).Find(&entry.Lines).Error; err != nil {
			return err
		}

		now := time.Now()
		sourceID := entry.ID
		tmpl := models.DefaultTemplate{
			EmployeeID:    entry.EmployeeID,
			Category:      entry.Category,
			SourceEntryID: &sourceID,
			UpdatedBy:     actor,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		err := tx.Omit("Lines").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}, {Name: "category"}},
			DoUpdates: clause.AssignmentColumns([]string{"source_entry_id", "updated_by", "updated_at"}),
		}).Create(&tmpl).Error
		if err != nil {
			return err
		}

		// The conflict path does not reliably return the existing id on every driver
		var stored models.DefaultTemplate
		if err := tx.Select("id").
			Where("employee_id = ? AND category = ?", entry.EmployeeID, entry.Category).
			First(&stored).Error; err != nil {
			return err
		}
		templateID = stored.ID

		values := entry.Values()
		lines := make([]models.DefaultTemplateLine, 0, len(values))
		for _, f := range entry.Category.Fields() {
			lines = append(lines, models.DefaultTemplateLine{
				TemplateID: templateID,
				FieldKey:   f.Key,
				Amount:     values[f.Key],
			})
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "template_id"}, {Name: "field_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount"}),
		}).Create(&lines).Error
		if err != nil {
			return err
		}

		if err := tx.Model(&models.AdjustmentEntry{}).
			Where("id = ?", entry.ID).
			Updates(map[string]interface{}{"is_default": true, "updated_at": now}).Error; err != nil {
			return err
		}
		entry.IsDefault = true
		entry.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var tmpl models.DefaultTemplate
	if err := r.db.WithContext(ctx).Preload("Lines").First(&tmpl, templateID).Error; err != nil {
		return nil, nil, err
	}
	return &tmpl, &entry, nil
}

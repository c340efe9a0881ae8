package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultTemplate holds the saved field values used to seed new entries
// for one (employee, category). It is a snapshot taken at set-default time.
type DefaultTemplate struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	EmployeeID    uint      `gorm:"not null;uniqueIndex:idx_default_templates_key,priority:1" json:"employee_id"`
	Category      Category  `gorm:"type:varchar(20);not null;uniqueIndex:idx_default_templates_key,priority:2" json:"category"`
	SourceEntryID *uint     `json:"source_entry_id"`
	UpdatedBy     uint      `json:"updated_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Associations
	Lines []DefaultTemplateLine `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
}

// TableName specifies the table name for DefaultTemplate
func (DefaultTemplate) TableName() string {
	return "default_templates"
}

// DefaultTemplateLine holds one saved field value
type DefaultTemplateLine struct {
	ID         uint            `gorm:"primaryKey" json:"-"`
	TemplateID uint            `gorm:"not null;uniqueIndex:idx_default_template_lines_field,priority:1" json:"-"`
	FieldKey   string          `gorm:"size:50;not null;uniqueIndex:idx_default_template_lines_field,priority:2" json:"field"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
}

// TableName specifies the table name for DefaultTemplateLine
func (DefaultTemplateLine) TableName() string {
	return "default_template_lines"
}

// Values returns the saved values zero-filled to the category schema
func (t *DefaultTemplate) Values() map[string]decimal.Decimal {
	values := t.Category.ZeroValues()
	for _, l := range t.Lines {
		if _, ok := values[l.FieldKey]; ok {
			values[l.FieldKey] = l.Amount
		}
	}
	return values
}

// DefaultTemplateResponse is the JSON response format for templates
type DefaultTemplateResponse struct {
	ID            uint              `json:"id"`
	EmployeeID    uint              `json:"employee_id"`
	Category      Category          `json:"category"`
	Values        map[string]string `json:"values"`
	SourceEntryID *uint             `json:"source_entry_id"`
	UpdatedBy     uint              `json:"updated_by"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ToResponse converts DefaultTemplate to DefaultTemplateResponse
func (t *DefaultTemplate) ToResponse() DefaultTemplateResponse {
	values := make(map[string]string)
	for k, v := range t.Values() {
		values[k] = v.StringFixed(AmountScale)
	}
	return DefaultTemplateResponse{
		ID:            t.ID,
		EmployeeID:    t.EmployeeID,
		Category:      t.Category,
		Values:        values,
		SourceEntryID: t.SourceEntryID,
		UpdatedBy:     t.UpdatedBy,
		UpdatedAt:     t.UpdatedAt,
	}
}

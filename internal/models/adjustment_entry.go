package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentEntry is the per-employee, per-category, per-cutoff record of monetary line items.
// (employee_id, category, period_year, period_month, cutoff) is unique at the storage level.
type AdjustmentEntry struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	EmployeeID  uint       `gorm:"not null;uniqueIndex:idx_adjustment_entries_key,priority:1" json:"employee_id"`
	Category    Category   `gorm:"type:varchar(20);not null;uniqueIndex:idx_adjustment_entries_key,priority:2;index:idx_adjustment_entries_period,priority:1" json:"category"`
	PeriodYear  int        `gorm:"not null;uniqueIndex:idx_adjustment_entries_key,priority:3;index:idx_adjustment_entries_period,priority:2" json:"period_year"`
	PeriodMonth int        `gorm:"not null;uniqueIndex:idx_adjustment_entries_key,priority:4;index:idx_adjustment_entries_period,priority:3" json:"period_month"`
	Cutoff      Cutoff     `gorm:"type:varchar(10);not null;uniqueIndex:idx_adjustment_entries_key,priority:5;index:idx_adjustment_entries_period,priority:4" json:"cutoff"`
	CutoffDate  time.Time  `gorm:"type:date;not null" json:"cutoff_date"`
	IsDefault   bool       `gorm:"not null;default:false" json:"is_default"`
	IsPosted    bool       `gorm:"not null;default:false;index" json:"is_posted"`
	PostedAt    *time.Time `json:"posted_at"`
	PostedBy    *uint      `json:"posted_by"`
	CreatedBy   uint       `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Associations
	Lines    []AdjustmentEntryLine `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
	Employee *Employee             `gorm:"foreignKey:EmployeeID" json:"-"`
}

// TableName specifies the table name for AdjustmentEntry
func (AdjustmentEntry) TableName() string {
	return "adjustment_entries"
}

// AdjustmentEntryLine holds one field value of an entry.
// One row per (entry, field) so single-field patches never rewrite sibling values.
type AdjustmentEntryLine struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	EntryID   uint            `gorm:"not null;uniqueIndex:idx_adjustment_entry_lines_field,priority:1" json:"-"`
	FieldKey  string          `gorm:"size:50;not null;uniqueIndex:idx_adjustment_entry_lines_field,priority:2" json:"field"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName specifies the table name for AdjustmentEntryLine
func (AdjustmentEntryLine) TableName() string {
	return "adjustment_entry_lines"
}

// Entry status constants. "no_data" is never stored: it describes an employee
// without an entry for the period.
const (
	EntryStatusNoData  = "no_data"
	EntryStatusPending = "pending"
	EntryStatusPosted  = "posted"
)

// NewAdjustmentEntry builds an unsaved entry stamped with the period anchor date.
// Fields missing from values are zero-filled; keys outside the schema are dropped.
func NewAdjustmentEntry(employeeID uint, category Category, period PeriodRange, values map[string]decimal.Decimal, createdBy uint) *AdjustmentEntry {
	entry := &AdjustmentEntry{
		EmployeeID:  employeeID,
		Category:    category,
		PeriodYear:  period.Year,
		PeriodMonth: period.Month,
		Cutoff:      period.Cutoff,
		CutoffDate:  period.Anchor,
		CreatedBy:   createdBy,
	}
	for _, f := range category.Fields() {
		amount := decimal.Zero
		if v, ok := values[f.Key]; ok {
			amount = v.Round(AmountScale)
		}
		entry.Lines = append(entry.Lines, AdjustmentEntryLine{FieldKey: f.Key, Amount: amount})
	}
	return entry
}

// Period returns the cutoff period the entry belongs to
func (e *AdjustmentEntry) Period() CutoffPeriod {
	return CutoffPeriod{Year: e.PeriodYear, Month: e.PeriodMonth, Cutoff: e.Cutoff}
}

// Status returns the workflow status of the entry
func (e *AdjustmentEntry) Status() string {
	if e.IsPosted {
		return EntryStatusPosted
	}
	return EntryStatusPending
}

// Values returns the field values keyed by field, zero-filled to the category schema
func (e *AdjustmentEntry) Values() map[string]decimal.Decimal {
	values := e.Category.ZeroValues()
	for _, l := range e.Lines {
		values[l.FieldKey] = l.Amount
	}
	return values
}

// Value returns a single field value
func (e *AdjustmentEntry) Value(field string) decimal.Decimal {
	for _, l := range e.Lines {
		if l.FieldKey == field {
			return l.Amount
		}
	}
	return decimal.Zero
}

// Total sums every line
func (e *AdjustmentEntry) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Amount)
	}
	return total
}

// MayPatch returns true if a field value can still be changed
func (e *AdjustmentEntry) MayPatch() bool {
	return !e.IsPosted
}

// MaySetDefault returns true if the entry can be promoted into the default template
func (e *AdjustmentEntry) MaySetDefault() bool {
	return !e.IsPosted
}

// MayPost returns true if the entry can be posted
func (e *AdjustmentEntry) MayPost() bool {
	return !e.IsPosted
}

// AdjustmentEntryResponse is the JSON response format for entries
type AdjustmentEntryResponse struct {
	ID         uint              `json:"id"`
	EmployeeID uint              `json:"employee_id"`
	Category   Category          `json:"category"`
	Period     CutoffPeriod      `json:"period"`
	CutoffDate string            `json:"cutoff_date"`
	Values     map[string]string `json:"values"`
	Total      string            `json:"total"`
	Status     string            `json:"status"`
	IsDefault  bool              `json:"is_default"`
	IsPosted   bool              `json:"is_posted"`
	PostedAt   *time.Time        `json:"posted_at"`
	PostedBy   *uint             `json:"posted_by"`
	CreatedBy  uint              `json:"created_by"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ToResponse converts AdjustmentEntry to AdjustmentEntryResponse
func (e *AdjustmentEntry) ToResponse() AdjustmentEntryResponse {
	values := make(map[string]string, len(e.Category.Fields()))
	for k, v := range e.Values() {
		values[k] = v.StringFixed(AmountScale)
	}
	return AdjustmentEntryResponse{
		ID:         e.ID,
		EmployeeID: e.EmployeeID,
		Category:   e.Category,
		Period:     e.Period(),
		CutoffDate: e.CutoffDate.Format("2006-01-02"),
		Values:     values,
		Total:      e.Total().StringFixed(AmountScale),
		Status:     e.Status(),
		IsDefault:  e.IsDefault,
		IsPosted:   e.IsPosted,
		PostedAt:   e.PostedAt,
		PostedBy:   e.PostedBy,
		CreatedBy:  e.CreatedBy,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

// LedgerRow pairs an employee with their entry for the queried period (nil when none exists)
type LedgerRow struct {
	Employee Employee
	Entry    *AdjustmentEntry
}

// LedgerRowResponse is the JSON response format for ledger rows
type LedgerRowResponse struct {
	Employee EmployeeSummary          `json:"employee"`
	Status   string                   `json:"status"`
	Entry    *AdjustmentEntryResponse `json:"entry"`
}

// ToResponse converts LedgerRow to LedgerRowResponse
func (r *LedgerRow) ToResponse() LedgerRowResponse {
	resp := LedgerRowResponse{
		Employee: r.Employee.ToSummary(),
		Status:   EntryStatusNoData,
	}
	if r.Entry != nil {
		entry := r.Entry.ToResponse()
		resp.Entry = &entry
		resp.Status = r.Entry.Status()
	}
	return resp
}

// StatusCounts aggregates entry states for a (category, period).
// Employees without an entry are excluded from all three counts.
type StatusCounts struct {
	All     int64 `json:"all"`
	Posted  int64 `json:"posted"`
	Pending int64 `json:"pending"`
}

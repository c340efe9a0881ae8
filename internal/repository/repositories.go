package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Employee EmployeeRepository
	Ledger   LedgerRepository
	Template TemplateRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Employee: NewEmployeeRepository(db),
		Ledger:   NewLedgerRepository(db),
		Template: NewTemplateRepository(db),
	}
}

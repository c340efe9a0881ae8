package models

import (
	"time"
)

// Employee is the read model of the external employee directory.
// The ledger never writes to this table outside of development seeding.
type Employee struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EmployeeNo string    `gorm:"size:30;uniqueIndex" json:"employee_no"`
	FullName   string    `gorm:"size:255;not null" json:"full_name"`
	Department string    `gorm:"size:100;index" json:"department"`
	Active     bool      `gorm:"not null;index" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for Employee
func (Employee) TableName() string {
	return "employees"
}

// EmployeeSummary is the employee part of a ledger row
type EmployeeSummary struct {
	ID         uint   `json:"id"`
	EmployeeNo string `json:"employee_no"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
}

// ToSummary converts Employee to EmployeeSummary
func (e *Employee) ToSummary() EmployeeSummary {
	return EmployeeSummary{
		ID:         e.ID,
		EmployeeNo: e.EmployeeNo,
		FullName:   e.FullName,
		Department: e.Department,
	}
}

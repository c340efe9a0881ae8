package repository

import (
	"context"

	"github.com/sjperalta/payroll-ledger-api/internal/models"
	"gorm.io/gorm"
)

// EmployeeRepository reads the employee directory
type EmployeeRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Employee, error)
	FindActiveIDs(ctx context.Context) ([]uint, error)
	FindOrCreateByNumber(ctx context.Context, employee *models.Employee) (bool, error)
}

type employeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) FindByID(ctx context.Context, id uint) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.WithContext(ctx).First(&employee, id).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindActiveIDs returns the ids of every active employee, ordered by id
func (r *employeeRepository) FindActiveIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("active = ?", true).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// FindOrCreateByNumber loads the employee with employee.EmployeeNo into employee,
// inserting it when absent. It reports whether a row was inserted.
func (r *employeeRepository) FindOrCreateByNumber(ctx context.Context, employee *models.Employee) (bool, error) {
	res := r.db.WithContext(ctx).
		Where(models.Employee{EmployeeNo: employee.EmployeeNo}).
		FirstOrCreate(employee)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

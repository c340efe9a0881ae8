package services

import (
	"errors"
	"fmt"

	"github.com/sjperalta/payroll-ledger-api/internal/models"
	"github.com/sjperalta/payroll-ledger-api/internal/repository"
	"gorm.io/gorm"
)

// Common service errors
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("record not found")
	ErrUnknownField   = errors.New("unknown field")
	ErrInvalidValue   = errors.New("invalid value")
	ErrDuplicateEntry = repository.ErrDuplicateEntry
	ErrLocked         = repository.ErrEntryLocked
	ErrAlreadyPosted  = repository.ErrEntryAlreadyPosted
)

// translateError maps storage and model errors onto the service taxonomy
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, models.ErrInvalidPeriod), errors.Is(err, models.ErrUnknownCategory):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return err
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

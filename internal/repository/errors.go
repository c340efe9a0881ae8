package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Storage-level outcomes of ledger writes
var (
	ErrDuplicateEntry     = errors.New("an entry already exists for this employee, category and period")
	ErrEntryLocked        = errors.New("entry is posted and can no longer be changed")
	ErrEntryAlreadyPosted = errors.New("entry is already posted")
)

// isDuplicateKeyError detects unique-constraint violations. gorm translates them to
// ErrDuplicatedKey when TranslateError is on; the pg error code covers raw sessions.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

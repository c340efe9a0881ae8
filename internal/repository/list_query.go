package repository

import (
	"strings"

	"gorm.io/gorm"
)

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
	}
}

// Normalize clamps paging values to sane bounds
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 20
	}
	if q.PerPage > 500 {
		q.PerPage = 500
	}
}

// TotalPages returns the number of pages needed for total rows
func (q *ListQuery) TotalPages(total int64) int64 {
	if q.PerPage <= 0 {
		return 1
	}
	return (total + int64(q.PerPage) - 1) / int64(q.PerPage)
}

// paginate applies offset/limit for the query page
func (q *ListQuery) paginate(db *gorm.DB) *gorm.DB {
	if q.PerPage > 0 {
		db = db.Offset((q.Page - 1) * q.PerPage).Limit(q.PerPage)
	}
	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likeTerm builds a lower-cased LIKE pattern matched with ESCAPE '\'. Wildcards typed
// by the user match literally. LOWER(col) LIKE keeps search case-insensitive on both
// postgres and sqlite.
func likeTerm(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(search))) + "%"
}

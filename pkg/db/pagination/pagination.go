package pagination

import (
	"strconv"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Query is an offset-style page request. Page is 1-based.
type Query struct {
	Page  int
	Limit int
}

// Parse builds a Query from raw query-string values, applying the
// default and the hard cap on limit.
func Parse(page, limit string) Query {
	q := Query{Page: 1, Limit: DefaultLimit}
	if parsed, err := strconv.Atoi(page); err == nil && parsed > 0 {
		q.Page = parsed
	}
	if parsed, err := strconv.Atoi(limit); err == nil && parsed > 0 {
		q.Limit = parsed
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// Apply adds OFFSET/LIMIT to a gorm statement.
func (q Query) Apply(stmt *gorm.DB) *gorm.DB {
	return stmt.Offset(q.Offset()).Limit(q.Limit)
}

// Pages returns the total page count for a result set.
func Pages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return pages
}

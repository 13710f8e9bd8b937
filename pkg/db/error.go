package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Unique-violation markers for drivers that surface the constraint error
// as text instead of gorm.ErrDuplicatedKey: postgres 23505, mysql 1062
// and sqlite 2067 respectively.
var duplicateKeyMarks = []string{
	"duplicate key value violates unique constraint",
	"Error 1062",
	"UNIQUE constraint failed",
}

// IsDuplicateKeyErr reports whether err is a unique-constraint violation
// on any supported dialect.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, mark := range duplicateKeyMarks {
		if strings.Contains(msg, mark) {
			return true
		}
	}
	return false
}

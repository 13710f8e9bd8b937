package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

var ErrNotFound = errors.New("audit entry not found")

// Entry is one append-only trace of a mutating request. Entries are
// written once and never updated or deleted by the application.
type Entry struct {
	ID       snowflake.ID   `gorm:"primaryKey" json:"id"`
	User     string         `json:"user"`
	Action   string         `json:"action"`
	Route    string         `json:"route"`
	Field    string         `json:"field,omitempty"`
	OldValue datatypes.JSON `gorm:"column:old_value" json:"oldValue,omitempty"`
	NewValue datatypes.JSON `gorm:"column:new_value" json:"newValue,omitempty"`
	Status   int            `json:"status"`
	Date     time.Time      `gorm:"index:idx_audit_date,sort:desc" json:"date"`
	IP       string         `gorm:"column:ip" json:"ip,omitempty"`
}

func (Entry) TableName() string { return "audit_logs" }

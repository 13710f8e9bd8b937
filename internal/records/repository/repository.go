package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/iosworks/claimdesk/internal/records/domain"
	pkgdb "github.com/iosworks/claimdesk/pkg/db"
	"github.com/iosworks/claimdesk/pkg/db/pagination"
)

// Repository is the shared persistence layer for registry entities. It
// is tenant-agnostic: every call receives the gorm handle for the
// tenant it should touch.
type Repository[T domain.Entity] struct {
	desc domain.Descriptor
}

func New[T domain.Entity]() *Repository[T] {
	var zero T
	return &Repository[T]{desc: zero.Descriptor()}
}

func (r *Repository[T]) Descriptor() domain.Descriptor { return r.desc }

// List returns one page of records plus the unpaginated total. A
// non-empty filter matches any search column, case-insensitively.
func (r *Repository[T]) List(ctx context.Context, db *gorm.DB, q pagination.Query, filter string) ([]T, int64, error) {
	stmt := db.WithContext(ctx).Table(r.desc.Table)
	if filter = strings.TrimSpace(filter); filter != "" {
		pattern := "%" + strings.ToLower(filter) + "%"
		clauses := make([]string, 0, len(r.desc.SearchColumns))
		args := make([]any, 0, len(r.desc.SearchColumns))
		for _, col := range r.desc.SearchColumns {
			clauses = append(clauses, fmt.Sprintf("LOWER(%s) LIKE ?", col))
			args = append(args, pattern)
		}
		stmt = stmt.Where(strings.Join(clauses, " OR "), args...)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []T
	err := q.Apply(stmt.Order(r.desc.DefaultSort)).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *Repository[T]) Get(ctx context.Context, db *gorm.DB, id snowflake.ID) (T, error) {
	var item T
	err := db.WithContext(ctx).Table(r.desc.Table).Where("id = ?", id).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return item, domain.ErrNotFound
	}
	return item, err
}

func (r *Repository[T]) Create(ctx context.Context, db *gorm.DB, id snowflake.ID, values map[string]any) (T, error) {
	row := r.writable(values)
	now := time.Now().UTC()
	row["id"] = id
	row["created_at"] = now
	row["updated_at"] = now

	if err := db.WithContext(ctx).Table(r.desc.Table).Create(row).Error; err != nil {
		var zero T
		if pkgdb.IsDuplicateKeyErr(err) {
			return zero, domain.ErrConflict
		}
		return zero, err
	}
	return r.Get(ctx, db, id)
}

func (r *Repository[T]) Update(ctx context.Context, db *gorm.DB, id snowflake.ID, values map[string]any) (T, error) {
	// Existence is checked up front: mysql reports zero affected rows
	// for an update that changes nothing, so RowsAffected cannot tell a
	// missing record from a no-op write.
	if _, err := r.Get(ctx, db, id); err != nil {
		var zero T
		return zero, err
	}
	row := r.writable(values)
	if len(row) > 0 {
		row["updated_at"] = time.Now().UTC()
		err := db.WithContext(ctx).Table(r.desc.Table).Where("id = ?", id).Updates(row).Error
		if err != nil {
			var zero T
			if pkgdb.IsDuplicateKeyErr(err) {
				return zero, domain.ErrConflict
			}
			return zero, err
		}
	}
	return r.Get(ctx, db, id)
}

func (r *Repository[T]) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	res := db.WithContext(ctx).Table(r.desc.Table).Where("id = ?", id).Delete(nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// writable keeps only the columns callers are allowed to set. Location
// never comes from the payload directly, it is filled in by the
// geocoding step before the write.
func (r *Repository[T]) writable(values map[string]any) map[string]any {
	row := make(map[string]any, len(values))
	for _, field := range r.desc.Fields {
		if v, ok := values[field]; ok {
			row[field] = v
		}
	}
	if r.desc.HasAddress {
		if v, ok := values["location"]; ok {
			row["location"] = v
		}
	}
	return row
}

package repository

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/iosworks/claimdesk/internal/attendance/domain"
	"github.com/iosworks/claimdesk/pkg/db/pagination"
)

// writableColumns is derived from the model's json tags; the column and
// wire names are identical. Identity, timestamps and the embedded
// sequences are managed by the service, not by raw payload writes.
var writableColumns = func() map[string]bool {
	skip := map[string]bool{"id": true, "created_at": true, "updated_at": true, "followups": true, "files": true}
	cols := map[string]bool{}
	t := reflect.TypeOf(domain.Attendance{})
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if tag == "" || tag == "-" || skip[tag] {
			continue
		}
		cols[tag] = true
	}
	return cols
}()

type Repository struct{}

func New() *Repository { return &Repository{} }

// List returns one page, newest first.
func (r *Repository) List(ctx context.Context, db *gorm.DB, q pagination.Query) ([]domain.Attendance, int64, error) {
	stmt := db.WithContext(ctx).Model(&domain.Attendance{})

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []domain.Attendance
	err := q.Apply(stmt.Order("created_at desc")).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *Repository) Get(ctx context.Context, db *gorm.DB, id snowflake.ID) (domain.Attendance, error) {
	var item domain.Attendance
	err := db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return item, domain.ErrNotFound
	}
	return item, err
}

func (r *Repository) Create(ctx context.Context, db *gorm.DB, id snowflake.ID, values map[string]any) (domain.Attendance, error) {
	row := writable(values)
	now := time.Now().UTC()
	row["id"] = id
	row["created_at"] = now
	row["updated_at"] = now
	if _, ok := row["followups"]; !ok {
		row["followups"] = datatypes.JSON("[]")
	}
	if _, ok := row["files"]; !ok {
		row["files"] = datatypes.JSON("[]")
	}

	if err := db.WithContext(ctx).Table("attendances").Create(row).Error; err != nil {
		return domain.Attendance{}, err
	}
	return r.Get(ctx, db, id)
}

func (r *Repository) Update(ctx context.Context, db *gorm.DB, id snowflake.ID, values map[string]any) (domain.Attendance, error) {
	// Existence is checked up front: mysql reports zero affected rows
	// for an update that changes nothing, so RowsAffected cannot tell a
	// missing record from a no-op write.
	if _, err := r.Get(ctx, db, id); err != nil {
		return domain.Attendance{}, err
	}
	row := writable(values)
	if len(row) > 0 {
		row["updated_at"] = time.Now().UTC()
		if err := db.WithContext(ctx).Table("attendances").Where("id = ?", id).Updates(row).Error; err != nil {
			return domain.Attendance{}, err
		}
	}
	return r.Get(ctx, db, id)
}

func (r *Repository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Attendance{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SaveFollowUps replaces the follow-up sequence of one attendance.
func (r *Repository) SaveFollowUps(ctx context.Context, db *gorm.DB, id snowflake.ID, followups []domain.FollowUp) error {
	return r.saveSequence(ctx, db, id, "followups", followups)
}

// SaveFiles replaces the attachment metadata sequence of one attendance.
func (r *Repository) SaveFiles(ctx context.Context, db *gorm.DB, id snowflake.ID, files []domain.FileMeta) error {
	return r.saveSequence(ctx, db, id, "files", files)
}

func (r *Repository) saveSequence(ctx context.Context, db *gorm.DB, id snowflake.ID, column string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	res := db.WithContext(ctx).Table("attendances").Where("id = ?", id).Updates(map[string]any{
		column:       datatypes.JSON(raw),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func writable(values map[string]any) map[string]any {
	row := make(map[string]any, len(values))
	for key, v := range values {
		if writableColumns[key] {
			row[key] = v
		}
	}
	// The embedded sequences may be seeded at creation time.
	for _, key := range []string{"followups", "files"} {
		if v, ok := values[key]; ok {
			if raw, err := json.Marshal(v); err == nil {
				row[key] = datatypes.JSON(raw)
			}
		}
	}
	return row
}

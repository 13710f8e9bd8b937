package attachment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	attdomain "github.com/iosworks/claimdesk/internal/attendance/domain"
	attservice "github.com/iosworks/claimdesk/internal/attendance/service"
	"github.com/iosworks/claimdesk/internal/blobstore"
	"github.com/iosworks/claimdesk/internal/tenant"
)

var (
	// ErrNotFound covers both a missing blob and a missing metadata entry.
	ErrNotFound = errors.New("attachment not found")
	// ErrFileRequired rejects uploads without content or filename.
	ErrFileRequired = errors.New("file content and filename are required")
)

// Upload carries one incoming attachment.
type Upload struct {
	Category     string
	OriginalName string
	ContentType  string
	Data         []byte
}

// Manager keeps a tenant's blob store and the attachment metadata list on
// the owning attendance in sync. The blob write always completes before
// the metadata persist, so a failure can strand a blob but never creates
// metadata pointing at nothing.
type Manager struct {
	registry    *tenant.Registry
	blobs       *blobstore.Store
	attendances *attservice.Service
	log         *zap.Logger
}

func NewManager(registry *tenant.Registry, blobs *blobstore.Store, attendances *attservice.Service, log *zap.Logger) *Manager {
	return &Manager{
		registry:    registry,
		blobs:       blobs,
		attendances: attendances,
		log:         log.Named("attachment"),
	}
}

// List returns the metadata entries of one attendance without touching
// the blob store.
func (m *Manager) List(ctx context.Context, tenantID string, attendanceID snowflake.ID) ([]attdomain.FileMeta, error) {
	att, err := m.attendances.GetIn(ctx, tenantID, attendanceID)
	if err != nil {
		return nil, err
	}
	return att.Files, nil
}

// Open streams a stored blob by key. A metadata entry whose blob is gone
// yields ErrNotFound; the stale entry is left in place.
func (m *Manager) Open(ctx context.Context, tenantID, key string) (*blobstore.Blob, error) {
	db, err := m.registry.Handle(tenantID)
	if err != nil {
		return nil, err
	}
	blob, err := m.blobs.Open(ctx, db, key)
	if err == blobstore.ErrNotFound {
		return nil, ErrNotFound
	}
	return blob, err
}

// Add stores a new attachment and appends its metadata entry.
func (m *Manager) Add(ctx context.Context, tenantID string, attendanceID snowflake.ID, up Upload) (attdomain.Attendance, error) {
	if len(up.Data) == 0 || strings.TrimSpace(up.OriginalName) == "" {
		return attdomain.Attendance{}, ErrFileRequired
	}
	db, err := m.registry.Handle(tenantID)
	if err != nil {
		return attdomain.Attendance{}, err
	}
	att, err := m.attendances.GetIn(ctx, tenantID, attendanceID)
	if err != nil {
		return attdomain.Attendance{}, err
	}

	key := blobstore.NewKey(up.OriginalName)
	if err := m.blobs.Put(ctx, db, key, up.ContentType, up.Data); err != nil {
		return attdomain.Attendance{}, err
	}

	files := append([]attdomain.FileMeta(att.Files), attdomain.FileMeta{
		At:           time.Now().UTC(),
		Category:     up.Category,
		OriginalName: up.OriginalName,
		Key:          key,
	})
	return m.attendances.SaveFiles(ctx, tenantID, attendanceID, files)
}

// Replace swaps an attachment's content. The match is by exact storage
// key first, then by category, case-insensitively. The matched entry is
// replaced at its index; with no match the upload is appended instead.
// The superseded blob is deleted best-effort.
func (m *Manager) Replace(ctx context.Context, tenantID string, attendanceID snowflake.ID, oldKey string, up Upload) (attdomain.Attendance, error) {
	if len(up.Data) == 0 || strings.TrimSpace(up.OriginalName) == "" {
		return attdomain.Attendance{}, ErrFileRequired
	}
	db, err := m.registry.Handle(tenantID)
	if err != nil {
		return attdomain.Attendance{}, err
	}
	att, err := m.attendances.GetIn(ctx, tenantID, attendanceID)
	if err != nil {
		return attdomain.Attendance{}, err
	}

	idx := matchEntry(att.Files, oldKey, up.Category)
	if idx >= 0 {
		if err := m.blobs.Delete(ctx, db, att.Files[idx].Key); err != nil {
			m.log.Warn("old blob delete failed",
				zap.String("tenant", tenantID), zap.String("key", att.Files[idx].Key), zap.Error(err))
		}
	}

	key := blobstore.NewKey(up.OriginalName)
	if err := m.blobs.Put(ctx, db, key, up.ContentType, up.Data); err != nil {
		return attdomain.Attendance{}, err
	}

	entry := attdomain.FileMeta{
		At:           time.Now().UTC(),
		Category:     up.Category,
		OriginalName: up.OriginalName,
		Key:          key,
	}
	files := append([]attdomain.FileMeta(nil), att.Files...)
	if idx >= 0 {
		if entry.Category == "" {
			entry.Category = files[idx].Category
		}
		files[idx] = entry
	} else {
		files = append(files, entry)
	}
	return m.attendances.SaveFiles(ctx, tenantID, attendanceID, files)
}

// Remove deletes an attachment by storage key. A key with no blob and no
// metadata entry is a no-op, not an error.
func (m *Manager) Remove(ctx context.Context, tenantID string, attendanceID snowflake.ID, key string) (attdomain.Attendance, error) {
	db, err := m.registry.Handle(tenantID)
	if err != nil {
		return attdomain.Attendance{}, err
	}
	att, err := m.attendances.GetIn(ctx, tenantID, attendanceID)
	if err != nil {
		return attdomain.Attendance{}, err
	}

	if err := m.blobs.Delete(ctx, db, key); err != nil {
		m.log.Warn("blob delete failed",
			zap.String("tenant", tenantID), zap.String("key", key), zap.Error(err))
	}

	files := make([]attdomain.FileMeta, 0, len(att.Files))
	for _, f := range att.Files {
		if f.Key != key {
			files = append(files, f)
		}
	}
	if len(files) == len(att.Files) {
		return att, nil
	}
	return m.attendances.SaveFiles(ctx, tenantID, attendanceID, files)
}

func matchEntry(files []attdomain.FileMeta, key, category string) int {
	if key != "" {
		for i, f := range files {
			if f.Key == key {
				return i
			}
		}
	}
	if category != "" {
		for i, f := range files {
			if strings.EqualFold(f.Category, category) {
				return i
			}
		}
	}
	return -1
}

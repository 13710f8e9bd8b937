package blobstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no blob exists under the requested key.
var ErrNotFound = errors.New("blob not found")

// Blob is one stored binary, content-addressed by its generated key. Blobs
// live in the tenant's own store, next to the records that reference them.
type Blob struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Key         string       `gorm:"uniqueIndex;not null" json:"key"`
	ContentType string       `json:"content_type"`
	Size        int64        `json:"size"`
	Data        []byte       `gorm:"type:blob" json:"-"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
}

func (Blob) TableName() string { return "blobs" }

// Store reads and writes blobs on a per-tenant handle.
type Store struct {
	genID *snowflake.Node
}

func NewStore(genID *snowflake.Node) *Store {
	return &Store{genID: genID}
}

// NewKey derives a storage key from an original filename: a millisecond
// timestamp prefix keeps keys unique across re-uploads of the same file,
// and the slugged name keeps them safe for any backing store.
func NewKey(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	name := slug.Make(base)
	if name == "" {
		name = "file"
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), name, ext)
}

// Put writes a blob under key. The write is durable once Put returns.
func (s *Store) Put(ctx context.Context, db *gorm.DB, key, contentType string, data []byte) error {
	blob := Blob{
		ID:          s.genID.Generate(),
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(&blob).Error
}

// Open returns the blob with its content.
func (s *Store) Open(ctx context.Context, db *gorm.DB, key string) (*Blob, error) {
	var blob Blob
	err := db.WithContext(ctx).Where("key = ?", key).First(&blob).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &blob, nil
}

// Stat returns blob metadata without loading the content.
func (s *Store) Stat(ctx context.Context, db *gorm.DB, key string) (*Blob, error) {
	var blob Blob
	err := db.WithContext(ctx).
		Select("id", "key", "content_type", "size", "created_at").
		Where("key = ?", key).
		First(&blob).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &blob, nil
}

// Delete removes the blob under key. Deleting a missing key is not an
// error.
func (s *Store) Delete(ctx context.Context, db *gorm.DB, key string) error {
	return db.WithContext(ctx).Where("key = ?", key).Delete(&Blob{}).Error
}

package tenant

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/iosworks/claimdesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type note struct {
	ID   int64  `gorm:"primaryKey"`
	Body string
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	holder := config.NewStaticStorageHolder(config.StorageConfig{
		Driver:      "sqlite",
		DSNTemplate: fmt.Sprintf("file:%s_{tenant}?mode=memory&cache=shared", t.Name()),
	})
	return NewRegistry(holder, zap.NewNop(), []any{&note{}})
}

func TestHandleMemoized(t *testing.T) {
	reg := newTestRegistry(t)

	first, err := reg.Handle("t1")
	require.NoError(t, err)
	second, err := reg.Handle("t1")
	require.NoError(t, err)

	assert.Same(t, first, second)

	other, err := reg.Handle("t2")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestHandleConcurrentFirstUse(t *testing.T) {
	reg := newTestRegistry(t)

	const n = 16
	handles := make([]*gorm.DB, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := reg.Handle("shared")
			assert.NoError(t, err)
			handles[i] = db
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, handles[0], handles[i])
	}
}

func TestHandleRejectsMalformedTenant(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Handle("no spaces allowed")
	require.Error(t, err)

	_, err = reg.Handle("../escape")
	require.Error(t, err)
}

func TestHandlesPreservesOrder(t *testing.T) {
	reg := newTestRegistry(t)

	pairs, err := reg.Handles([]string{"b", "a", "c"})
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	assert.Equal(t, "b", pairs[0].Tenant)
	assert.Equal(t, "a", pairs[1].Tenant)
	assert.Equal(t, "c", pairs[2].Tenant)
}

func seedNotes(t *testing.T, db *gorm.DB, bodies ...string) {
	t.Helper()
	for i, body := range bodies {
		require.NoError(t, db.Create(&note{ID: int64(i + 1), Body: body}).Error)
	}
}

func TestFanOutTagsAndOrders(t *testing.T) {
	reg := newTestRegistry(t)

	dbA, err := reg.Handle("ta")
	require.NoError(t, err)
	dbB, err := reg.Handle("tb")
	require.NoError(t, err)
	seedNotes(t, dbA, "a1", "a2")
	seedNotes(t, dbB, "b1")

	handles, err := reg.Handles([]string{"ta", "tb"})
	require.NoError(t, err)

	parts, err := FanOut(context.Background(), handles, func(ctx context.Context, db *gorm.DB) ([]note, int64, error) {
		var items []note
		if err := db.WithContext(ctx).Order("id").Find(&items).Error; err != nil {
			return nil, 0, err
		}
		var total int64
		if err := db.WithContext(ctx).Model(&note{}).Count(&total).Error; err != nil {
			return nil, 0, err
		}
		return items, total, nil
	})
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "ta", parts[0].Tenant)
	assert.Equal(t, int64(2), parts[0].Total)
	assert.Equal(t, "tb", parts[1].Tenant)
	assert.Len(t, parts[1].Items, 1)
}

func TestFanOutFailsWhole(t *testing.T) {
	reg := newTestRegistry(t)
	handles, err := reg.Handles([]string{"x", "y"})
	require.NoError(t, err)

	_, err = FanOut(context.Background(), handles, func(ctx context.Context, db *gorm.DB) ([]note, int64, error) {
		return nil, 0, fmt.Errorf("store unreachable")
	})
	require.Error(t, err)
}

func TestFindFirstStopsAtFirstHit(t *testing.T) {
	reg := newTestRegistry(t)

	dbA, err := reg.Handle("fa")
	require.NoError(t, err)
	dbB, err := reg.Handle("fb")
	require.NoError(t, err)
	seedNotes(t, dbB, "only-b")
	_ = dbA

	handles, err := reg.Handles([]string{"fa", "fb"})
	require.NoError(t, err)

	found, origin, err := FindFirst(context.Background(), handles, func(ctx context.Context, db *gorm.DB) (*note, error) {
		var n note
		err := db.WithContext(ctx).First(&n, "id = ?", 1).Error
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &n, nil
	})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "fb", origin)
	assert.Equal(t, "only-b", found.Body)
}

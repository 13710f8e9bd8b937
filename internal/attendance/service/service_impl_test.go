package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iosworks/claimdesk/internal/attendance/domain"
	"github.com/iosworks/claimdesk/internal/config"
	"github.com/iosworks/claimdesk/internal/events"
	"github.com/iosworks/claimdesk/internal/tenant"
	"github.com/iosworks/claimdesk/pkg/db/pagination"
)

func newService(t *testing.T) *Service {
	t.Helper()
	holder := config.NewStaticStorageHolder(config.StorageConfig{
		Driver:      "sqlite",
		DSNTemplate: fmt.Sprintf("file:%s_{tenant}?mode=memory&cache=shared", t.Name()),
	})
	registry := tenant.NewRegistry(holder, zap.NewNop(), []any{&domain.Attendance{}})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return New(registry, events.NewHub(), node, zap.NewNop())
}

func TestCreateAndGet(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "acme", map[string]any{
		"insured_name":  "Cargas Oeste",
		"policy_number": "AP-1234",
		"invoice_value": 1500.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Cargas Oeste", created.InsuredName)
	assert.Equal(t, 1500.5, created.InvoiceValue)
	assert.Empty(t, created.FollowUps)
	assert.Empty(t, created.Files)

	got, origin, err := svc.Get(ctx, []string{"other", "acme"}, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", origin)
	assert.Equal(t, created.ID, got.ID)
}

func TestGetInvisibleOutsideTenant(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "acme", map[string]any{"insured_name": "X"})
	require.NoError(t, err)

	_, _, err = svc.Get(ctx, []string{"other"}, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateIgnoresUnknownAndProtectedFields(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "acme", map[string]any{"insured_name": "Before"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "acme", created.ID, map[string]any{
		"insured_name": "After",
		"id":           999,
		"bogus_column": "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.InsuredName)
	assert.Equal(t, created.ID, updated.ID)
}

func TestUpdateWithUnchangedValues(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "acme", map[string]any{"insured_name": "Same", "policy_number": "AP-1"})
	require.NoError(t, err)

	// Writing back the stored values must succeed; drivers may report
	// zero affected rows for it, which is not a missing record.
	updated, err := svc.Update(ctx, "acme", created.ID, map[string]any{"insured_name": "Same", "policy_number": "AP-1"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	_, err = svc.Update(ctx, "acme", created.ID+1, map[string]any{"insured_name": "Same"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListNewestFirstWithPagination(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		_, err := svc.Create(ctx, "acme", map[string]any{"policy_number": fmt.Sprintf("AP-%02d", i)})
		require.NoError(t, err)
	}

	partials, total, err := svc.List(ctx, []string{"acme"}, pagination.Parse("2", "10"))
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	require.Len(t, partials, 1)
	assert.Len(t, partials[0].Items, 10)
	assert.EqualValues(t, 3, pagination.Pages(total, 10))
}

func TestFollowUpLifecycle(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "acme", map[string]any{"insured_name": "X"})
	require.NoError(t, err)

	first, err := svc.AddFollowUp(ctx, "acme", created.ID, domain.FollowUp{Actions: "contacted insured", User: "ana@example.com"})
	require.NoError(t, err)
	require.Len(t, first.FollowUps, 1)
	assert.False(t, first.FollowUps[0].At.IsZero())

	ret := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	second, err := svc.AddFollowUp(ctx, "acme", created.ID, domain.FollowUp{Actions: "requested documents", User: "ana@example.com", ReturnDate: &ret})
	require.NoError(t, err)
	require.Len(t, second.FollowUps, 2)
	assert.Equal(t, "contacted insured", second.FollowUps[0].Actions)
	assert.Equal(t, "requested documents", second.FollowUps[1].Actions)

	removed, err := svc.RemoveFollowUp(ctx, "acme", created.ID, 0)
	require.NoError(t, err)
	require.Len(t, removed.FollowUps, 1)
	assert.Equal(t, "requested documents", removed.FollowUps[0].Actions)

	_, err = svc.RemoveFollowUp(ctx, "acme", created.ID, 5)
	assert.ErrorIs(t, err, domain.ErrFollowUpIndex)
	_, err = svc.RemoveFollowUp(ctx, "acme", created.ID, -1)
	assert.ErrorIs(t, err, domain.ErrFollowUpIndex)
}

func TestAddFollowUpRequiresAction(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "acme", map[string]any{"insured_name": "X"})
	require.NoError(t, err)

	_, err = svc.AddFollowUp(ctx, "acme", created.ID, domain.FollowUp{Actions: "  "})
	assert.ErrorIs(t, err, domain.ErrActionRequired)
}

func TestDeleteIsNotIdempotent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "acme", map[string]any{"insured_name": "X"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "acme", created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "acme", created.ID), domain.ErrNotFound)
}

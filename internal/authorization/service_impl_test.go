package authorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) Service {
	t.Helper()
	svc, err := New(Params{Log: zap.NewNop()})
	require.NoError(t, err)
	return svc
}

func TestElevatedRolesCanWrite(t *testing.T) {
	svc := newService(t)

	assert.True(t, svc.Can("Admin", ObjectRecord, ActionWrite))
	assert.True(t, svc.Can("Manager", ObjectRecord, ActionWrite))
}

func TestReadOnlyRolesCannotWrite(t *testing.T) {
	svc := newService(t)

	assert.False(t, svc.Can("Operator", ObjectRecord, ActionWrite))
	assert.False(t, svc.Can("User", ObjectRecord, ActionWrite))
	assert.False(t, svc.Can("", ObjectRecord, ActionWrite))
}

func TestEveryoneCanReadRecords(t *testing.T) {
	svc := newService(t)

	assert.True(t, svc.Can("User", ObjectRecord, ActionRead))
	assert.True(t, svc.Can("Operator", ObjectRecord, ActionRead))
}

func TestAuditLogsRequireElevatedRole(t *testing.T) {
	svc := newService(t)

	assert.True(t, svc.Can("Admin", ObjectAuditLog, ActionRead))
	assert.True(t, svc.Can("Manager", ObjectAuditLog, ActionRead))
	assert.False(t, svc.Can("User", ObjectAuditLog, ActionRead))
}

package authorization

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:embed model.conf
var modelText string

const (
	ObjectRecord   = "record"
	ObjectAuditLog = "audit_log"
)

const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// writerRole groups the roles allowed to mutate business records.
const writerRole = "writer"

// Service answers role/object/action questions. The policy is static: the
// two elevated roles may write records and read audit logs, everyone may
// read records.
type Service interface {
	Can(role, object, action string) bool
}

type enforcerService struct {
	enforcer *casbin.Enforcer
	log      *zap.Logger
}

type Params struct {
	fx.In

	Log *zap.Logger
}

func New(p Params) (Service, error) {
	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authorization model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authorization enforcer: %w", err)
	}

	policies := [][]string{
		{writerRole, ObjectRecord, ActionWrite},
		{writerRole, ObjectRecord, ActionRead},
		{writerRole, ObjectAuditLog, ActionRead},
	}
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return nil, err
	}

	groupings := [][]string{
		{"Admin", writerRole},
		{"Manager", writerRole},
	}
	if _, err := enforcer.AddGroupingPolicies(groupings); err != nil {
		return nil, err
	}

	return &enforcerService{
		enforcer: enforcer,
		log:      p.Log.Named("authorization"),
	}, nil
}

func (s *enforcerService) Can(role, object, action string) bool {
	// Reads on business records are open to every authenticated role.
	if object == ObjectRecord && action == ActionRead {
		return true
	}
	ok, err := s.enforcer.Enforce(role, object, action)
	if err != nil {
		s.log.Warn("enforce failed", zap.String("role", role), zap.Error(err))
		return false
	}
	return ok
}

// Module wires the casbin-backed authorization service.
var Module = fx.Module("authorization",
	fx.Provide(New),
)

package tenant

import (
	"github.com/iosworks/claimdesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params collects registry dependencies. Models is the full set of
// per-tenant gorm models, supplied by the composition root so this package
// does not depend on every feature package.
type Params struct {
	fx.In

	Storage *config.StorageHolder
	Log     *zap.Logger
	Models  []any `name:"tenant_models"`
}

func provideRegistry(p Params) *Registry {
	return NewRegistry(p.Storage, p.Log, p.Models)
}

// Module wires the tenant registry.
var Module = fx.Module("tenant.registry",
	fx.Provide(provideRegistry),
)

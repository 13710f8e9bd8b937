package tenant

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/glebarez/sqlite"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Resolver maps a tenant identifier to the driver and DSN of its store.
// config.StorageHolder implements it.
type Resolver interface {
	Resolve(tenant string) (driver, dsn string, err error)
}

// DB pairs a tenant identifier with its store handle.
type DB struct {
	Tenant string
	Handle *gorm.DB
}

var tenantIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Registry hands out one isolated *gorm.DB per tenant identifier. Handles
// are created lazily on first use, memoized for the process lifetime, and
// shared by every request for the same tenant. There is no teardown.
type Registry struct {
	resolver Resolver
	log      *zap.Logger
	models   []any

	mu      sync.Mutex
	handles map[string]*handle
}

type handle struct {
	once sync.Once
	db   *gorm.DB
	err  error
}

// NewRegistry builds a registry. models are auto-migrated into each tenant
// store the first time its handle is constructed.
func NewRegistry(resolver Resolver, log *zap.Logger, models []any) *Registry {
	return &Registry{
		resolver: resolver,
		log:      log.Named("tenant.registry"),
		models:   models,
		handles:  make(map[string]*handle),
	}
}

// Handle returns the store handle for a tenant. Equal identifiers always
// yield the identical handle; construction runs at most once even under
// concurrent first access. A resolution or open failure is returned to the
// caller and retried on the next request for that tenant.
func (r *Registry) Handle(tenant string) (*gorm.DB, error) {
	r.mu.Lock()
	h, ok := r.handles[tenant]
	if !ok {
		h = &handle{}
		r.handles[tenant] = h
	}
	r.mu.Unlock()

	h.once.Do(func() {
		h.db, h.err = r.open(tenant)
		if h.err != nil {
			// Allow a later request to retry instead of pinning the failure.
			r.mu.Lock()
			delete(r.handles, tenant)
			r.mu.Unlock()
		}
	})
	return h.db, h.err
}

// Handles resolves a list of tenant identifiers into (tenant, handle)
// pairs, preserving order. The first failure aborts the whole resolution.
func (r *Registry) Handles(tenants []string) ([]DB, error) {
	out := make([]DB, 0, len(tenants))
	for _, id := range tenants {
		db, err := r.Handle(id)
		if err != nil {
			return nil, err
		}
		out = append(out, DB{Tenant: id, Handle: db})
	}
	return out, nil
}

func (r *Registry) open(tenant string) (*gorm.DB, error) {
	if !tenantIDPattern.MatchString(tenant) {
		return nil, fmt.Errorf("invalid tenant identifier %q", tenant)
	}

	driver, dsn, err := r.resolver.Resolve(tenant)
	if err != nil {
		return nil, err
	}

	dialector, err := dialect(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open tenant %q store: %w", tenant, err)
	}

	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		return nil, err
	}

	if len(r.models) > 0 {
		if err := db.AutoMigrate(r.models...); err != nil {
			return nil, fmt.Errorf("migrate tenant %q store: %w", tenant, err)
		}
	}

	r.log.Info("tenant store opened", zap.String("tenant", tenant), zap.String("driver", driver))
	return db, nil
}

func dialect(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// TenantPlaceholder is substituted with the tenant identifier when a DSN
// is resolved from the template.
const TenantPlaceholder = "{tenant}"

// StorageConfig describes where tenant stores live. Every tenant gets a
// database whose DSN is derived from DSNTemplate unless an explicit
// per-tenant override exists.
type StorageConfig struct {
	Driver      string            `mapstructure:"driver"`
	DSNTemplate string            `mapstructure:"dsn_template"`
	Tenants     map[string]string `mapstructure:"tenants"`
}

// DefaultStorageConfig keeps development working with zero setup: one
// sqlite file per tenant under ./data.
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Driver:      "sqlite",
		DSNTemplate: "file:data/{tenant}.db?_pragma=busy_timeout(5000)",
	}
}

// StorageHolder exposes the current storage config and hot-reloads it when
// the tenants.yml file changes. Handles already opened by the tenant
// registry are not reopened on reload; new tenants pick up the new config.
type StorageHolder struct {
	current atomic.Value // holds StorageConfig
}

// NewStorageHolder reads the storage section of the tenant config file and
// watches it for changes.
func NewStorageHolder(cfg Config, log *zap.Logger) (*StorageHolder, error) {
	v := viper.New()

	base := filepath.Base(cfg.TenantConfigPath)
	v.SetConfigName(strings.TrimSuffix(base, filepath.Ext(base)))
	v.SetConfigType("yml")
	dir := filepath.Dir(cfg.TenantConfigPath)
	if dir == "" {
		dir = "."
	}
	v.AddConfigPath(dir)
	v.AddConfigPath("/etc/claimdesk")

	v.SetEnvPrefix("CLAIMDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &StorageHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(DefaultStorageConfig())
		return holder, nil
	}

	storage, err := unmarshalStorage(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(storage)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalStorage(v)
		if err != nil {
			log.Warn("tenant storage config reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("tenant storage config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticStorageHolder wraps a fixed config, used by tests and tools.
func NewStaticStorageHolder(storage StorageConfig) *StorageHolder {
	holder := &StorageHolder{}
	holder.current.Store(storage)
	return holder
}

func unmarshalStorage(v *viper.Viper) (StorageConfig, error) {
	var storage StorageConfig
	if err := v.UnmarshalKey("storage", &storage); err != nil {
		return StorageConfig{}, err
	}
	if storage.Driver == "" {
		storage.Driver = "sqlite"
	}
	if storage.DSNTemplate == "" && len(storage.Tenants) == 0 {
		return StorageConfig{}, errors.New("tenant storage config needs a dsn_template or per-tenant entries")
	}
	return storage, nil
}

// Current returns the active storage config.
func (h *StorageHolder) Current() StorageConfig {
	return h.current.Load().(StorageConfig)
}

// Resolve maps a tenant identifier to its driver and DSN.
func (h *StorageHolder) Resolve(tenant string) (driver, dsn string, err error) {
	storage := h.Current()
	if override, ok := storage.Tenants[tenant]; ok {
		return storage.Driver, override, nil
	}
	if storage.DSNTemplate == "" {
		return "", "", fmt.Errorf("no storage configured for tenant %q", tenant)
	}
	return storage.Driver, strings.ReplaceAll(storage.DSNTemplate, TenantPlaceholder, tenant), nil
}

package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/iosworks/claimdesk/internal/events"
	"github.com/iosworks/claimdesk/internal/geocode"
	"github.com/iosworks/claimdesk/internal/records/domain"
	"github.com/iosworks/claimdesk/internal/records/repository"
	"github.com/iosworks/claimdesk/internal/tenant"
	"github.com/iosworks/claimdesk/pkg/db/pagination"
)

// Service wraps the generic repository with tenant resolution, geocoding
// enrichment and event publication for one registry entity.
type Service[T domain.Entity] struct {
	repo     *repository.Repository[T]
	registry *tenant.Registry
	geo      geocode.Geocoder
	hub      *events.Hub
	node     *snowflake.Node
	log      *zap.Logger
}

func New[T domain.Entity](registry *tenant.Registry, geo geocode.Geocoder, hub *events.Hub, node *snowflake.Node, log *zap.Logger) *Service[T] {
	repo := repository.New[T]()
	return &Service[T]{
		repo:     repo,
		registry: registry,
		geo:      geo,
		hub:      hub,
		node:     node,
		log:      log.Named("records." + repo.Descriptor().Plural),
	}
}

func (s *Service[T]) Descriptor() domain.Descriptor { return s.repo.Descriptor() }

// List aggregates one page per tenant store. Each partial carries its own
// total; Pages in the response is computed from the summed totals.
func (s *Service[T]) List(ctx context.Context, tenants []string, q pagination.Query, filter string) ([]tenant.Partial[T], int64, error) {
	handles, err := s.registry.Handles(tenants)
	if err != nil {
		return nil, 0, err
	}
	partials, err := tenant.FanOut(ctx, handles, func(ctx context.Context, db *gorm.DB) ([]T, int64, error) {
		return s.repo.List(ctx, db, q, filter)
	})
	if err != nil {
		return nil, 0, err
	}
	var total int64
	for _, p := range partials {
		total += p.Total
	}
	return partials, total, nil
}

// Get probes the tenant stores in order and returns the first record with
// the given identifier, tagged with the tenant it was found in.
func (s *Service[T]) Get(ctx context.Context, tenants []string, id snowflake.ID) (*T, string, error) {
	handles, err := s.registry.Handles(tenants)
	if err != nil {
		return nil, "", err
	}
	item, origin, err := tenant.FindFirst(ctx, handles, func(ctx context.Context, db *gorm.DB) (*T, error) {
		got, err := s.repo.Get(ctx, db, id)
		if err == domain.ErrNotFound {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &got, nil
	})
	if err != nil {
		return nil, "", err
	}
	if item == nil {
		return nil, "", domain.ErrNotFound
	}
	return item, origin, nil
}

func (s *Service[T]) Create(ctx context.Context, tenantID string, values map[string]any) (T, error) {
	var zero T
	db, err := s.registry.Handle(tenantID)
	if err != nil {
		return zero, err
	}

	s.enrichLocation(ctx, values)

	item, err := s.repo.Create(ctx, db, s.node.Generate(), values)
	if err != nil {
		return zero, err
	}
	s.publish("Created", tenantID, item)
	return item, nil
}

func (s *Service[T]) Update(ctx context.Context, tenantID string, id snowflake.ID, values map[string]any) (T, error) {
	var zero T
	db, err := s.registry.Handle(tenantID)
	if err != nil {
		return zero, err
	}

	// Only re-geocode when an address component actually changed.
	if hasAny(values, "address", "city", "state") {
		current, err := s.repo.Get(ctx, db, id)
		if err != nil {
			return zero, err
		}
		merged := mergeAddress(current, values)
		s.enrichLocation(ctx, merged)
		if loc, ok := merged["location"]; ok {
			values["location"] = loc
		}
	}

	item, err := s.repo.Update(ctx, db, id, values)
	if err != nil {
		return zero, err
	}
	s.publish("Updated", tenantID, item)
	return item, nil
}

func (s *Service[T]) Delete(ctx context.Context, tenantID string, id snowflake.ID) error {
	db, err := s.registry.Handle(tenantID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, db, id); err != nil {
		return err
	}
	s.publish("Deleted", tenantID, map[string]any{"id": id})
	return nil
}

func (s *Service[T]) publish(suffix, tenantID string, record any) {
	s.hub.Publish(events.Event{
		Name:   s.repo.Descriptor().Event + suffix,
		Tenant: tenantID,
		Record: record,
	})
}

// enrichLocation fills values["location"] with a GeoJSON point for the
// payload's address. Lookup failures are logged and otherwise ignored;
// the record is saved without coordinates.
func (s *Service[T]) enrichLocation(ctx context.Context, values map[string]any) {
	if !s.repo.Descriptor().HasAddress {
		return
	}
	query := addressQuery(values)
	if query == "" {
		return
	}
	point, err := s.geo.Lookup(ctx, query)
	if err != nil {
		s.log.Warn("geocode lookup failed", zap.String("address", query), zap.Error(err))
		return
	}
	if point == nil {
		return
	}
	raw, err := json.Marshal(domain.GeoPoint(point.Lat, point.Lng))
	if err != nil {
		return
	}
	values["location"] = raw
}

func addressQuery(values map[string]any) string {
	parts := make([]string, 0, 3)
	for _, key := range []string{"address", "city", "state"} {
		if v, ok := values[key].(string); ok && strings.TrimSpace(v) != "" {
			parts = append(parts, strings.TrimSpace(v))
		}
	}
	return strings.Join(parts, ", ")
}

func hasAny(values map[string]any, keys ...string) bool {
	for _, key := range keys {
		if _, ok := values[key]; ok {
			return true
		}
	}
	return false
}

// mergeAddress overlays the payload's address components on the stored
// record so a partial update still geocodes the full address.
func mergeAddress[T any](current T, values map[string]any) map[string]any {
	merged := map[string]any{}
	if raw, err := json.Marshal(current); err == nil {
		var m map[string]any
		if json.Unmarshal(raw, &m) == nil {
			for _, key := range []string{"address", "city", "state"} {
				if v, ok := m[key].(string); ok {
					merged[key] = v
				}
			}
		}
	}
	for _, key := range []string{"address", "city", "state"} {
		if v, ok := values[key]; ok {
			merged[key] = v
		}
	}
	return merged
}

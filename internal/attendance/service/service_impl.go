package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/iosworks/claimdesk/internal/attendance/domain"
	"github.com/iosworks/claimdesk/internal/attendance/repository"
	"github.com/iosworks/claimdesk/internal/events"
	"github.com/iosworks/claimdesk/internal/tenant"
	"github.com/iosworks/claimdesk/pkg/db/pagination"
)

// Service owns claim dossier lifecycle: CRUD, follow-up sequences and the
// attachment metadata list the attachment manager maintains.
type Service struct {
	repo     *repository.Repository
	registry *tenant.Registry
	hub      *events.Hub
	node     *snowflake.Node
	log      *zap.Logger
}

func New(registry *tenant.Registry, hub *events.Hub, node *snowflake.Node, log *zap.Logger) *Service {
	return &Service{
		repo:     repository.New(),
		registry: registry,
		hub:      hub,
		node:     node,
		log:      log.Named("attendance"),
	}
}

func (s *Service) List(ctx context.Context, tenants []string, q pagination.Query) ([]tenant.Partial[domain.Attendance], int64, error) {
	handles, err := s.registry.Handles(tenants)
	if err != nil {
		return nil, 0, err
	}
	partials, err := tenant.FanOut(ctx, handles, func(ctx context.Context, db *gorm.DB) ([]domain.Attendance, int64, error) {
		return s.repo.List(ctx, db, q)
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

func (s *Service) Get(ctx context.Context, tenants []string, id snowflake.ID) (*domain.Attendance, string, error) {
	handles, err := s.registry.Handles(tenants)
	if err != nil {
		return nil, "", err
	}
	item, origin, err := tenant.FindFirst(ctx, handles, func(ctx context.Context, db *gorm.DB) (*domain.Attendance, error) {
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

// GetIn fetches one attendance from a single named tenant store.
func (s *Service) GetIn(ctx context.Context, tenantID string, id snowflake.ID) (domain.Attendance, error) {
	db, err := s.registry.Handle(tenantID)
	if err != nil {
		return domain.Attendance{}, err
	}
	return s.repo.Get(ctx, db, id)
}

func (s *Service) Create(ctx context.Context, tenantID string, values map[string]any) (domain.Attendance, error) {
	db, err := s.registry.Handle(tenantID)
	if err != nil {
		return domain.Attendance{}, err
	}
	item, err := s.repo.Create(ctx, db, s.node.Generate(), values)
	if err != nil {
		return domain.Attendance{}, err
	}
	s.publish("attendanceCreated", tenantID, item)
	return item, nil
}

func (s *Service) Update(ctx context.Context, tenantID string, id snowflake.ID, values map[string]any) (domain.Attendance, error) {
	db, err := s.registry.Handle(tenantID)
	if err != nil {
		return domain.Attendance{}, err
	}
	item, err := s.repo.Update(ctx, db, id, values)
	if err != nil {
		return domain.Attendance{}, err
	}
	s.publish("attendanceUpdated", tenantID, item)
	return item, nil
}

func (s *Service) Delete(ctx context.Context, tenantID string, id snowflake.ID) error {
	db, err := s.registry.Handle(tenantID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, db, id); err != nil {
		return err
	}
	s.publish("attendanceDeleted", tenantID, map[string]any{"id": id})
	return nil
}

// AddFollowUp appends a progress note. The entry timestamp defaults to
// now when the caller leaves it unset.
func (s *Service) AddFollowUp(ctx context.Context, tenantID string, id snowflake.ID, entry domain.FollowUp) (domain.Attendance, error) {
	if strings.TrimSpace(entry.Actions) == "" {
		return domain.Attendance{}, domain.ErrActionRequired
	}
	db, err := s.registry.Handle(tenantID)
	if err != nil {
		return domain.Attendance{}, err
	}
	item, err := s.repo.Get(ctx, db, id)
	if err != nil {
		return domain.Attendance{}, err
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	followups := append([]domain.FollowUp(item.FollowUps), entry)
	if err := s.repo.SaveFollowUps(ctx, db, id, followups); err != nil {
		return domain.Attendance{}, err
	}
	item, err = s.repo.Get(ctx, db, id)
	if err != nil {
		return domain.Attendance{}, err
	}
	s.publish("attendanceUpdated", tenantID, item)
	return item, nil
}

// RemoveFollowUp deletes the entry at index, preserving the order of the
// remaining entries.
func (s *Service) RemoveFollowUp(ctx context.Context, tenantID string, id snowflake.ID, index int) (domain.Attendance, error) {
	db, err := s.registry.Handle(tenantID)
	if err != nil {
		return domain.Attendance{}, err
	}
	item, err := s.repo.Get(ctx, db, id)
	if err != nil {
		return domain.Attendance{}, err
	}
	if index < 0 || index >= len(item.FollowUps) {
		return domain.Attendance{}, domain.ErrFollowUpIndex
	}
	followups := append([]domain.FollowUp(nil), item.FollowUps...)
	followups = append(followups[:index], followups[index+1:]...)
	if err := s.repo.SaveFollowUps(ctx, db, id, followups); err != nil {
		return domain.Attendance{}, err
	}
	item, err = s.repo.Get(ctx, db, id)
	if err != nil {
		return domain.Attendance{}, err
	}
	s.publish("attendanceUpdated", tenantID, item)
	return item, nil
}

// SaveFiles replaces the attachment metadata list and returns the updated
// attendance. Used only by the attachment manager.
func (s *Service) SaveFiles(ctx context.Context, tenantID string, id snowflake.ID, files []domain.FileMeta) (domain.Attendance, error) {
	db, err := s.registry.Handle(tenantID)
	if err != nil {
		return domain.Attendance{}, err
	}
	if err := s.repo.SaveFiles(ctx, db, id, files); err != nil {
		return domain.Attendance{}, err
	}
	return s.repo.Get(ctx, db, id)
}

func (s *Service) publish(name, tenantID string, record any) {
	s.hub.Publish(events.Event{Name: name, Tenant: tenantID, Record: record})
}

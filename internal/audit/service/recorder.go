package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/iosworks/claimdesk/internal/audit/domain"
	"github.com/iosworks/claimdesk/internal/tenant"
	"github.com/iosworks/claimdesk/pkg/db/pagination"
)

const (
	queueSize    = 256
	writeTimeout = 5 * time.Second
)

// Record is one audit entry queued for a tenant store.
type Record struct {
	Tenant string
	Entry  domain.Entry
}

// Recorder persists audit entries off the request path. Submission never
// blocks; when the queue is full the entry is dropped and the drop is
// logged. A failed write is logged and never surfaced to the caller.
type Recorder struct {
	registry *tenant.Registry
	node     *snowflake.Node
	log      *zap.Logger

	queue chan Record
	done  chan struct{}
}

func NewRecorder(registry *tenant.Registry, node *snowflake.Node, log *zap.Logger) *Recorder {
	return &Recorder{
		registry: registry,
		node:     node,
		log:      log.Named("audit"),
		queue:    make(chan Record, queueSize),
		done:     make(chan struct{}),
	}
}

// Start launches the single writer goroutine.
func (r *Recorder) Start() {
	go r.run()
}

// Stop drains the queue and waits for the writer to finish, or gives up
// when ctx expires.
func (r *Recorder) Stop(ctx context.Context) error {
	close(r.queue)
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit enqueues one entry. Identity and timestamp are filled in when
// the caller leaves them unset.
func (r *Recorder) Submit(rec Record) {
	if rec.Entry.ID == 0 {
		rec.Entry.ID = r.node.Generate()
	}
	if rec.Entry.Date.IsZero() {
		rec.Entry.Date = time.Now().UTC()
	}
	select {
	case r.queue <- rec:
	default:
		r.log.Warn("audit queue full, entry dropped",
			zap.String("tenant", rec.Tenant), zap.String("route", rec.Entry.Route))
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		r.persist(rec)
	}
}

func (r *Recorder) persist(rec Record) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	db, err := r.registry.Handle(rec.Tenant)
	if err == nil {
		err = db.WithContext(ctx).Create(&rec.Entry).Error
	}
	if err != nil {
		r.log.Error("audit entry write failed",
			zap.String("tenant", rec.Tenant), zap.String("route", rec.Entry.Route), zap.Error(err))
	}
}

// List aggregates audit entries across tenant stores, newest first per
// tenant.
func (r *Recorder) List(ctx context.Context, tenants []string, q pagination.Query) ([]tenant.Partial[domain.Entry], int64, error) {
	handles, err := r.registry.Handles(tenants)
	if err != nil {
		return nil, 0, err
	}
	partials, err := tenant.FanOut(ctx, handles, func(ctx context.Context, db *gorm.DB) ([]domain.Entry, int64, error) {
		stmt := db.WithContext(ctx).Model(&domain.Entry{})
		var total int64
		if err := stmt.Count(&total).Error; err != nil {
			return nil, 0, err
		}
		var items []domain.Entry
		if err := q.Apply(stmt.Order("date desc")).Find(&items).Error; err != nil {
			return nil, 0, err
		}
		return items, total, nil
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

// Get probes the tenant stores in order for one entry.
func (r *Recorder) Get(ctx context.Context, tenants []string, id snowflake.ID) (*domain.Entry, string, error) {
	handles, err := r.registry.Handles(tenants)
	if err != nil {
		return nil, "", err
	}
	item, origin, err := tenant.FindFirst(ctx, handles, func(ctx context.Context, db *gorm.DB) (*domain.Entry, error) {
		var entry domain.Entry
		err := db.WithContext(ctx).Where("id = ?", id).First(&entry).Error
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &entry, nil
	})
	if err != nil {
		return nil, "", err
	}
	if item == nil {
		return nil, "", domain.ErrNotFound
	}
	return item, origin, nil
}

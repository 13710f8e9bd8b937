package tenant

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Partial is one tenant's slice of an aggregated read.
type Partial[T any] struct {
	Tenant string `json:"tenant"`
	Items  []T    `json:"-"`
	Total  int64  `json:"total"`
}

// FanOut runs the same query against every tenant store concurrently and
// joins on completion of all of them. Results keep the tenant iteration
// order; there is no re-sort across tenants. Any sub-query failure fails
// the whole aggregated call. No per-tenant timeout is applied beyond what
// ctx itself carries.
func FanOut[T any](ctx context.Context, handles []DB, query func(ctx context.Context, db *gorm.DB) ([]T, int64, error)) ([]Partial[T], error) {
	results := make([]Partial[T], len(handles))
	errs := make([]error, len(handles))

	var wg sync.WaitGroup
	for i, h := range handles {
		wg.Add(1)
		go func(i int, h DB) {
			defer wg.Done()
			items, total, err := query(ctx, h.Handle)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = Partial[T]{Tenant: h.Tenant, Items: items, Total: total}
		}(i, h)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// FindFirst probes tenant stores sequentially and returns the first hit,
// tagged with its origin tenant. Identifiers are only unique per tenant,
// so the probe order (the validated header order) decides ties.
func FindFirst[T any](ctx context.Context, handles []DB, lookup func(ctx context.Context, db *gorm.DB) (*T, error)) (*T, string, error) {
	for _, h := range handles {
		item, err := lookup(ctx, h.Handle)
		if err != nil {
			return nil, "", err
		}
		if item != nil {
			return item, h.Tenant, nil
		}
	}
	return nil, "", nil
}

package geocode

import (
	"context"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geocoder resolves a free-text address into a coordinate pair. A nil
// result with a nil error means the address could not be resolved; callers
// treat any failure as "no coordinates" and save the record anyway.
type Geocoder interface {
	Lookup(ctx context.Context, address string) (*Point, error)
}

// Disabled is the no-op geocoder used when enrichment is turned off.
type Disabled struct{}

func (Disabled) Lookup(ctx context.Context, address string) (*Point, error) {
	return nil, nil
}

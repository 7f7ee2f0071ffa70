package domain

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// MaxLocations caps how many basins one query may touch, enforced before
// any partition scan.
const MaxLocations = 20

// Supported date bounds for prediction queries.
var (
	MinQueryDate = Date(1980, time.January, 1)
	MaxQueryDate = Date(2100, time.January, 1)
)

// Contiguous-US bounding box for point queries.
const (
	MinLatitude  = 24.0
	MaxLatitude  = 50.0
	MinLongitude = -125.0
	MaxLongitude = -66.0
)

// PredictionQuery is one validated read request. Locations may be given
// directly, as coordinate pairs to resolve spatially, or both; the resolved
// sets are unioned. Empty Aggregations means raw ensemble output.
type PredictionQuery struct {
	Locations    []string
	Latitude     []float64
	Longitude    []float64
	DateStart    time.Time
	DateEnd      time.Time
	Version      string
	Units        Units
	Aggregations []Metric
}

// HasPoints reports whether the query carries coordinates to resolve.
func (q PredictionQuery) HasPoints() bool {
	return len(q.Latitude) > 0 || len(q.Longitude) > 0
}

// Validate checks every request invariant that needs no I/O. Field problems
// are accumulated so the caller sees all of them at once; the joined error
// still satisfies errors.Is(err, ErrInvalidRequest). A location count above
// MaxLocations is reported as ErrTooManyLocations instead.
func (q PredictionQuery) Validate() error {
	if len(q.Locations) > MaxLocations {
		return fmt.Errorf("%w: %d locations requested, limit is %d",
			ErrTooManyLocations, len(q.Locations), MaxLocations)
	}

	var fields *multierror.Error

	if len(q.Locations) == 0 && !q.HasPoints() {
		fields = multierror.Append(fields,
			fmt.Errorf("either locations or latitude and longitude must be given"))
	}
	if q.HasPoints() {
		if len(q.Latitude) != len(q.Longitude) {
			fields = multierror.Append(fields,
				fmt.Errorf("latitude has %d entries, longitude has %d", len(q.Latitude), len(q.Longitude)))
		}
		for _, lat := range q.Latitude {
			if lat < MinLatitude || lat > MaxLatitude {
				fields = multierror.Append(fields,
					fmt.Errorf("latitude %v outside [%v, %v]", lat, MinLatitude, MaxLatitude))
			}
		}
		for _, lon := range q.Longitude {
			if lon < MinLongitude || lon > MaxLongitude {
				fields = multierror.Append(fields,
					fmt.Errorf("longitude %v outside [%v, %v]", lon, MinLongitude, MaxLongitude))
			}
		}
	}

	if q.DateStart.Before(MinQueryDate) || q.DateStart.After(MaxQueryDate) {
		fields = multierror.Append(fields,
			fmt.Errorf("date_start %s outside supported range", q.DateStart.Format(time.DateOnly)))
	}
	if q.DateEnd.Before(MinQueryDate) || q.DateEnd.After(MaxQueryDate) {
		fields = multierror.Append(fields,
			fmt.Errorf("date_end %s outside supported range", q.DateEnd.Format(time.DateOnly)))
	}
	if q.DateEnd.Before(q.DateStart) {
		fields = multierror.Append(fields, fmt.Errorf("date_end precedes date_start"))
	}

	if err := fields.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}
	return nil
}

// Package service orchestrates prediction queries: spatial resolution of
// query points, partition selection across the historical and current-year
// stores, ensemble aggregation, and unit conversion.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
	"github.com/headwaters-hydrology/streamflow-api/internal/observability"
	"github.com/headwaters-hydrology/streamflow-api/internal/parquetstore"
)

// PartitionScanner reads observations from one hive-partitioned store.
type PartitionScanner interface {
	Scan(ctx context.Context, f parquetstore.Filter) ([]domain.Observation, error)
	SnapshotAge() time.Duration
}

// CurrentScanner additionally exposes the newest partition date; only the
// date-partitioned store supports it.
type CurrentScanner interface {
	PartitionScanner
	MaxDate() (time.Time, error)
}

// BasinCatalog resolves query points to basins and supplies drainage areas.
type BasinCatalog interface {
	Len() int
	All() []domain.Basin
	ResolvePoints(lats, lons []float64) ([]string, error)
	Areas(locations []string) map[string]float64
}

// Pinger checks a backing store's connectivity. Optional.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Service answers prediction queries against the two partitioned stores.
type Service struct {
	historical     PartitionScanner
	current        CurrentScanner
	catalog        BasinCatalog
	db             Pinger
	defaultVersion string
	maxLocations   int
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// New creates a Service. db may be nil when the write path is disabled.
func New(historical PartitionScanner, current CurrentScanner, catalog BasinCatalog, db Pinger, defaultVersion string, maxLocations int, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		historical:     historical,
		current:        current,
		catalog:        catalog,
		db:             db,
		defaultVersion: defaultVersion,
		maxLocations:   maxLocations,
		logger:         logger,
		metrics:        metrics,
	}
}

// DefaultVersion returns the model version used when a query names none.
func (s *Service) DefaultVersion() string { return s.defaultVersion }

// Basins lists the catalogued basins, optionally filtered to the given ids.
func (s *Service) Basins(locations []string) []domain.Basin {
	all := s.catalog.All()
	if len(locations) == 0 {
		return all
	}
	want := make(map[string]struct{}, len(locations))
	for _, loc := range locations {
		want[loc] = struct{}{}
	}
	var out []domain.Basin
	for _, b := range all {
		if _, ok := want[b.Location]; ok {
			out = append(out, b)
		}
	}
	return out
}

// CheckReadiness returns nil when the basin catalog is loaded, both
// partition views are serving, and the database (when configured) pings.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if s.catalog.Len() == 0 {
		return errors.New("basin catalog is empty")
	}
	s.metrics.SnapshotAge.WithLabelValues("location").Set(s.historical.SnapshotAge().Seconds())
	s.metrics.SnapshotAge.WithLabelValues("date").Set(s.current.SnapshotAge().Seconds())
	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			return fmt.Errorf("database not reachable: %w", err)
		}
	}
	return nil
}

// resolveLocations unions the explicitly requested basins with the basins
// containing the query points, deduplicated and sorted.
func (s *Service) resolveLocations(q domain.PredictionQuery) ([]string, error) {
	locations := q.Locations
	if q.HasPoints() {
		matched, err := s.catalog.ResolvePoints(q.Latitude, q.Longitude)
		if err != nil {
			s.metrics.PointLookups.WithLabelValues("miss").Inc()
			return nil, err
		}
		s.metrics.PointLookups.WithLabelValues("hit").Inc()
		locations = append(append([]string(nil), locations...), matched...)
	}

	seen := make(map[string]struct{}, len(locations))
	uniq := locations[:0:0]
	for _, loc := range locations {
		if _, ok := seen[loc]; ok {
			continue
		}
		seen[loc] = struct{}{}
		uniq = append(uniq, loc)
	}
	sort.Strings(uniq)

	if len(uniq) > s.maxLocations {
		return nil, fmt.Errorf("%w: %d basins requested, limit is %d", domain.ErrTooManyLocations, len(uniq), s.maxLocations)
	}
	return uniq, nil
}

// finish applies unit conversion, ordering, and rounding to a merged table.
func (s *Service) finish(t domain.Table, units domain.Units, locations []string) (domain.Table, error) {
	if len(t.Rows) == 0 {
		return domain.Table{}, fmt.Errorf("%w: no predictions matched the query", domain.ErrNotFound)
	}
	if units == domain.UnitsCFS {
		t = domain.ConvertToCFS(t, s.catalog.Areas(locations))
		if len(t.Rows) == 0 {
			return domain.Table{}, fmt.Errorf("%w: no catalogued basins matched the query", domain.ErrNotFound)
		}
	}
	t = domain.RoundValues(domain.SortRows(t))
	s.metrics.RowsReturned.Observe(float64(len(t.Rows)))
	return t, nil
}

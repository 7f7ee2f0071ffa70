package service

import (
	"context"
	"time"

	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
	"github.com/headwaters-hydrology/streamflow-api/internal/parquetstore"
)

// Latest returns predictions for the newest date present in the current
// store, across every basin, along with that date. The date comes from
// partition keys alone so an empty store reports ErrNotFound without
// touching any file.
func (s *Service) Latest(ctx context.Context, metrics []domain.Metric, units domain.Units, version string) (domain.Table, time.Time, error) {
	if version == "" {
		version = s.defaultVersion
	}
	if units == "" {
		units = domain.UnitsCFS
	}
	if _, err := domain.ParseUnits(string(units)); err != nil {
		return domain.Table{}, time.Time{}, err
	}

	date, err := s.current.MaxDate()
	if err != nil {
		return domain.Table{}, time.Time{}, err
	}

	obs, err := s.current.Scan(ctx, parquetstore.Filter{
		DateStart: date,
		DateEnd:   date,
		Version:   version,
	})
	if err != nil {
		return domain.Table{}, time.Time{}, err
	}

	t, err := s.finish(domain.Aggregate(obs, metrics), units, locationsOf(obs))
	if err != nil {
		return domain.Table{}, time.Time{}, err
	}
	return t, date, nil
}

func locationsOf(obs []domain.Observation) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, o := range obs {
		if _, ok := seen[o.Location]; !ok {
			seen[o.Location] = struct{}{}
			out = append(out, o.Location)
		}
	}
	return out
}

package service

import (
	"context"
	"time"

	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
	"github.com/headwaters-hydrology/streamflow-api/internal/parquetstore"
)

// normalize fills a query's zero values with the service defaults.
func (s *Service) normalize(q domain.PredictionQuery) domain.PredictionQuery {
	if q.Version == "" {
		q.Version = s.defaultVersion
	}
	if q.Units == "" {
		q.Units = domain.UnitsCFS
	}
	if q.DateStart.IsZero() {
		q.DateStart = domain.MinQueryDate
	}
	if q.DateEnd.IsZero() {
		q.DateEnd = domain.MaxQueryDate
	}
	return q
}

// Query validates and answers a prediction query. The historical store holds
// completed years and the current store holds this year's runs, so the date
// range is split at the January 1 boundary and each store is scanned only
// for its side. Both sides are aggregated independently; the groups cannot
// overlap because the split is on the date column.
func (s *Service) Query(ctx context.Context, q domain.PredictionQuery) (domain.Table, error) {
	q = s.normalize(q)
	if err := q.Validate(); err != nil {
		return domain.Table{}, err
	}

	locations, err := s.resolveLocations(q)
	if err != nil {
		return domain.Table{}, err
	}

	yearStart := domain.Date(domain.CurrentYear(), time.January, 1)
	merged := domain.Table{Aggregated: len(q.Aggregations) > 0}

	if q.DateStart.Before(yearStart) {
		end := q.DateEnd
		if histEnd := yearStart.AddDate(0, 0, -1); end.After(histEnd) {
			end = histEnd
		}
		obs, err := s.historical.Scan(ctx, parquetstore.Filter{
			Locations: locations,
			DateStart: q.DateStart,
			DateEnd:   end,
			Version:   q.Version,
		})
		if err != nil {
			return domain.Table{}, err
		}
		merged = merged.Concat(domain.Aggregate(obs, q.Aggregations))
	}

	if !q.DateEnd.Before(yearStart) {
		start := q.DateStart
		if start.Before(yearStart) {
			start = yearStart
		}
		obs, err := s.current.Scan(ctx, parquetstore.Filter{
			Locations: locations,
			DateStart: start,
			DateEnd:   q.DateEnd,
			Version:   q.Version,
		})
		if err != nil {
			return domain.Table{}, err
		}
		merged = merged.Concat(domain.Aggregate(obs, q.Aggregations))
	}

	return s.finish(merged, q.Units, locations)
}

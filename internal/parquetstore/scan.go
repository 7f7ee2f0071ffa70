package parquetstore

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

// Filter restricts a scan. Zero fields mean unbounded: an empty location
// set matches every basin, a zero date leaves that side of the range open,
// an empty version matches every version.
type Filter struct {
	Locations []string
	DateStart time.Time
	DateEnd   time.Time
	Version   string
}

func (f Filter) locationSet() map[string]struct{} {
	if len(f.Locations) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(f.Locations))
	for _, loc := range f.Locations {
		set[loc] = struct{}{}
	}
	return set
}

func (f Filter) dateInRange(d time.Time) bool {
	if !f.DateStart.IsZero() && d.Before(f.DateStart) {
		return false
	}
	if !f.DateEnd.IsZero() && d.After(f.DateEnd) {
		return false
	}
	return true
}

// Scan reads every observation matching the filter. Partition-key
// predicates prune directories before any file is opened; the remaining
// column predicates are applied per row. Any file error fails the whole
// scan with no partial results, and every broken file is reported at once.
func (v *View) Scan(ctx context.Context, f Filter) ([]domain.Observation, error) {
	locations := f.locationSet()

	var obs []domain.Observation
	var errs *multierror.Error
	for _, part := range v.current().parts {
		if !v.matchKey(part.key, f, locations) {
			continue
		}
		for _, file := range part.files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rows, err := v.readFile(file, part.key, f, locations)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			obs = append(obs, rows...)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return obs, nil
}

// matchKey applies the filter to the partition-key columns.
func (v *View) matchKey(key partitionKey, f Filter, locations map[string]struct{}) bool {
	if f.Version != "" && key.Version != f.Version {
		return false
	}
	if v.scheme == ByDate {
		return f.dateInRange(key.Date)
	}
	if locations == nil {
		return true
	}
	_, ok := locations[key.Location]
	return ok
}

func (v *View) readFile(path string, key partitionKey, f Filter, locations map[string]struct{}) ([]domain.Observation, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fr.Close() //nolint:errcheck // read-only file

	if v.scheme == ByDate {
		pr, err := reader.NewParquetReader(fr, new(dateRow), 1)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		defer pr.ReadStop()

		rows := make([]dateRow, pr.GetNumRows())
		if err := pr.Read(&rows); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		obs := make([]domain.Observation, 0, len(rows))
		for _, r := range rows {
			if locations != nil {
				if _, ok := locations[r.Location]; !ok {
					continue
				}
			}
			obs = append(obs, domain.Observation{
				Location: r.Location,
				Date:     key.Date,
				Version:  key.Version,
				ModelNo:  r.ModelNo,
				Value:    r.Value,
			})
		}
		return obs, nil
	}

	pr, err := reader.NewParquetReader(fr, new(locationRow), 1)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer pr.ReadStop()

	rows := make([]locationRow, pr.GetNumRows())
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	obs := make([]domain.Observation, 0, len(rows))
	for _, r := range rows {
		date := decodeDate(r.Date)
		if !f.dateInRange(date) {
			continue
		}
		obs = append(obs, domain.Observation{
			Location: key.Location,
			Date:     date,
			Version:  key.Version,
			ModelNo:  r.ModelNo,
			Value:    r.Value,
		})
	}
	return obs, nil
}

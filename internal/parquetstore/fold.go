package parquetstore

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
)

// foldRow is the flat schema of one model-output file: one ensemble
// member's daily predictions for every basin.
type foldRow struct {
	BasinID string  `parquet:"name=basin_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Time    int32   `parquet:"name=time, type=INT32, convertedtype=DATE"`
	MMDay   float64 `parquet:"name=mm_d, type=DOUBLE"`
}

// FoldFromFilename extracts the fold number from a model-output filename.
// The training jobs name files like historical-k-fold-03-output.parquet,
// with the fold as the second-to-last dash-separated field.
func FoldFromFilename(name string) (int32, error) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	parts := strings.Split(base, "-")
	if len(parts) < 2 {
		return 0, fmt.Errorf("no fold number in filename %q", name)
	}
	fold, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return 0, fmt.Errorf("no fold number in filename %q", name)
	}
	return int32(fold), nil
}

// ReadFoldFile reads one flat model-output file into observations stamped
// with the given version and fold.
func ReadFoldFile(path, version string, fold int32) ([]domain.Observation, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fr.Close() //nolint:errcheck // read-only file

	pr, err := reader.NewParquetReader(fr, new(foldRow), 1)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer pr.ReadStop()

	rows := make([]foldRow, pr.GetNumRows())
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	obs := make([]domain.Observation, len(rows))
	for i, r := range rows {
		obs[i] = domain.Observation{
			Location: r.BasinID,
			Date:     decodeDate(r.Time),
			Version:  version,
			ModelNo:  fold,
			Value:    r.MMDay,
		}
	}
	return obs, nil
}

// WriteFoldFile writes observations as one flat model-output file. Used by
// fixtures and by reprocessing jobs that need to round-trip fold files.
func WriteFoldFile(path string, obs []domain.Observation) error {
	rows := make([]any, len(obs))
	for i, o := range obs {
		rows[i] = foldRow{
			BasinID: o.Location,
			Time:    encodeDate(o.Date),
			MMDay:   o.Value,
		}
	}
	return writeRows(path, new(foldRow), rows)
}

// FilterYear keeps only observations whose date falls in the given year.
func FilterYear(obs []domain.Observation, year int) []domain.Observation {
	start := domain.Date(year, time.January, 1)
	end := domain.Date(year+1, time.January, 1)
	var out []domain.Observation
	for _, o := range obs {
		if !o.Date.Before(start) && o.Date.Before(end) {
			out = append(out, o)
		}
	}
	return out
}

// Package parquetstore exposes lazy, periodically refreshed views over the
// two hive-partitioned parquet stores that hold streamflow predictions.
//
// Layouts:
//
//	<root>/location=<huc10>/version=<v>/fold=NN-*.parquet   (ByLocation)
//	<root>/date=YYYY-MM-DD/version=<v>/fold=NN-*.parquet    (ByDate)
//
// Partition key columns live in the directory path, not in the files:
// ByLocation files hold (date, value, model_no), ByDate files hold
// (location, value, model_no). Filters on partition keys prune whole
// directories before any file is opened.
package parquetstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
)

// Partitioning names the physical layout of one store.
type Partitioning int

const (
	// ByLocation is the historical store, bulk-loaded per basin.
	ByLocation Partitioning = iota
	// ByDate is the current-year store, appended per model run.
	ByDate
)

func (p Partitioning) String() string {
	if p == ByDate {
		return "date"
	}
	return "location"
}

// locationRow is the file schema of ByLocation partitions.
type locationRow struct {
	Date    int32   `parquet:"name=date, type=INT32, convertedtype=DATE"`
	Value   float64 `parquet:"name=value, type=DOUBLE"`
	ModelNo int32   `parquet:"name=model_no, type=INT32"`
}

// dateRow is the file schema of ByDate partitions.
type dateRow struct {
	Location string  `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8"`
	Value    float64 `parquet:"name=value, type=DOUBLE"`
	ModelNo  int32   `parquet:"name=model_no, type=INT32"`
}

const secondsPerDay = 86400

// encodeDate converts a UTC civil date to parquet DATE days-since-epoch.
func encodeDate(d time.Time) int32 {
	return int32(d.Unix() / secondsPerDay)
}

// decodeDate inverts encodeDate.
func decodeDate(days int32) time.Time {
	return time.Unix(int64(days)*secondsPerDay, 0).UTC()
}

const dateLayout = time.DateOnly

type partitionKey struct {
	Location string    // ByLocation only
	Date     time.Time // ByDate only
	Version  string
}

// dirName encodes the first-level partition directory for a key.
func (k partitionKey) dirName(scheme Partitioning) string {
	if scheme == ByDate {
		return "date=" + k.Date.Format(dateLayout)
	}
	return "location=" + k.Location
}

// parseKeyDir decodes a first-level partition directory name.
func parseKeyDir(scheme Partitioning, name string) (partitionKey, error) {
	field, value, ok := strings.Cut(name, "=")
	if !ok {
		return partitionKey{}, fmt.Errorf("not a hive partition directory: %q", name)
	}
	switch {
	case scheme == ByLocation && field == "location":
		return partitionKey{Location: value}, nil
	case scheme == ByDate && field == "date":
		d, err := time.ParseInLocation(dateLayout, value, time.UTC)
		if err != nil {
			return partitionKey{}, fmt.Errorf("partition directory %q: %w", name, err)
		}
		return partitionKey{Date: d}, nil
	}
	return partitionKey{}, fmt.Errorf("unexpected partition field %q for %s layout", field, scheme)
}

// parseVersionDir decodes a second-level version directory name.
func parseVersionDir(name string) (string, error) {
	field, value, ok := strings.Cut(name, "=")
	if !ok || field != "version" {
		return "", fmt.Errorf("not a version partition directory: %q", name)
	}
	return value, nil
}

// WritePartitions writes observations into the hive layout under root, one
// file per partition named fold=NN-0.parquet. All observations must belong
// to the given fold; existing fold files are overwritten, other folds are
// left alone (the ingestion jobs write one fold at a time).
func WritePartitions(root string, scheme Partitioning, fold int32, obs []domain.Observation) error {
	groups := make(map[partitionKey][]domain.Observation)
	for _, o := range obs {
		k := partitionKey{Version: o.Version}
		if scheme == ByDate {
			k.Date = o.Date
		} else {
			k.Location = o.Location
		}
		groups[k] = append(groups[k], o)
	}

	for k, rows := range groups {
		if err := writePartitionFile(root, scheme, k, fold, rows); err != nil {
			return err
		}
	}
	return nil
}

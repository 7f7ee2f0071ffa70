package parquetstore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
	"github.com/jonboulle/clockwork"
)

// snapshot is an immutable listing of the partitions present on disk.
type snapshot struct {
	parts   []partition
	builtAt time.Time
}

type partition struct {
	key   partitionKey
	files []string
}

// View is one logical table over a hive-partitioned root. The partition
// listing is cached and rebuilt when older than the refresh interval, so
// newly written partitions become visible without a restart. The snapshot
// swap is a single atomic store; concurrent readers see either the pre- or
// post-refresh listing, both valid, and concurrent rebuilds only waste one
// directory walk.
type View struct {
	root    string
	scheme  Partitioning
	refresh time.Duration
	clock   clockwork.Clock
	logger  *slog.Logger
	snap    atomic.Pointer[snapshot]
}

// NewView builds the initial snapshot of root. The root must exist, but may
// hold no partitions yet.
func NewView(root string, scheme Partitioning, refresh time.Duration, clock clockwork.Clock, logger *slog.Logger) (*View, error) {
	v := &View{
		root:    root,
		scheme:  scheme,
		refresh: refresh,
		clock:   clock,
		logger:  logger,
	}
	snap, err := v.buildSnapshot()
	if err != nil {
		return nil, err
	}
	v.snap.Store(snap)
	return v, nil
}

// Root returns the view's directory root.
func (v *View) Root() string { return v.root }

// current returns the cached snapshot, rebuilding it first when stale. A
// failed rebuild keeps serving the previous snapshot.
func (v *View) current() *snapshot {
	snap := v.snap.Load()
	if v.clock.Since(snap.builtAt) < v.refresh {
		return snap
	}
	fresh, err := v.buildSnapshot()
	if err != nil {
		v.logger.Warn("partition snapshot refresh failed, serving stale listing",
			"layout", v.scheme.String(), "root", v.root, "error", err)
		return snap
	}
	v.snap.Store(fresh)
	v.logger.Debug("partition snapshot refreshed",
		"layout", v.scheme.String(), "partitions", len(fresh.parts))
	return fresh
}

// SnapshotAge reports how old the served partition listing is.
func (v *View) SnapshotAge() time.Duration {
	return v.clock.Since(v.snap.Load().builtAt)
}

// MaxDate returns the greatest partition date present in a ByDate view,
// from directory keys alone. domain.ErrNotFound when the view is empty.
func (v *View) MaxDate() (time.Time, error) {
	if v.scheme != ByDate {
		return time.Time{}, fmt.Errorf("max date is only defined for the date-partitioned view")
	}
	var max time.Time
	for _, p := range v.current().parts {
		if p.key.Date.After(max) {
			max = p.key.Date
		}
	}
	if max.IsZero() {
		return time.Time{}, fmt.Errorf("%w: no partitions present", domain.ErrNotFound)
	}
	return max, nil
}

func (v *View) buildSnapshot() (*snapshot, error) {
	keyDirs, err := os.ReadDir(v.root)
	if err != nil {
		return nil, fmt.Errorf("list partition root %s: %w", v.root, err)
	}

	var parts []partition
	var errs *multierror.Error
	for _, keyDir := range keyDirs {
		if !keyDir.IsDir() {
			continue
		}
		key, err := parseKeyDir(v.scheme, keyDir.Name())
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		versionDirs, err := os.ReadDir(filepath.Join(v.root, keyDir.Name()))
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		for _, versionDir := range versionDirs {
			if !versionDir.IsDir() {
				continue
			}
			version, err := parseVersionDir(versionDir.Name())
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			dir := filepath.Join(v.root, keyDir.Name(), versionDir.Name())
			entries, err := os.ReadDir(dir)
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			var files []string
			for _, e := range entries {
				if !e.IsDir() && strings.HasSuffix(e.Name(), ".parquet") {
					files = append(files, filepath.Join(dir, e.Name()))
				}
			}
			if len(files) == 0 {
				continue
			}
			sort.Strings(files)
			k := key
			k.Version = version
			parts = append(parts, partition{key: k, files: files})
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &snapshot{parts: parts, builtAt: v.clock.Now()}, nil
}

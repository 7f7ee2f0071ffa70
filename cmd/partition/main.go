// Command partition converts flat model-output parquet files into the hive
// layouts the API serves from. Each input file holds one ensemble member's
// predictions (basin_id, time, mm_d) with the fold number in the filename.
//
// Usage:
//
//	go run ./cmd/partition -in /data/folds/historical-k-fold -out /data/flow
//	go run ./cmd/partition -in /data/folds/current-k-fold -out /data/current -by date
//
// With -by date the output is partitioned by date and restricted to the
// current year, matching what the operational runs append.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
	"github.com/headwaters-hydrology/streamflow-api/internal/parquetstore"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	inDir := flag.String("in", "", "directory of flat model-output parquet files")
	outDir := flag.String("out", "", "hive partition root to write")
	version := flag.String("version", "vPUB2025", "model version to stamp on every record")
	by := flag.String("by", "location", "partition layout: location or date")
	flag.Parse()

	if *inDir == "" || *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -in, -out")
	}

	var scheme parquetstore.Partitioning
	switch *by {
	case "location":
		scheme = parquetstore.ByLocation
	case "date":
		scheme = parquetstore.ByDate
	default:
		return fmt.Errorf("unknown -by value %q, want location or date", *by)
	}

	entries, err := os.ReadDir(*inDir)
	if err != nil {
		return err
	}

	var processed int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".parquet") {
			continue
		}
		fold, err := parquetstore.FoldFromFilename(e.Name())
		if err != nil {
			log.Printf("skipping %s: %v", e.Name(), err)
			continue
		}

		obs, err := parquetstore.ReadFoldFile(filepath.Join(*inDir, e.Name()), *version, fold)
		if err != nil {
			return fmt.Errorf("processing %s: %w", e.Name(), err)
		}
		if scheme == parquetstore.ByDate {
			obs = parquetstore.FilterYear(obs, domain.CurrentYear())
		}
		if len(obs) == 0 {
			log.Printf("%s: no records after filtering, skipping", e.Name())
			continue
		}

		if err := parquetstore.WritePartitions(*outDir, scheme, fold, obs); err != nil {
			return fmt.Errorf("writing partitions for %s: %w", e.Name(), err)
		}
		log.Printf("%s: fold %02d, %d records", e.Name(), fold, len(obs))
		processed++
	}

	if processed == 0 {
		return fmt.Errorf("no model-output files found in %s", *inDir)
	}
	log.Printf("done: %d files partitioned into %s", processed, *outDir)
	return nil
}

package parquetstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

func writePartitionFile(root string, scheme Partitioning, key partitionKey, fold int32, obs []domain.Observation) error {
	dir := filepath.Join(root, key.dirName(scheme), "version="+key.Version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create partition directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("fold=%02d-0.parquet", fold))

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	var pw *writer.ParquetWriter
	if scheme == ByDate {
		pw, err = writer.NewParquetWriter(fw, new(dateRow), 1)
	} else {
		pw, err = writer.NewParquetWriter(fw, new(locationRow), 1)
	}
	if err != nil {
		fw.Close() //nolint:errcheck // already failing
		return fmt.Errorf("create parquet writer for %s: %w", path, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, o := range obs {
		var row any
		if scheme == ByDate {
			row = dateRow{Location: o.Location, Value: o.Value, ModelNo: o.ModelNo}
		} else {
			row = locationRow{Date: encodeDate(o.Date), Value: o.Value, ModelNo: o.ModelNo}
		}
		if err := pw.Write(row); err != nil {
			fw.Close() //nolint:errcheck // already failing
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close() //nolint:errcheck // already failing
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return fw.Close()
}

// writeRows writes rows of one schema to a single parquet file.
func writeRows(path string, schema any, rows []any) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	pw, err := writer.NewParquetWriter(fw, schema, 1)
	if err != nil {
		fw.Close() //nolint:errcheck // already failing
		return fmt.Errorf("create parquet writer for %s: %w", path, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			fw.Close() //nolint:errcheck // already failing
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close() //nolint:errcheck // already failing
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return fw.Close()
}

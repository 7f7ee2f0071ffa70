// Command post uploads a flat model-output parquet file to the ingest
// endpoint in chunks.
//
// Usage:
//
//	API_KEY=... go run ./cmd/post -data historical-k-fold-00-output.parquet \
//	  -api-url http://127.0.0.1:8080/predictions
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
	"github.com/headwaters-hydrology/streamflow-api/internal/parquetstore"
)

type record struct {
	Location string  `json:"location"`
	Date     string  `json:"date"`
	Version  string  `json:"version"`
	ModelNo  int32   `json:"model_no"`
	Value    float64 `json:"value"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	godotenv.Load() //nolint:errcheck // .env is optional

	data := flag.String("data", "", "path to the parquet data file")
	apiURL := flag.String("api-url", "http://127.0.0.1:8080/predictions", "ingest endpoint URL")
	version := flag.String("version", "vPUB2025", "model version to stamp on every record")
	chunkSize := flag.Int("chunk-size", 1000, "records per request")
	flag.Parse()

	if *data == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -data")
	}
	apiKey := os.Getenv("API_KEY")
	if apiKey == "" {
		return fmt.Errorf("API_KEY must be set")
	}

	fold, err := parquetstore.FoldFromFilename(*data)
	if err != nil {
		fold = 0
		log.Printf("no fold number in filename, using 0")
	}
	obs, err := parquetstore.ReadFoldFile(*data, *version, fold)
	if err != nil {
		return err
	}
	log.Printf("loaded %d records from %s", len(obs), *data)

	client := &http.Client{Timeout: 60 * time.Second}
	for start := 0; start < len(obs); start += *chunkSize {
		end := min(start+*chunkSize, len(obs))
		if err := postChunk(client, *apiURL, apiKey, obs[start:end]); err != nil {
			return fmt.Errorf("chunk at offset %d: %w", start, err)
		}
		log.Printf("posted %d/%d", end, len(obs))
	}
	return nil
}

func postChunk(client *http.Client, url, apiKey string, obs []domain.Observation) error {
	records := make([]record, len(obs))
	for i, o := range obs {
		records[i] = record{
			Location: o.Location,
			Date:     o.Date.Format(time.DateOnly),
			Version:  o.Version,
			ModelNo:  o.ModelNo,
			Value:    o.Value,
		}
	}
	body, err := json.Marshal(records)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
)

// maxIngestBody caps one POST body at 32 MiB.
const maxIngestBody = 32 << 20

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	s.serveQuery(w, r, "predictions", true)
}

func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	s.serveQuery(w, r, "raw", false)
}

// serveQuery answers both prediction read endpoints; they differ only in
// whether aggregation applies.
func (s *Server) serveQuery(w http.ResponseWriter, r *http.Request, endpoint string, aggregated bool) {
	start := time.Now()

	q, err := parsePredictionQuery(r)
	if err != nil {
		s.fail(w, endpoint, err)
		return
	}
	if aggregated {
		if len(q.Aggregations) == 0 {
			q.Aggregations = []domain.Metric{domain.MetricMedian}
		}
	} else {
		q.Aggregations = nil
	}

	table, err := s.svc.Query(r.Context(), q)
	if err != nil {
		s.fail(w, endpoint, err)
		return
	}

	s.metrics.QueriesServed.WithLabelValues(endpoint, "success").Inc()
	s.metrics.QueryDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if wantCSV(r) {
		writeCSV(w, table, basinsFilename(table))
		return
	}
	writeJSON(w, http.StatusOK, tableResponse(table))
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q, err := parsePredictionQuery(r)
	if err != nil {
		s.fail(w, "latest", err)
		return
	}
	metrics := q.Aggregations
	if len(metrics) == 0 {
		metrics = []domain.Metric{domain.MetricMedian}
	}

	table, date, err := s.svc.Latest(r.Context(), metrics, q.Units, q.Version)
	if err != nil {
		s.fail(w, "latest", err)
		return
	}

	s.metrics.QueriesServed.WithLabelValues("latest", "success").Inc()
	s.metrics.QueryDuration.WithLabelValues("latest").Observe(time.Since(start).Seconds())

	if wantCSV(r) {
		writeCSV(w, table, latestFilename(date))
		return
	}
	writeJSON(w, http.StatusOK, tableResponse(table))
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	basins := s.svc.Basins(queryValues(r, "location"))
	if len(basins) == 0 {
		writeError(w, fmt.Errorf("%w: no matching basins", domain.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, basins)
}

// ingestRecord is the wire form of one posted prediction.
type ingestRecord struct {
	Location string  `json:"location"`
	Date     string  `json:"date"`
	Version  string  `json:"version"`
	ModelNo  int32   `json:"model_no"`
	Value    float64 `json:"value"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-API-KEY") != s.ingest.APIKey || s.ingest.APIKey == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid X-API-KEY header."})
		return
	}
	if s.ingest.Store == nil {
		writeError(w, fmt.Errorf("%w: ingest is not configured", domain.ErrUpstreamUnavailable))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		writeError(w, fmt.Errorf("%w: read body: %v", domain.ErrInvalidRequest, err))
		return
	}

	records, err := decodeRecords(body)
	if err != nil {
		writeError(w, err)
		return
	}
	obs, err := toObservations(records)
	if err != nil {
		writeError(w, err)
		return
	}

	written, err := s.ingest.Store.UpsertBatch(r.Context(), obs)
	if err != nil {
		s.metrics.IngestErrors.Inc()
		writeError(w, err)
		return
	}
	s.metrics.RecordsIngested.Add(float64(written))

	if s.ingest.Publisher != nil {
		if err := s.ingest.Publisher.PublishBatch(r.Context(), obs); err != nil {
			// The database write already succeeded; mirroring is best effort.
			s.logger.Warn("kafka mirror failed", "records", len(obs), "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"written": written})
}

// decodeRecords accepts either a single JSON object or an array of them.
func decodeRecords(body []byte) ([]ingestRecord, error) {
	var records []ingestRecord
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}
	var one ingestRecord
	if err := json.Unmarshal(body, &one); err != nil {
		return nil, fmt.Errorf("%w: body is neither a prediction record nor an array of them", domain.ErrInvalidRequest)
	}
	return []ingestRecord{one}, nil
}

func toObservations(records []ingestRecord) ([]domain.Observation, error) {
	var errs *multierror.Error
	obs := make([]domain.Observation, 0, len(records))
	for i, rec := range records {
		if rec.Location == "" {
			errs = multierror.Append(errs, fmt.Errorf("record %d: location is required", i))
		}
		if rec.Version == "" {
			errs = multierror.Append(errs, fmt.Errorf("record %d: version is required", i))
		}
		date, err := time.ParseInLocation(time.DateOnly, rec.Date, time.UTC)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("record %d: date %q is not a YYYY-MM-DD date", i, rec.Date))
		}
		obs = append(obs, domain.Observation{
			Location: rec.Location,
			Date:     date,
			Version:  rec.Version,
			ModelNo:  rec.ModelNo,
			Value:    rec.Value,
		})
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err)
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: no records in body", domain.ErrInvalidRequest)
	}
	return obs, nil
}

func (s *Server) fail(w http.ResponseWriter, endpoint string, err error) {
	s.metrics.QueriesServed.WithLabelValues(endpoint, "error").Inc()
	writeError(w, err)
}

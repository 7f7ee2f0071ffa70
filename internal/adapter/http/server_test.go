package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/headwaters-hydrology/streamflow-api/internal/adapter/http"
	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
	"github.com/headwaters-hydrology/streamflow-api/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "test-key"

type stubService struct {
	query      domain.PredictionQuery
	table      domain.Table
	latestDate time.Time
	basins     []domain.Basin
	err        error
	readyErr   error
}

func (s *stubService) Query(_ context.Context, q domain.PredictionQuery) (domain.Table, error) {
	s.query = q
	if s.err != nil {
		return domain.Table{}, s.err
	}
	return s.table, nil
}

func (s *stubService) Latest(_ context.Context, metrics []domain.Metric, units domain.Units, version string) (domain.Table, time.Time, error) {
	s.query = domain.PredictionQuery{Aggregations: metrics, Units: units, Version: version}
	if s.err != nil {
		return domain.Table{}, time.Time{}, s.err
	}
	return s.table, s.latestDate, nil
}

func (s *stubService) Basins(locations []string) []domain.Basin {
	if len(locations) == 0 {
		return s.basins
	}
	var out []domain.Basin
	for _, b := range s.basins {
		for _, loc := range locations {
			if b.Location == loc {
				out = append(out, b)
			}
		}
	}
	return out
}

func (s *stubService) CheckReadiness(_ context.Context) error { return s.readyErr }

type stubStore struct {
	obs []domain.Observation
	err error
}

func (s *stubStore) UpsertBatch(_ context.Context, obs []domain.Observation) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.obs = append(s.obs, obs...)
	return int64(len(obs)), nil
}

type stubPublisher struct {
	published []domain.Observation
	err       error
}

func (p *stubPublisher) PublishBatch(_ context.Context, obs []domain.Observation) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, obs...)
	return nil
}

func aggregatedTable() domain.Table {
	return domain.Table{Aggregated: true, Rows: []domain.Row{
		{Location: "1002000205", Date: domain.Date(2024, time.June, 1), Version: "vPUB2025", Metric: domain.MetricMedian, Value: 12.5},
		{Location: "1701020101", Date: domain.Date(2024, time.June, 1), Version: "vPUB2025", Metric: domain.MetricMedian, Value: 7.25},
	}}
}

func rawTable() domain.Table {
	return domain.Table{Rows: []domain.Row{
		{Location: "1701020101", Date: domain.Date(2024, time.June, 1), Version: "vPUB2025", ModelNo: 0, Value: 1.5},
		{Location: "1701020101", Date: domain.Date(2024, time.June, 1), Version: "vPUB2025", ModelNo: 1, Value: 2.5},
	}}
}

func newTestServer(svc *stubService, store httpadapter.IngestStore, pub httpadapter.Publisher) *httpadapter.Server {
	return httpadapter.NewServer(":0", svc,
		httpadapter.IngestOptions{Store: store, Publisher: pub, APIKey: testAPIKey},
		slog.Default(), observability.NewMetricsForTesting())
}

func do(srv *httpadapter.Server, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := do(newTestServer(&stubService{}, nil, nil), http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		rec := do(newTestServer(&stubService{}, nil, nil), http.MethodGet, "/readyz", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready", func(t *testing.T) {
		svc := &stubService{readyErr: fmt.Errorf("catalog still loading")}
		rec := do(newTestServer(svc, nil, nil), http.MethodGet, "/readyz", "", nil)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "catalog still loading", body["error"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newTestServer(&stubService{}, nil, nil), http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestGetPredictions(t *testing.T) {
	svc := &stubService{table: aggregatedTable()}
	rec := do(newTestServer(svc, nil, nil), http.MethodGet,
		"/predictions?locations=1701020101,1002000205&date_start=2024-06-01&date_end=2024-06-01", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	// Median is injected when no aggregations are given.
	assert.Equal(t, []domain.Metric{domain.MetricMedian}, svc.query.Aggregations)
	// Comma-separated and repeated parameters parse identically.
	assert.Equal(t, []string{"1701020101", "1002000205"}, svc.query.Locations)

	var body struct {
		Location []string  `json:"location"`
		Date     []string  `json:"date"`
		Version  []string  `json:"version"`
		Metric   []string  `json:"metric"`
		Value    []float64 `json:"value"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"1002000205", "1701020101"}, body.Location)
	assert.Equal(t, []string{"2024-06-01", "2024-06-01"}, body.Date)
	assert.Equal(t, []string{"median", "median"}, body.Metric)
	assert.Equal(t, []float64{12.5, 7.25}, body.Value)
	assert.NotContains(t, rec.Body.String(), "model_no")
}

func TestGetPredictions_RepeatedParams(t *testing.T) {
	svc := &stubService{table: aggregatedTable()}
	rec := do(newTestServer(svc, nil, nil), http.MethodGet,
		"/predictions?locations=1701020101&locations=1002000205", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"1701020101", "1002000205"}, svc.query.Locations)
}

func TestGetPredictionsRaw(t *testing.T) {
	svc := &stubService{table: rawTable()}
	rec := do(newTestServer(svc, nil, nil), http.MethodGet,
		"/predictions/raw?locations=1701020101&aggregations=median", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	// Raw output never aggregates, even when the parameter is passed.
	assert.Empty(t, svc.query.Aggregations)

	var body struct {
		ModelNo []int32 `json:"model_no"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []int32{0, 1}, body.ModelNo)
	assert.NotContains(t, rec.Body.String(), "metric")
}

func TestGetPredictions_CSV(t *testing.T) {
	svc := &stubService{table: aggregatedTable()}
	rec := do(newTestServer(svc, nil, nil), http.MethodGet,
		"/predictions?locations=1701020101,1002000205&as_csv=true", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t,
		"attachment; filename=basins_1002000205_1701020101_predictions.csv",
		rec.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "location,version,metric,date,value", lines[0])
	assert.Equal(t, "1002000205,vPUB2025,median,2024-06-01,12.5", lines[1])
}

func TestGetPredictions_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid request", domain.ErrInvalidRequest, http.StatusUnprocessableEntity},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"too many locations", domain.ErrTooManyLocations, http.StatusRequestEntityTooLarge},
		{"upstream unavailable", domain.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubService{err: fmt.Errorf("wrapped: %w", tc.err)}
			rec := do(newTestServer(svc, nil, nil), http.MethodGet, "/predictions?locations=x", "", nil)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestGetPredictions_MalformedParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"bad date", "/predictions?locations=x&date_start=06/01/2024"},
		{"bad latitude", "/predictions?latitude=north&longitude=-113.9"},
		{"bad units", "/predictions?locations=x&units=liters"},
		{"bad aggregation", "/predictions?locations=x&aggregations=mode"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(newTestServer(&stubService{}, nil, nil), http.MethodGet, tc.target, "", nil)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestGetLatest(t *testing.T) {
	svc := &stubService{table: aggregatedTable(), latestDate: domain.Date(2025, time.June, 14)}
	rec := do(newTestServer(svc, nil, nil), http.MethodGet, "/predictions/latest?as_csv=true", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"attachment; filename=latest_flow_20250614_predictions.csv",
		rec.Header().Get("Content-Disposition"))
	assert.Equal(t, []domain.Metric{domain.MetricMedian}, svc.query.Aggregations)
}

func TestGetLocations(t *testing.T) {
	svc := &stubService{basins: []domain.Basin{
		{Location: "1002000205", Group: "10", Name: "Big Hole Headwaters"},
		{Location: "1701020101", Group: "17", Name: "Upper Clark Fork"},
	}}
	srv := newTestServer(svc, nil, nil)

	t.Run("all basins", func(t *testing.T) {
		rec := do(srv, http.MethodGet, "/locations", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body []domain.Basin
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body, 2)
	})

	t.Run("filtered", func(t *testing.T) {
		rec := do(srv, http.MethodGet, "/locations?location=1701020101", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var body []domain.Basin
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body, 1)
		assert.Equal(t, "Upper Clark Fork", body[0].Name)
	})

	t.Run("unknown basin", func(t *testing.T) {
		rec := do(srv, http.MethodGet, "/locations?location=nope", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPostPredictions(t *testing.T) {
	auth := map[string]string{"X-API-KEY": testAPIKey}
	record := `{"location":"1701020101","date":"2025-06-14","version":"vPUB2025","model_no":3,"value":1.5}`

	t.Run("single record", func(t *testing.T) {
		store := &stubStore{}
		pub := &stubPublisher{}
		rec := do(newTestServer(&stubService{}, store, pub), http.MethodPost, "/predictions", record, auth)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"written":1}`, rec.Body.String())
		require.Len(t, store.obs, 1)
		assert.Equal(t, "1701020101", store.obs[0].Location)
		assert.True(t, store.obs[0].Date.Equal(domain.Date(2025, time.June, 14)))
		assert.Len(t, pub.published, 1)
	})

	t.Run("array of records", func(t *testing.T) {
		store := &stubStore{}
		rec := do(newTestServer(&stubService{}, store, nil), http.MethodPost, "/predictions",
			"["+record+","+record+"]", auth)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"written":2}`, rec.Body.String())
	})

	t.Run("missing api key", func(t *testing.T) {
		rec := do(newTestServer(&stubService{}, &stubStore{}, nil), http.MethodPost, "/predictions", record, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong api key", func(t *testing.T) {
		rec := do(newTestServer(&stubService{}, &stubStore{}, nil), http.MethodPost, "/predictions", record,
			map[string]string{"X-API-KEY": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ingest disabled", func(t *testing.T) {
		rec := do(newTestServer(&stubService{}, nil, nil), http.MethodPost, "/predictions", record, auth)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("malformed record", func(t *testing.T) {
		rec := do(newTestServer(&stubService{}, &stubStore{}, nil), http.MethodPost, "/predictions",
			`{"location":"","date":"yesterday","version":"","model_no":0,"value":1}`, auth)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("store conflict", func(t *testing.T) {
		store := &stubStore{err: fmt.Errorf("%w: duplicate", domain.ErrConflict)}
		rec := do(newTestServer(&stubService{}, store, nil), http.MethodPost, "/predictions", record, auth)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("kafka failure does not fail the write", func(t *testing.T) {
		store := &stubStore{}
		pub := &stubPublisher{err: fmt.Errorf("broker down")}
		rec := do(newTestServer(&stubService{}, store, pub), http.MethodPost, "/predictions", record, auth)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}

func TestRequestIDHeader(t *testing.T) {
	rec := do(newTestServer(&stubService{}, nil, nil), http.MethodGet, "/healthz", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

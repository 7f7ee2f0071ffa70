package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}

// writeError maps the domain error taxonomy to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrTooManyLocations):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

// predictionsResponse is the parallel-array JSON shape of a result table.
// Metric is present only for aggregated results, ModelNo only for raw ones.
type predictionsResponse struct {
	Location []string  `json:"location"`
	Date     []string  `json:"date"`
	Version  []string  `json:"version"`
	ModelNo  []int32   `json:"model_no,omitempty"`
	Metric   []string  `json:"metric,omitempty"`
	Value    []float64 `json:"value"`
}

func tableResponse(t domain.Table) predictionsResponse {
	resp := predictionsResponse{
		Location: make([]string, len(t.Rows)),
		Date:     make([]string, len(t.Rows)),
		Version:  make([]string, len(t.Rows)),
		Value:    make([]float64, len(t.Rows)),
	}
	if t.Aggregated {
		resp.Metric = make([]string, len(t.Rows))
	} else {
		resp.ModelNo = make([]int32, len(t.Rows))
	}
	for i, r := range t.Rows {
		resp.Location[i] = r.Location
		resp.Date[i] = r.Date.Format(time.DateOnly)
		resp.Version[i] = r.Version
		resp.Value[i] = r.Value
		if t.Aggregated {
			resp.Metric[i] = string(r.Metric)
		} else {
			resp.ModelNo[i] = r.ModelNo
		}
	}
	return resp
}

// writeCSV streams the table as an attachment with the given filename.
func writeCSV(w http.ResponseWriter, t domain.Table, filename string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	if t.Aggregated {
		cw.Write([]string{"location", "version", "metric", "date", "value"}) //nolint:errcheck
		for _, r := range t.Rows {
			cw.Write([]string{ //nolint:errcheck
				r.Location,
				r.Version,
				string(r.Metric),
				r.Date.Format(time.DateOnly),
				formatValue(r.Value),
			})
		}
	} else {
		cw.Write([]string{"location", "model_no", "version", "date", "value"}) //nolint:errcheck
		for _, r := range t.Rows {
			cw.Write([]string{ //nolint:errcheck
				r.Location,
				strconv.Itoa(int(r.ModelNo)),
				r.Version,
				r.Date.Format(time.DateOnly),
				formatValue(r.Value),
			})
		}
	}
	cw.Flush()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// basinsFilename names the CSV attachment after the distinct basins in the
// result, matching what API consumers already script against.
func basinsFilename(t domain.Table) string {
	seen := make(map[string]struct{})
	var ids []string
	for _, r := range t.Rows {
		if _, ok := seen[r.Location]; !ok {
			seen[r.Location] = struct{}{}
			ids = append(ids, r.Location)
		}
	}
	sort.Strings(ids)
	return fmt.Sprintf("basins_%s_predictions.csv", strings.Join(ids, "_"))
}

func latestFilename(date time.Time) string {
	return fmt.Sprintf("latest_flow_%s_predictions.csv", date.Format("20060102"))
}

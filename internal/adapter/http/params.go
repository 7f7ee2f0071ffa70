package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/headwaters-hydrology/streamflow-api/internal/domain"
)

// queryValues gathers every value of a repeatable parameter, additionally
// splitting each value on commas so ?locations=a,b and ?locations=a&locations=b
// parse the same.
func queryValues(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func parseFloats(r *http.Request, key string) ([]float64, error) {
	values := queryValues(r, key)
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s %q is not a number", key, v)
		}
		out[i] = f
	}
	return out, nil
}

func parseDate(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q is not a YYYY-MM-DD date", key, v)
	}
	return d, nil
}

func parseMetrics(r *http.Request) ([]domain.Metric, error) {
	values := queryValues(r, "aggregations")
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]domain.Metric, len(values))
	for i, v := range values {
		m, err := domain.ParseMetric(v)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// parsePredictionQuery decodes the shared read-query parameters. Parse
// problems are accumulated and reported together as one invalid request.
func parsePredictionQuery(r *http.Request) (domain.PredictionQuery, error) {
	var errs *multierror.Error

	lat, err := parseFloats(r, "latitude")
	errs = multierror.Append(errs, err)
	lon, err := parseFloats(r, "longitude")
	errs = multierror.Append(errs, err)
	dateStart, err := parseDate(r, "date_start")
	errs = multierror.Append(errs, err)
	dateEnd, err := parseDate(r, "date_end")
	errs = multierror.Append(errs, err)

	var units domain.Units
	if v := r.URL.Query().Get("units"); v != "" {
		units, err = domain.ParseUnits(v)
		errs = multierror.Append(errs, err)
	}
	metrics, err := parseMetrics(r)
	errs = multierror.Append(errs, err)

	if err := errs.ErrorOrNil(); err != nil {
		return domain.PredictionQuery{}, fmt.Errorf("%w: %s", domain.ErrInvalidRequest, err)
	}

	return domain.PredictionQuery{
		Locations:    queryValues(r, "locations"),
		Latitude:     lat,
		Longitude:    lon,
		DateStart:    dateStart,
		DateEnd:      dateEnd,
		Version:      r.URL.Query().Get("version"),
		Units:        units,
		Aggregations: metrics,
	}, nil
}

func wantCSV(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("as_csv"), "true")
}

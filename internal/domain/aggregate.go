package domain

import (
	"math"
	"sort"
)

// Metric names one ensemble summary statistic. The vocabulary is closed:
// the domain is fixed and small, so metrics map to reduction functions
// rather than an open registry.
type Metric string

const (
	MetricMin    Metric = "min"
	MetricMax    Metric = "max"
	MetricMean   Metric = "mean"
	MetricMedian Metric = "median"
	MetricStdDev Metric = "stddev"
	MetricIQR    Metric = "iqr"
)

// ParseMetric validates an aggregation query parameter.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricMin, MetricMax, MetricMean, MetricMedian, MetricStdDev, MetricIQR:
		return Metric(s), nil
	}
	return "", invalidf("unknown aggregation %q", s)
}

type groupKey struct {
	location string
	version  string
	date     int64 // unix seconds of the UTC civil date
}

// Aggregate reduces an ensemble of observations into one row per
// (location, version, date) group and requested metric, reshaped to long
// form. With no metrics requested it passes the ensemble through unchanged,
// keeping one row per fold with its model_no. Output order is unspecified;
// callers sort the final merged table.
func Aggregate(obs []Observation, metrics []Metric) Table {
	if len(metrics) == 0 {
		rows := make([]Row, len(obs))
		for i, o := range obs {
			rows[i] = Row{
				Location: o.Location,
				Date:     o.Date,
				Version:  o.Version,
				ModelNo:  o.ModelNo,
				Value:    o.Value,
			}
		}
		return Table{Rows: rows}
	}

	groups := make(map[groupKey][]float64)
	dates := make(map[groupKey]Observation)
	for _, o := range obs {
		k := groupKey{location: o.Location, version: o.Version, date: o.Date.Unix()}
		groups[k] = append(groups[k], o.Value)
		dates[k] = o
	}

	rows := make([]Row, 0, len(groups)*len(metrics))
	for k, vals := range groups {
		sort.Float64s(vals)
		for _, m := range metrics {
			rows = append(rows, Row{
				Location: k.location,
				Date:     dates[k].Date,
				Version:  k.version,
				Metric:   m,
				Value:    reduce(m, vals),
			})
		}
	}
	return Table{Aggregated: true, Rows: rows}
}

// reduce computes one statistic over a non-empty ascending-sorted slice.
func reduce(m Metric, sorted []float64) float64 {
	switch m {
	case MetricMin:
		return sorted[0]
	case MetricMax:
		return sorted[len(sorted)-1]
	case MetricMean:
		return mean(sorted)
	case MetricMedian:
		return quantile(sorted, 0.5)
	case MetricStdDev:
		return sampleStdDev(sorted)
	case MetricIQR:
		return quantile(sorted, 0.75) - quantile(sorted, 0.25)
	}
	return 0
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// sampleStdDev returns the n-1 standard deviation. A single-member ensemble
// has no spread and reports 0.
func sampleStdDev(vals []float64) float64 {
	n := len(vals)
	if n < 2 {
		return 0
	}
	mu := mean(vals)
	var ss float64
	for _, v := range vals {
		d := v - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// quantile interpolates linearly between ranks of an ascending-sorted slice.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if lo+1 >= n {
		return sorted[n-1]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// SortRows orders a result table for output: raw mode by
// (location, model_no, version, date), aggregated mode by
// (location, version, metric, date).
func SortRows(t Table) Table {
	rows := t.Rows
	if t.Aggregated {
		sort.Slice(rows, func(i, j int) bool {
			a, b := rows[i], rows[j]
			if a.Location != b.Location {
				return a.Location < b.Location
			}
			if a.Version != b.Version {
				return a.Version < b.Version
			}
			if a.Metric != b.Metric {
				return a.Metric < b.Metric
			}
			return a.Date.Before(b.Date)
		})
	} else {
		sort.Slice(rows, func(i, j int) bool {
			a, b := rows[i], rows[j]
			if a.Location != b.Location {
				return a.Location < b.Location
			}
			if a.ModelNo != b.ModelNo {
				return a.ModelNo < b.ModelNo
			}
			if a.Version != b.Version {
				return a.Version < b.Version
			}
			return a.Date.Before(b.Date)
		})
	}
	return t
}

// RoundValues rounds every value to 4 decimal places.
func RoundValues(t Table) Table {
	for i := range t.Rows {
		t.Rows[i].Value = math.Round(t.Rows[i].Value*1e4) / 1e4
	}
	return t
}

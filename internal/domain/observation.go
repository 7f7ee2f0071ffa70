package domain

import "time"

// Units selects the measurement system of returned values.
type Units string

const (
	UnitsMM  Units = "mm"  // depth rate, millimeters per day
	UnitsCFS Units = "cfs" // volumetric flow, cubic feet per second
)

// ParseUnits validates a units query parameter.
func ParseUnits(s string) (Units, error) {
	switch Units(s) {
	case UnitsMM, UnitsCFS:
		return Units(s), nil
	}
	return "", invalidf("unknown units %q (want mm or cfs)", s)
}

// Observation is the atomic prediction record: one model fold's value for
// one basin on one day. Immutable once written; identified by
// (location, date, version, model_no).
type Observation struct {
	Location string    `json:"location"`
	Date     time.Time `json:"date"`
	Version  string    `json:"version"`
	ModelNo  int32     `json:"model_no"`
	Value    float64   `json:"value"`
}

// Row is one entry of a query result. Raw rows carry ModelNo; aggregated
// rows carry Metric. The unused field is left at its zero value.
type Row struct {
	Location string
	Date     time.Time
	Version  string
	ModelNo  int32
	Metric   Metric
	Value    float64
}

// Table is a realized query result.
type Table struct {
	Aggregated bool
	Rows       []Row
}

// Concat appends another table's rows. Both sides must share the same mode;
// the caller guarantees this by aggregating each partition scan identically
// before merging.
func (t Table) Concat(other Table) Table {
	t.Rows = append(t.Rows, other.Rows...)
	return t
}

// Basin is static reference data for one HUC10 drainage basin.
type Basin struct {
	Location string  `json:"location"`
	Group    string  `json:"group"`
	Name     string  `json:"name"`
	AreaM2   float64 `json:"area_m2"`
}

// Date returns a UTC civil date, the canonical form for Observation.Date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

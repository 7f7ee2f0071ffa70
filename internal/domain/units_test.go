package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCFSFromDepth(t *testing.T) {
	// 1 mm/day over 1 km²: 1 / 86400 / 304.8 * (1e6 * 10.7639).
	got := CFSFromDepth(1.0, 1e6)
	assert.InDelta(t, 0.40873, got, 1e-4)
}

func TestUnitRoundTrip(t *testing.T) {
	const areaM2 = 52_345_678.0
	for _, mm := range []float64{0.001, 0.5, 3.25, 42.0} {
		back := DepthFromCFS(CFSFromDepth(mm, areaM2), areaM2)
		assert.InDelta(t, mm, back, 1e-6)
	}
}

func TestConvertToCFS(t *testing.T) {
	date := Date(2024, time.June, 1)
	table := Table{Aggregated: true, Rows: []Row{
		{Location: "A", Date: date, Metric: MetricMedian, Value: 2.0},
		{Location: "B", Date: date, Metric: MetricMedian, Value: 3.0},
	}}
	areas := map[string]float64{"A": 1e6, "B": 2e6}

	out := ConvertToCFS(table, areas)

	require.Len(t, out.Rows, 2)
	assert.InDelta(t, CFSFromDepth(2.0, 1e6), out.Rows[0].Value, 1e-12)
	assert.InDelta(t, CFSFromDepth(3.0, 2e6), out.Rows[1].Value, 1e-12)
}

func TestConvertToCFS_DropsUncataloguedBasins(t *testing.T) {
	date := Date(2024, time.June, 1)
	table := Table{Rows: []Row{
		{Location: "known", Date: date, Value: 1.0},
		{Location: "unknown", Date: date, Value: 1.0},
	}}

	out := ConvertToCFS(table, map[string]float64{"known": 1e6})

	// Basins absent from the catalog silently drop their rows.
	require.Len(t, out.Rows, 1)
	assert.Equal(t, "known", out.Rows[0].Location)
}

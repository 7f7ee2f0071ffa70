// Package domain models machine-learning streamflow predictions for river
// basins across the contiguous United States.
//
// # Data Source
//
// Predictions are produced offline by a k-fold ensemble of trained models
// (ten folds in the current version). Each fold emits one depth-rate value
// per basin per day. Basins are identified by USGS HUC10 hydrologic unit
// codes, e.g. "1701020101". Model output lands in two hive-partitioned
// parquet stores:
//
//	location=<huc10>/version=<v>/fold=NN-*.parquet   (historical, bulk-loaded)
//	date=YYYY-MM-DD/version=<v>/fold=NN-*.parquet    (current year, daily runs)
//
// The two layouts exist because recent data arrives by date-of-run while
// history is loaded by basin; querying the wrong one costs far more I/O.
//
// # Units
//
// Stored values are depth rates in millimeters per day over the basin. At
// read time they may be converted to a volumetric flow rate in cubic feet
// per second using the basin's polygon area:
//
//	cfs = mm_day / 86400 / 304.8 * (area_m2 * 10.7639)
//
// (seconds per day, millimeters per foot, square feet per square meter).
//
// # Aggregation
//
// Queries either return the raw ensemble (one row per location, date and
// fold) or reduce the ensemble per (location, version, date) group with a
// closed vocabulary of statistics: min, max, mean, median, stddev (sample),
// iqr (75th minus 25th percentile, linear interpolation). Aggregated output
// is long-form (one row per group and metric), so the response shape does
// not depend on how many statistics were requested.
package domain

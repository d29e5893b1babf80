package dataset

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Region is one boundary feature. Shape is nil when the feature had no
// polygonal geometry.
type Region struct {
	ID    string
	Name  string
	Shape *geom.MultiPolygon
}

// Observation is one row of the tabular dataset. Value is NaN when the
// source field was not numeric.
type Observation struct {
	ISO3C string
	Year  int
	Value float64
	Type  string
}

// Positive reports whether the observation carries usable data.
func (o Observation) Positive() bool {
	return !math.IsNaN(o.Value) && !math.IsInf(o.Value, 0) && o.Value > 0
}

// Key addresses the index.
type Key struct {
	RegionID string
	Year     int
}

// Entry is what the index stores per key.
type Entry struct {
	Value float64
	Type  string
}

// Positive reports whether the entry should be coloured.
func (e Entry) Positive() bool {
	return !math.IsNaN(e.Value) && !math.IsInf(e.Value, 0) && e.Value > 0
}

// Index maps (region id, year) to the matching observation fields.
// It is read-only after BuildIndex returns.
type Index map[Key]Entry

// Lookup returns the entry for id and year.
func (ix Index) Lookup(id string, year int) (Entry, bool) {
	e, ok := ix[Key{RegionID: id, Year: year}]
	return e, ok
}

// Dataset is the immutable snapshot produced by Load.
type Dataset struct {
	Regions      []Region
	Observations []Observation
	Index        Index
	// Duplicates counts observations that overwrote an earlier row with
	// the same (region, year) key.
	Duplicates int
	// Skipped counts CSV rows dropped because their year was not an integer.
	Skipped int
}

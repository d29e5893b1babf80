// Package scale builds the year-scoped logarithmic colour scale.
package scale

import (
	"math"

	"github.com/EmpoweredVote/EV-Choropleth/internal/dataset"
)

// Transform is the log transform applied to values before colouring.
func Transform(v float64) float64 { return math.Log10(v + 1) }

// Scale maps log-transformed values onto a palette. It is immutable.
type Scale struct {
	year     int
	min, max float64
	lo, hi   float64
	palette  Palette
}

// Build computes the scale for year from observations with a positive value.
// ok is false when no such observation exists; callers keep whatever they
// rendered before.
func Build(year int, obs []dataset.Observation, p Palette) (s *Scale, ok bool) {
	min, max := math.Inf(1), math.Inf(-1)
	found := false
	for _, o := range obs {
		if o.Year != year || !o.Positive() {
			continue
		}
		found = true
		min = math.Min(min, o.Value)
		max = math.Max(max, o.Value)
	}
	if !found {
		return nil, false
	}
	return &Scale{
		year:    year,
		min:     min,
		max:     max,
		lo:      Transform(min),
		hi:      Transform(max),
		palette: p,
	}, true
}

func (s *Scale) Year() int { return s.year }
func (s *Scale) Min() float64 { return s.min }
func (s *Scale) Max() float64 { return s.max }
func (s *Scale) Palette() Palette { return s.palette }
func (s *Scale) Domain() [2]float64 { return [2]float64{s.lo, s.hi} }

// T maps a transformed value onto [0,1]. A single-point domain maps every
// input to the midpoint.
func (s *Scale) T(x float64) float64 {
	if s.hi == s.lo {
		return 0.5
	}
	return (x - s.lo) / (s.hi - s.lo)
}

// Color returns the hex colour for a transformed value.
func (s *Scale) Color(x float64) string {
	return s.palette.At(s.T(x)).Hex()
}

// ColorFor colours a raw value. ok is false for NaN, infinite or
// non-positive values.
func (s *Scale) ColorFor(v float64) (string, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return "", false
	}
	return s.Color(Transform(v)), true
}

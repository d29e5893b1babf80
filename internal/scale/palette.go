package scale

import (
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Interpolator maps t in [0,1] to a colour. Values outside the range clamp.
type Interpolator func(t float64) colorful.Color

// Palette is a named sequential ramp.
type Palette struct {
	Name   string
	Stops  []string
	interp Interpolator
}

// At returns the palette colour at t.
func (p Palette) At(t float64) colorful.Color { return p.interp(t) }

// Nine-class ColorBrewer sequential schemes of the yellow/orange/red family.
var schemes = map[string][]string{
	"ylorrd": {"#ffffcc", "#ffeda0", "#fed976", "#feb24c", "#fd8d3c", "#fc4e2a", "#e31a1c", "#bd0026", "#800026"},
	"orrd":   {"#fff7ec", "#fee8c8", "#fdd49e", "#fdbb84", "#fc8d59", "#ef6548", "#d7301f", "#b30000", "#7f0000"},
	"ylorbr": {"#ffffe5", "#fff7bc", "#fee391", "#fec44f", "#fe9929", "#ec7014", "#cc4c02", "#993404", "#662506"},
	"reds":   {"#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a", "#ef3b2c", "#cb181d", "#a50f15", "#67000d"},
}

var names = map[string]string{
	"ylorrd": "YlOrRd",
	"orrd":   "OrRd",
	"ylorbr": "YlOrBr",
	"reds":   "Reds",
}

// PaletteByName returns the named palette, case-insensitively.
func PaletteByName(name string) (Palette, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	stops, ok := schemes[key]
	if !ok {
		return Palette{}, false
	}
	cols := make([]colorful.Color, len(stops))
	for i, s := range stops {
		c, err := colorful.Hex(s)
		if err != nil {
			return Palette{}, false
		}
		cols[i] = c
	}
	return Palette{Name: names[key], Stops: stops, interp: RGBBasis(cols)}, true
}

// YlOrRd is the default palette.
func YlOrRd() Palette {
	p, _ := PaletteByName("YlOrRd")
	return p
}

// RGBBasis returns a uniform cubic B-spline through the given colours,
// evaluated per RGB channel. The first and last stops are reached exactly
// at t=0 and t=1.
func RGBBasis(stops []colorful.Color) Interpolator {
	r := make([]float64, len(stops))
	g := make([]float64, len(stops))
	b := make([]float64, len(stops))
	for i, c := range stops {
		r[i], g[i], b[i] = c.R, c.G, c.B
	}
	fr, fg, fb := basis(r), basis(g), basis(b)
	return func(t float64) colorful.Color {
		return colorful.Color{R: fr(t), G: fg(t), B: fb(t)}.Clamped()
	}
}

func basis(values []float64) func(float64) float64 {
	n := len(values) - 1
	return func(t float64) float64 {
		if n < 1 {
			if n == 0 {
				return values[0]
			}
			return 0
		}
		var i int
		switch {
		case math.IsNaN(t) || t <= 0:
			t, i = 0, 0
		case t >= 1:
			t, i = 1, n-1
		default:
			i = int(math.Floor(t * float64(n)))
		}
		v1, v2 := values[i], values[i+1]
		v0 := 2*v1 - v2
		if i > 0 {
			v0 = values[i-1]
		}
		v3 := 2*v2 - v1
		if i < n-1 {
			v3 = values[i+2]
		}
		return basisPoint((t-float64(i)/float64(n))*float64(n), v0, v1, v2, v3)
	}
}

func basisPoint(t1, v0, v1, v2, v3 float64) float64 {
	t2 := t1 * t1
	t3 := t2 * t1
	return ((1-3*t1+3*t2-t3)*v0 +
		(4-6*t2+3*t3)*v1 +
		(1+3*t1+3*t2-3*t3)*v2 +
		t3*v3) / 6
}

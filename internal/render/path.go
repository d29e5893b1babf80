package render

import (
	"math"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
)

// PathData returns SVG path data for shape: one closed subpath per ring.
// A nil shape yields an empty string.
func PathData(shape *geom.MultiPolygon, proj Mercator) string {
	if shape == nil {
		return ""
	}
	var b strings.Builder
	for _, poly := range shape.Coords() {
		for _, ring := range poly {
			if len(ring) == 0 {
				continue
			}
			for i, c := range ring {
				if i == 0 {
					b.WriteByte('M')
				} else {
					b.WriteByte('L')
				}
				x, y := proj.Project(c[0], c[1])
				b.WriteString(coord(x))
				b.WriteByte(',')
				b.WriteString(coord(y))
			}
			b.WriteByte('Z')
		}
	}
	return b.String()
}

func coord(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

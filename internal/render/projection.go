package render

import "math"

// maxLat is where the Mercator projection is cut off.
const maxLat = 85.0511287798

// Mercator is a spherical Mercator projection in pixel space.
type Mercator struct {
	Scale  float64
	TX, TY float64
}

// NewMercator returns the world projection for a canvas: scale 150, centred
// horizontally and pushed down to height/1.5.
func NewMercator(width, height int) Mercator {
	return Mercator{Scale: 150, TX: float64(width) / 2, TY: float64(height) / 1.5}
}

// Project maps lon/lat degrees to canvas pixels.
func (m Mercator) Project(lon, lat float64) (x, y float64) {
	lat = math.Max(-maxLat, math.Min(maxLat, lat))
	lambda := lon * math.Pi / 180
	phi := lat * math.Pi / 180
	x = m.Scale*lambda + m.TX
	y = -m.Scale*math.Log(math.Tan(math.Pi/4+phi/2)) + m.TY
	return x, y
}

// Invert maps canvas pixels back to lon/lat degrees.
func (m Mercator) Invert(x, y float64) (lon, lat float64) {
	lambda := (x - m.TX) / m.Scale
	phi := 2*math.Atan(math.Exp(-(y-m.TY)/m.Scale)) - math.Pi/2
	return lambda * 180 / math.Pi, phi * 180 / math.Pi
}

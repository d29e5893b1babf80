package dataset

import (
	"fmt"
	"strconv"

	geojson "github.com/paulmach/go.geojson"
	"github.com/twpayne/go-geom"
)

// ParseRegions decodes a GeoJSON FeatureCollection. Each feature becomes one
// Region; Polygon and MultiPolygon geometries are kept as a MultiPolygon and
// any other geometry type leaves Shape nil.
func ParseRegions(b []byte) ([]Region, error) {
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	regions := make([]Region, 0, len(fc.Features))
	for i, f := range fc.Features {
		r := Region{
			ID:   featureID(f),
			Name: stringProp(f.Properties, "name"),
		}
		shape, err := toMultiPolygon(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d (%s): %w", i, r.ID, err)
		}
		r.Shape = shape
		regions = append(regions, r)
	}
	return regions, nil
}

func featureID(f *geojson.Feature) string {
	if id := idString(f.ID); id != "" {
		return id
	}
	return idString(f.Properties["id"])
}

func idString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return ""
	}
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func toMultiPolygon(g *geojson.Geometry) (*geom.MultiPolygon, error) {
	if g == nil {
		return nil, nil
	}
	var polys [][][][]float64
	switch {
	case g.IsPolygon():
		polys = [][][][]float64{g.Polygon}
	case g.IsMultiPolygon():
		polys = g.MultiPolygon
	default:
		return nil, nil
	}

	coords := make([][][]geom.Coord, 0, len(polys))
	for _, poly := range polys {
		rings := make([][]geom.Coord, 0, len(poly))
		for _, ring := range poly {
			rr := make([]geom.Coord, 0, len(ring))
			for _, p := range ring {
				if len(p) < 2 {
					continue
				}
				rr = append(rr, geom.Coord{p[0], p[1]})
			}
			rings = append(rings, rr)
		}
		coords = append(coords, rings)
	}
	return geom.NewMultiPolygon(geom.XY).SetCoords(coords)
}

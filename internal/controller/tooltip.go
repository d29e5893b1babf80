package controller

import (
	"math"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/EV-Choropleth/internal/dataset"
	"github.com/EmpoweredVote/EV-Choropleth/internal/metrics"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"golang.org/x/text/number"
)

// NoData ends the tooltip of a region without an observation.
const NoData = "No data available"

// Tooltip is the hover box. X and Y are canvas pixels.
type Tooltip struct {
	Visible  bool     `json:"visible"`
	RegionID string   `json:"id,omitempty"`
	Name     string   `json:"name,omitempty"`
	Year     int      `json:"year,omitempty"`
	HasData  bool     `json:"has_data"`
	Value    float64  `json:"value,omitempty"`
	Type     string   `json:"type,omitempty"`
	Lines    []string `json:"lines,omitempty"`
	Text     string   `json:"text,omitempty"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
}

type hitShape struct {
	id     string
	shape  *geom.MultiPolygon
	bounds *geom.Bounds
}

func buildHits(regions []dataset.Region) []hitShape {
	hits := make([]hitShape, 0, len(regions))
	for _, r := range regions {
		if r.Shape == nil || r.Shape.Empty() {
			continue
		}
		hits = append(hits, hitShape{id: r.ID, shape: r.Shape, bounds: r.Shape.Bounds()})
	}
	return hits
}

// Hover shows the tooltip for region id at the selected year.
func (c *Controller) Hover(id string) Tooltip {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tooltip = c.describe(id)
	return c.tooltip
}

// HoverAt resolves the region under canvas point (x, y) and shows its
// tooltip near the pointer. Outside every region the tooltip is hidden.
func (c *Controller) HoverAt(x, y float64) Tooltip {
	c.mu.Lock()
	defer c.mu.Unlock()

	lon, lat := c.renderer.Projection().Invert(x, y)
	id, ok := c.regionAt(lon, lat)
	if !ok {
		c.tooltip = Tooltip{}
		return c.tooltip
	}
	t := c.describe(id)
	t.X = math.Min(x+10, float64(c.opts.Width)-150)
	t.Y = y + 10
	c.tooltip = t
	return t
}

// Leave hides the tooltip.
func (c *Controller) Leave() Tooltip {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tooltip = Tooltip{}
	return c.tooltip
}

// Tooltip returns the tooltip as last shown.
func (c *Controller) Tooltip() Tooltip {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tooltip
}

func (c *Controller) describe(id string) Tooltip {
	name := c.names[id]
	if name == "" {
		name = id
	}
	t := Tooltip{Visible: true, RegionID: id, Name: name, Year: c.year}

	e, ok := c.data.Index.Lookup(id, c.year)
	if !ok || math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
		metrics.TooltipsTotal.WithLabelValues("nodata").Inc()
		t.Lines = []string{name, NoData}
		t.Text = strings.Join(t.Lines, "\n")
		return t
	}
	metrics.TooltipsTotal.WithLabelValues("data").Inc()
	t.HasData = true
	t.Value = e.Value
	t.Type = e.Type
	t.Lines = []string{
		name,
		"Year: " + strconv.Itoa(c.year),
		"Value: " + c.formatValue(e.Value),
		"Type: " + e.Type,
	}
	t.Text = strings.Join(t.Lines, "\n")
	return t
}

// regionAt returns the topmost region containing the point. Later shapes
// are drawn over earlier ones, so the search runs backwards.
func (c *Controller) regionAt(lon, lat float64) (string, bool) {
	pt := geom.Coord{lon, lat}
	for i := len(c.hits) - 1; i >= 0; i-- {
		h := c.hits[i]
		if lon < h.bounds.Min(0) || lon > h.bounds.Max(0) || lat < h.bounds.Min(1) || lat > h.bounds.Max(1) {
			continue
		}
		for j := 0; j < h.shape.NumPolygons(); j++ {
			if containsPoint(h.shape.Polygon(j), pt) {
				return h.id, true
			}
		}
	}
	return "", false
}

func containsPoint(p *geom.Polygon, pt geom.Coord) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	if !xy.IsPointInRing(geom.XY, pt, p.LinearRing(0).FlatCoords()) {
		return false
	}
	for k := 1; k < p.NumLinearRings(); k++ {
		if xy.IsPointInRing(geom.XY, pt, p.LinearRing(k).FlatCoords()) {
			return false
		}
	}
	return true
}

// formatValue groups thousands and keeps every fraction digit of the
// shortest representation of v.
func (c *Controller) formatValue(v float64) string {
	digits := 0
	if s := strconv.FormatFloat(v, 'f', -1, 64); strings.Contains(s, ".") {
		digits = len(s) - strings.IndexByte(s, '.') - 1
	}
	return c.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(digits)))
}

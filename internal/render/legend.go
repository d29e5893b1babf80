package render

import (
	"fmt"
	"math"
	"strconv"

	"github.com/EmpoweredVote/EV-Choropleth/internal/scale"
)

const (
	LegendID         = "legend"
	LegendGradientID = "legend-gradient"
)

type LegendOptions struct {
	X, Y          float64
	Width, Height float64
	Title         string
}

// DefaultLegendOptions places a 300x20 bar 50px from the right edge and
// 40px from the bottom of the canvas.
func DefaultLegendOptions(width, height int, title string) LegendOptions {
	return LegendOptions{
		X:      float64(width) - 300 - 50,
		Y:      float64(height) - 40,
		Width:  300,
		Height: 20,
		Title:  title,
	}
}

// Legend is a gradient bar with the year's extremes.
type Legend struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Title    string  `json:"title"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	MinLabel string  `json:"min_label"`
	MaxLabel string  `json:"max_label"`
	Stops    [2]Stop `json:"stops"`
}

// BuildLegend builds a fresh legend for s. It returns nil when s is nil.
func BuildLegend(s *scale.Scale, o LegendOptions) *Legend {
	if s == nil {
		return nil
	}
	d := s.Domain()
	return &Legend{
		X:        o.X,
		Y:        o.Y,
		Width:    o.Width,
		Height:   o.Height,
		Title:    o.Title,
		Min:      s.Min(),
		Max:      s.Max(),
		MinLabel: RoundLabel(s.Min()),
		MaxLabel: RoundLabel(s.Max()),
		Stops: [2]Stop{
			{Offset: 0, Color: s.Color(d[0])},
			{Offset: 100, Color: s.Color(d[1])},
		},
	}
}

// RoundLabel rounds half up and prints the integer.
func RoundLabel(v float64) string {
	return strconv.FormatFloat(math.Floor(v+0.5), 'f', 0, 64)
}

// Commands returns the legend as a self-contained group; the gradient
// definition lives inside it so replacing the group replaces everything.
func (l *Legend) Commands() []Command {
	if l == nil {
		return nil
	}
	return []Command{
		BeginGroup{ID: LegendID, Transform: fmt.Sprintf("translate(%s,%s)", coord(l.X), coord(l.Y))},
		LinearGradient{ID: LegendGradientID, Stops: l.Stops[:]},
		Rect{W: l.Width, H: l.Height, Fill: "url(#" + LegendGradientID + ")"},
		Text{X: l.Width / 2, Y: -10, Body: l.Title, Anchor: "middle", Style: "font-size:14px;font-weight:bold"},
		Text{X: 0, Y: l.Height + 15, Body: l.MinLabel, Anchor: "start"},
		Text{X: l.Width, Y: l.Height + 15, Body: l.MaxLabel, Anchor: "end"},
		EndGroup{},
	}
}

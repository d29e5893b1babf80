package render

import (
	"github.com/EmpoweredVote/EV-Choropleth/internal/dataset"
	"github.com/EmpoweredVote/EV-Choropleth/internal/scale"
)

const (
	DefaultFallback = "#ccc"
	DefaultStroke   = "#333"
)

// Shape is a region with its path data already projected.
type Shape struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	D    string `json:"d"`
}

// Fill is the colour of one shape for the current year.
type Fill struct {
	ID      string `json:"id"`
	Color   string `json:"color"`
	HasData bool   `json:"has_data"`
}

type Options struct {
	Fallback string
	Stroke   string
}

// Renderer owns the static geometry. Paths are projected once in
// NewRenderer; recolouring never touches them.
type Renderer struct {
	shapes   []Shape
	fallback string
	stroke   string
	proj     Mercator
}

func NewRenderer(regions []dataset.Region, proj Mercator, opts Options) *Renderer {
	if opts.Fallback == "" {
		opts.Fallback = DefaultFallback
	}
	if opts.Stroke == "" {
		opts.Stroke = DefaultStroke
	}
	shapes := make([]Shape, len(regions))
	for i, reg := range regions {
		shapes[i] = Shape{ID: reg.ID, Name: reg.Name, D: PathData(reg.Shape, proj)}
	}
	return &Renderer{shapes: shapes, fallback: opts.Fallback, stroke: opts.Stroke, proj: proj}
}

// Shapes returns the projected shapes in region order. Callers must not
// modify the slice.
func (r *Renderer) Shapes() []Shape { return r.shapes }

func (r *Renderer) Fallback() string     { return r.fallback }
func (r *Renderer) Stroke() string       { return r.stroke }
func (r *Renderer) Projection() Mercator { return r.proj }

// Fills colours every shape for year. Regions without a positive value for
// the year, or any region when s is nil, get the fallback colour.
func (r *Renderer) Fills(ix dataset.Index, year int, s *scale.Scale) []Fill {
	out := make([]Fill, len(r.shapes))
	for i, sh := range r.shapes {
		f := Fill{ID: sh.ID, Color: r.fallback}
		if e, ok := ix.Lookup(sh.ID, year); ok && s != nil {
			if c, ok := s.ColorFor(e.Value); ok {
				f.Color, f.HasData = c, true
			}
		}
		out[i] = f
	}
	return out
}

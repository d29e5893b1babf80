// Package controller holds the interactive state of one map view: the
// selected year and everything derived from it.
package controller

import (
	"strconv"
	"sync"

	"github.com/EmpoweredVote/EV-Choropleth/internal/dataset"
	"github.com/EmpoweredVote/EV-Choropleth/internal/metrics"
	"github.com/EmpoweredVote/EV-Choropleth/internal/render"
	"github.com/EmpoweredVote/EV-Choropleth/internal/scale"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Options struct {
	YearMin, YearMax int
	DefaultYear      int
	Palette          scale.Palette
	Width, Height    int
	Title            string
	LegendTitle      string
}

// Frame is what changes when the year changes.
type Frame struct {
	Year  int    `json:"year"`
	Label string `json:"label"`
	// Unchanged is set when Year has no positive observations and the
	// colours and legend are still those of ScaleYear.
	Unchanged bool           `json:"unchanged"`
	ScaleYear int            `json:"scale_year,omitempty"`
	Fills     []render.Fill  `json:"fills"`
	Legend    *render.Legend `json:"legend,omitempty"`
}

// Controller serializes events for one view. Every method is safe for
// concurrent use; events are applied one at a time in arrival order.
type Controller struct {
	mu       sync.Mutex
	data     *dataset.Dataset
	renderer *render.Renderer
	opts     Options
	legend   render.LegendOptions
	names    map[string]string
	hits     []hitShape
	printer  *message.Printer

	year    int
	scale   *scale.Scale
	fills   []render.Fill
	current *render.Legend
	tooltip Tooltip
}

// New creates a controller and performs the initial render at the default
// year.
func New(data *dataset.Dataset, r *render.Renderer, opts Options) *Controller {
	if opts.Palette.Name == "" {
		opts.Palette = scale.YlOrRd()
	}
	c := &Controller{
		data:     data,
		renderer: r,
		opts:     opts,
		legend:   render.DefaultLegendOptions(opts.Width, opts.Height, opts.LegendTitle),
		names:    make(map[string]string, len(data.Regions)),
		hits:     buildHits(data.Regions),
		printer:  message.NewPrinter(language.English),
	}
	for _, reg := range data.Regions {
		c.names[reg.ID] = reg.Name
	}
	c.year = clamp(opts.DefaultYear, opts.YearMin, opts.YearMax)
	c.fills = r.Fills(data.Index, c.year, nil)
	c.apply()
	return c
}

// Year returns the selected year.
func (c *Controller) Year() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.year
}

// SelectYear handles a slider move. raw is the control's string value.
func (c *Controller) SelectYear(raw string) (Frame, error) {
	y, err := ParseYear(raw, c.opts.YearMin, c.opts.YearMax)
	if err != nil {
		return Frame{}, err
	}
	return c.SetYear(y), nil
}

// SetYear selects y (clamped to the configured range) and recolours.
func (c *Controller) SetYear(y int) Frame {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.year = clamp(y, c.opts.YearMin, c.opts.YearMax)
	metrics.YearChangesTotal.Inc()
	c.apply()
	return c.frame()
}

// apply runs scale, fills, legend in that order. When the year has no
// positive data the previous state is left as is.
func (c *Controller) apply() {
	s, ok := scale.Build(c.year, c.data.Observations, c.opts.Palette)
	if !ok {
		metrics.UnchangedSelectionsTotal.Inc()
		return
	}
	c.scale = s
	c.fills = c.renderer.Fills(c.data.Index, c.year, s)
	c.current = render.BuildLegend(s, c.legend)
}

// Frame returns the current state.
func (c *Controller) Frame() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame()
}

func (c *Controller) frame() Frame {
	f := Frame{
		Year:   c.year,
		Label:  strconv.Itoa(c.year),
		Fills:  append([]render.Fill(nil), c.fills...),
		Legend: c.current,
	}
	if c.scale == nil || c.scale.Year() != c.year {
		f.Unchanged = true
	}
	if c.scale != nil {
		f.ScaleYear = c.scale.Year()
	}
	return f
}

// Scene returns the full drawable state.
func (c *Controller) Scene() render.Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	return render.Scene{
		Width:    c.opts.Width,
		Height:   c.opts.Height,
		Title:    c.opts.Title,
		Stroke:   c.renderer.Stroke(),
		Fallback: c.renderer.Fallback(),
		Shapes:   c.renderer.Shapes(),
		Fills:    append([]render.Fill(nil), c.fills...),
		Legend:   c.current,
	}
}

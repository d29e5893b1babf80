package render

// Scene is everything needed to draw one state of the map.
type Scene struct {
	Width, Height int
	Title         string
	Stroke        string
	// Fallback colours shapes without a fill; empty means DefaultFallback.
	Fallback string
	Shapes   []Shape
	Fills    []Fill
	Legend   *Legend
}

// Commands lists the draw commands for the scene: region paths, the title,
// then the legend when there is one. Calling it twice gives the same list.
func (sc Scene) Commands() []Command {
	cmds := make([]Command, 0, len(sc.Shapes)+8)
	for i, sh := range sc.Shapes {
		fill := sc.Fallback
		if fill == "" {
			fill = DefaultFallback
		}
		if i < len(sc.Fills) {
			fill = sc.Fills[i].Color
		}
		cmds = append(cmds, Path{ID: sh.ID, Name: sh.Name, D: sh.D, Fill: fill, Stroke: sc.Stroke})
	}
	if sc.Title != "" {
		cmds = append(cmds, Text{
			X:      float64(sc.Width) / 2,
			Y:      30,
			Body:   sc.Title,
			Anchor: "middle",
			Style:  "font-size:26px;font-weight:bold",
			ID:     "title",
		})
	}
	return append(cmds, sc.Legend.Commands()...)
}

package render

import (
	"fmt"
	"html"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
)

// WriteSVG replays cmds onto a width x height SVG document.
func WriteSVG(w io.Writer, width, height int, cmds []Command) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(width, height)

	depth := 0
	for _, c := range cmds {
		switch c := c.(type) {
		case Path:
			attrs := []string{attr("fill", c.Fill), attr("stroke", c.Stroke)}
			if c.ID != "" {
				attrs = append(attrs, attr("data-id", c.ID))
			}
			if c.Name != "" {
				attrs = append(attrs, attr("data-name", c.Name))
			}
			canvas.Path(c.D, attrs...)
		case Text:
			attrs := []string{}
			if c.ID != "" {
				attrs = append(attrs, attr("id", c.ID))
			}
			if c.Anchor != "" {
				attrs = append(attrs, attr("text-anchor", c.Anchor))
			}
			if c.Style != "" {
				attrs = append(attrs, c.Style)
			}
			canvas.Text(px(c.X), px(c.Y), c.Body, attrs...)
		case Rect:
			canvas.Rect(px(c.X), px(c.Y), px(c.W), px(c.H), attr("fill", c.Fill))
		case LinearGradient:
			stops := make([]svg.Offcolor, len(c.Stops))
			for i, s := range c.Stops {
				stops[i] = svg.Offcolor{Offset: s.Offset, Color: s.Color, Opacity: 1}
			}
			canvas.Def()
			canvas.LinearGradient(c.ID, 0, 0, 100, 0, stops)
			canvas.DefEnd()
		case BeginGroup:
			attrs := []string{}
			if c.ID != "" {
				attrs = append(attrs, attr("id", c.ID))
			}
			if c.Transform != "" {
				attrs = append(attrs, attr("transform", c.Transform))
			}
			canvas.Group(attrs...)
			depth++
		case EndGroup:
			if depth == 0 {
				return fmt.Errorf("render: unbalanced group end")
			}
			canvas.Gend()
			depth--
		default:
			return fmt.Errorf("render: unknown command %q", c.Op())
		}
	}
	if depth != 0 {
		return fmt.Errorf("render: %d unclosed groups", depth)
	}
	canvas.End()
	return ew.err
}

func attr(name, value string) string {
	return name + `="` + html.EscapeString(value) + `"`
}

func px(v float64) int { return int(math.Round(v)) }

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, nil
}

package render

// Command is one draw instruction. A scene is an ordered list of commands
// that a backend replays; WriteSVG is the only backend today.
type Command interface {
	Op() string
}

// Path draws one region outline.
type Path struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	D      string `json:"d"`
	Fill   string `json:"fill"`
	Stroke string `json:"stroke"`
}

// Text draws a label. Style is inline CSS.
type Text struct {
	X, Y   float64
	Body   string
	Anchor string
	Style  string
	ID     string
}

// Rect draws a rectangle filled with a colour or a paint reference.
type Rect struct {
	X, Y, W, H float64
	Fill       string
}

// Stop is one gradient stop; Offset is a percentage.
type Stop struct {
	Offset uint8  `json:"offset"`
	Color  string `json:"color"`
}

// LinearGradient defines a horizontal gradient usable as url(#ID).
type LinearGradient struct {
	ID    string
	Stops []Stop
}

// BeginGroup opens a <g>; it must be balanced by EndGroup.
type BeginGroup struct {
	ID        string
	Transform string
}

// EndGroup closes the innermost group.
type EndGroup struct{}

func (Path) Op() string           { return "path" }
func (Text) Op() string           { return "text" }
func (Rect) Op() string           { return "rect" }
func (LinearGradient) Op() string { return "gradient" }
func (BeginGroup) Op() string     { return "group" }
func (EndGroup) Op() string       { return "endgroup" }

package graph

// NoteType mirrors the vault document types. The engine carries it through
// untouched so the render layer can style nodes per type.
type NoteType string

const (
	NoteTypeMarkdown NoteType = "markdown"
	NoteTypeText     NoteType = "text"
	NoteTypePDF      NoteType = "pdf"
)

// Note is the engine's view of one vault document.
type Note struct {
	ID      string
	Title   string
	Content string
	Tags    []string
	Type    NoteType
}

// AiLink is an AI-proposed semantic edge between two note ids. The engine
// receives suggestions ready-made and never produces them itself.
type AiLink struct {
	Source string
	Target string
}

// LinkType distinguishes tag-derived links from AI suggestions.
type LinkType string

const (
	LinkTypeTag LinkType = "tag"
	LinkTypeAI  LinkType = "ai"
)

// Node is a positioned note. Velocity is scratch state for the simulator
// and never survives a step.
type Node struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"-"`
	Tags    []string `json:"tags,omitempty"`
	Type    NoteType `json:"type"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Radius  float64  `json:"radius"`
	VX      float64  `json:"-"`
	VY      float64  `json:"-"`
}

// Link connects two nodes by id. Strength is visual weight only; the
// simulator applies the same spring force regardless.
type Link struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Strength float64  `json:"strength"`
	Type     LinkType `json:"type"`
}

// Bounds is the layout container. Zero dimensions fall back to 800x600.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b Bounds) Center() (float64, float64) {
	return b.Width / 2, b.Height / 2
}

func (b Bounds) orDefault() Bounds {
	if b.Width <= 0 {
		b.Width = defaultWidth
	}
	if b.Height <= 0 {
		b.Height = defaultHeight
	}
	return b
}

// State is the scheduler phase.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateConverged State = "converged"
)

// Frame is a copy of the layout state at one step. Frames handed to
// callbacks and snapshot callers are detached from the live simulation.
type Frame struct {
	Step  int    `json:"step"`
	State State  `json:"state"`
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

package graph

// labelOffset places a node's label just under its circle.
const labelOffset = 12.0

// Line is one drawable link. Width carries the link strength; Dashed marks
// AI links so the client can animate them.
type Line struct {
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Width  float64 `json:"width"`
	Dashed bool    `json:"dashed"`
}

// Circle is one drawable node.
type Circle struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// Label is a node caption.
type Label struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Scene is one frame reduced to drawing primitives. Any renderer can draw
// it without touching engine state.
type Scene struct {
	Lines   []Line   `json:"lines"`
	Circles []Circle `json:"circles"`
	Labels  []Label  `json:"labels"`
}

// BuildScene projects layout state into a Scene. It only reads its inputs.
// Links with unresolved endpoints are skipped rather than drawn dangling;
// untitled nodes are labeled by id.
func BuildScene(nodes []Node, links []Link) Scene {
	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		idx[n.ID] = i
	}

	scene := Scene{
		Lines:   make([]Line, 0, len(links)),
		Circles: make([]Circle, 0, len(nodes)),
		Labels:  make([]Label, 0, len(nodes)),
	}
	for _, l := range links {
		si, ok := idx[l.Source]
		if !ok {
			continue
		}
		ti, ok := idx[l.Target]
		if !ok {
			continue
		}
		scene.Lines = append(scene.Lines, Line{
			X1:     nodes[si].X,
			Y1:     nodes[si].Y,
			X2:     nodes[ti].X,
			Y2:     nodes[ti].Y,
			Width:  l.Strength,
			Dashed: l.Type == LinkTypeAI,
		})
	}
	for _, n := range nodes {
		scene.Circles = append(scene.Circles, Circle{ID: n.ID, X: n.X, Y: n.Y, Radius: n.Radius})
		text := n.Title
		if text == "" {
			text = n.ID
		}
		scene.Labels = append(scene.Labels, Label{Text: text, X: n.X, Y: n.Y + n.Radius + labelOffset})
	}
	return scene
}

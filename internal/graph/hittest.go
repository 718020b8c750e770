package graph

// hitTest resolves a point to the topmost node whose circle contains it,
// or "" when the point misses everything. Nodes render in slice order, so
// the scan runs back to front and the node drawn last wins on overlap.
// Links are not hit-testable.
func hitTest(nodes []Node, x, y float64) string {
	for i := len(nodes) - 1; i >= 0; i-- {
		dx := x - nodes[i].X
		dy := y - nodes[i].Y
		if dx*dx+dy*dy <= nodes[i].Radius*nodes[i].Radius {
			return nodes[i].ID
		}
	}
	return ""
}

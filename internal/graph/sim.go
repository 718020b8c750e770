package graph

import "math"

const (
	minSeparation     = 1.0
	repulsionRange    = 200.0
	repulsionStrength = 1000.0
	springRestLength  = 150.0
	springStiffness   = 0.005
	gravityStrength   = 0.005
)

// Step advances the simulation by one tick, in place. Velocities are
// recomputed from zero every call; nothing carries over between steps, so
// the motion is fully overdamped and settles instead of oscillating.
//
// Distances are clamped to minSeparation before dividing, which keeps
// coincident nodes finite: the clamped magnitude is nonzero while the unit
// vector degenerates to zero, so the pair simply exerts nothing that step.
func Step(nodes []Node, links []Link, bounds Bounds) {
	if len(nodes) == 0 {
		return
	}
	bounds = bounds.orDefault()
	cx, cy := bounds.Center()

	for i := range nodes {
		nodes[i].VX = 0
		nodes[i].VY = 0
	}

	// Short-range pairwise repulsion, equal and opposite.
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			dx := nodes[i].X - nodes[j].X
			dy := nodes[i].Y - nodes[j].Y
			d := math.Hypot(dx, dy)
			if d < minSeparation {
				d = minSeparation
			}
			if d >= repulsionRange {
				continue
			}
			f := repulsionStrength / (d * d)
			ux := dx / d
			uy := dy / d
			nodes[i].VX += ux * f
			nodes[i].VY += uy * f
			nodes[j].VX -= ux * f
			nodes[j].VY -= uy * f
		}
	}

	// Springs pull stretched links toward the rest length and push
	// compressed ones apart. Link strength never scales the force.
	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		idx[n.ID] = i
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
		dx := nodes[ti].X - nodes[si].X
		dy := nodes[ti].Y - nodes[si].Y
		d := math.Hypot(dx, dy)
		if d < minSeparation {
			d = minSeparation
		}
		f := (d - springRestLength) * springStiffness
		ux := dx / d
		uy := dy / d
		nodes[si].VX += ux * f
		nodes[si].VY += uy * f
		nodes[ti].VX -= ux * f
		nodes[ti].VY -= uy * f
	}

	// Gravity toward the container center, then Euler integration.
	for i := range nodes {
		nodes[i].VX += (cx - nodes[i].X) * gravityStrength
		nodes[i].VY += (cy - nodes[i].Y) * gravityStrength
		nodes[i].X += nodes[i].VX
		nodes[i].Y += nodes[i].VY
	}
}

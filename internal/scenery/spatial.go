package scenery

import (
	"github.com/go-gl/mathgl/mgl32"

	"roadside/internal/scene"
)

// RectF is an axis-aligned rectangle on the ground plane (x, z).
type RectF struct {
	X0, Z0 float64
	X1, Z1 float64
}

func (r RectF) Intersects(o RectF) bool {
	return r.X0 < o.X1 && r.X1 > o.X0 && r.Z0 < o.Z1 && r.Z1 > o.Z0
}

func (r RectF) Expand(d float64) RectF {
	return RectF{X0: r.X0 - d, Z0: r.Z0 - d, X1: r.X1 + d, Z1: r.Z1 + d}
}

// Union is the smallest rectangle covering r and o.
func (r RectF) Union(o RectF) RectF {
	return RectF{
		X0: min(r.X0, o.X0), Z0: min(r.Z0, o.Z0),
		X1: max(r.X1, o.X1), Z1: max(r.Z1, o.Z1),
	}
}

func (r RectF) Width() float64 { return r.X1 - r.X0 }
func (r RectF) Depth() float64 { return r.Z1 - r.Z0 }

func rectAround(x, z, halfW, halfD float64) RectF {
	return RectF{X0: x - halfW, Z0: z - halfD, X1: x + halfW, Z1: z + halfD}
}

// footprint projects a node's world bounds onto the ground plane. Nodes
// without geometry get a DefaultFootprint square around their position.
func footprint(n *scene.Node) RectF {
	b := n.WorldBounds()
	if b.IsEmpty() {
		p := n.Transform.Position
		return rectAround(float64(p.X()), float64(p.Z()), DefaultFootprint/2, DefaultFootprint/2)
	}
	return RectF{
		X0: float64(b.Min.X()), Z0: float64(b.Min.Z()),
		X1: float64(b.Max.X()), Z1: float64(b.Max.Z()),
	}
}

// footprintAt moves n to (x, 0, z) and returns its footprint there.
func footprintAt(n *scene.Node, x, z float64) RectF {
	n.Transform.Position = mgl32.Vec3{float32(x), 0, float32(z)}
	return footprint(n)
}

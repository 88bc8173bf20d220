package view

import (
	"github.com/go-gl/mathgl/mgl32"

	"roadside/internal/scene"
)

// ShadowLift keeps shadow quads above the ground to avoid z-fighting.
const ShadowLift = 0.02

// Item is one box to draw: a unit cube centred on the origin, moved by
// Model, in a flat colour.
type Item struct {
	Model mgl32.Mat4
	Color mgl32.Vec3
}

// Collect appends a box for every visible mesh in sc to dst, followed by
// the flattened shadows of meshes that cast one. Meshes whose resources
// were already disposed are skipped.
func Collect(sc *scene.Scene, light Light, dst []Item) []Item {
	dst = dst[:0]
	var shadows []scene.Box
	scene.WalkMeshes(sc.Root(), func(m *scene.Node) {
		if m.Geometry == nil || m.Geometry.Disposed() || !m.WorldVisible() {
			return
		}
		b := m.Geometry.Bounds.Transform(m.WorldMatrix())
		if b.IsEmpty() {
			return
		}
		color := mgl32.Vec3{0.8, 0.8, 0.8}
		if m.Material != nil {
			color = m.Material.Color
		}
		dst = append(dst, Item{Model: BoxMatrix(b), Color: color})
		if m.CastShadow {
			shadows = append(shadows, b)
		}
	})
	for _, b := range shadows {
		dst = append(dst, Item{Model: ShadowMatrix(b, light.Dir), Color: shadowColor})
	}
	return dst
}

var shadowColor = mgl32.Vec3{0.08, 0.08, 0.10}

// BoxMatrix maps the unit cube onto b.
func BoxMatrix(b scene.Box) mgl32.Mat4 {
	c, s := b.Center(), b.Size()
	return mgl32.Translate3D(c.X(), c.Y(), c.Z()).Mul4(mgl32.Scale3D(s.X(), s.Y(), s.Z()))
}

// ShadowMatrix flattens b onto the ground, pushed away from the sun by
// half the box height.
func ShadowMatrix(b scene.Box, sun mgl32.Vec3) mgl32.Mat4 {
	c, s := b.Center(), b.Size()
	var dx, dz float32
	if sun.Y() < 0 {
		k := s.Y() / 2 / -sun.Y()
		dx, dz = sun.X()*k, sun.Z()*k
	}
	return mgl32.Translate3D(c.X()+dx, ShadowLift, c.Z()+dz).Mul4(mgl32.Scale3D(s.X(), 0.001, s.Z()))
}

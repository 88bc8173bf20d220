package scene

import "github.com/go-gl/mathgl/mgl32"

// NewSlab returns a mesh whose geometry is a box of the given size resting
// on y=0 and centred on x and z.
func NewSlab(name string, size mgl32.Vec3, color mgl32.Vec3) *Node {
	half := mgl32.Vec3{size.X() / 2, 0, size.Z() / 2}
	geo := NewGeometry(Box{
		Min: mgl32.Vec3{-half.X(), 0, -half.Z()},
		Max: mgl32.Vec3{half.X(), size.Y(), half.Z()},
	})
	return NewMesh(name, geo, NewMaterial(name, color))
}

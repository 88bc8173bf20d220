package scene

import (
	"image"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max mgl32.Vec3
}

func EmptyBox() Box {
	inf := float32(math.Inf(1))
	return Box{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

func (b Box) IsEmpty() bool {
	return b.Min.X() > b.Max.X() || b.Min.Y() > b.Max.Y() || b.Min.Z() > b.Max.Z()
}

func (b Box) Size() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

func (b Box) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b Box) Extend(p mgl32.Vec3) Box {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

func (b Box) Union(o Box) Box {
	if o.IsEmpty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Transform returns the box enclosing all eight transformed corners.
func (b Box) Transform(m mgl32.Mat4) Box {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBox()
	for i := 0; i < 8; i++ {
		c := mgl32.Vec3{b.Min.X(), b.Min.Y(), b.Min.Z()}
		if i&1 != 0 {
			c[0] = b.Max.X()
		}
		if i&2 != 0 {
			c[1] = b.Max.Y()
		}
		if i&4 != 0 {
			c[2] = b.Max.Z()
		}
		out = out.Extend(m.Mul4x1(c.Vec4(1)).Vec3())
	}
	return out
}

// releaser is shared by the disposable resource types. The release hook
// lets a renderer free GPU-side objects the first time Dispose runs.
type releaser struct {
	once      sync.Once
	disposed  bool
	OnDispose func()
}

func (r *releaser) dispose() {
	r.once.Do(func() {
		r.disposed = true
		if r.OnDispose != nil {
			r.OnDispose()
		}
	})
}

type Geometry struct {
	releaser
	Bounds Box
}

func NewGeometry(bounds Box) *Geometry {
	return &Geometry{Bounds: bounds}
}

func (g *Geometry) Dispose()       { g.dispose() }
func (g *Geometry) Disposed() bool { return g.disposed }

type Texture struct {
	releaser
	Name  string
	Image image.Image
}

func NewTexture(name string, img image.Image) *Texture {
	return &Texture{Name: name, Image: img}
}

// Dispose releases the texture and drops its pixels.
func (t *Texture) Dispose() {
	t.dispose()
	t.Image = nil
}

func (t *Texture) Disposed() bool { return t.disposed }

type Material struct {
	releaser
	Name  string
	Color mgl32.Vec3
	Map   *Texture
	// HasSourceMap is set when the asset referenced its own texture, even
	// if the image itself was not decoded.
	HasSourceMap bool
}

func NewMaterial(name string, color mgl32.Vec3) *Material {
	return &Material{Name: name, Color: color}
}

// Unmapped reports whether the material has no texture of its own.
func (m *Material) Unmapped() bool {
	return m.Map == nil && !m.HasSourceMap
}

func (m *Material) Dispose()       { m.dispose() }
func (m *Material) Disposed() bool { return m.disposed }

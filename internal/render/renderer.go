// Package render draws the scene graph as flat-shaded boxes with OpenGL
// 4.1 core.
package render

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"roadside/internal/scene"
	"roadside/internal/view"
)

var (
	skyColor   = mgl32.Vec3{0.62, 0.76, 0.90}
	roadColor  = mgl32.Vec3{0.20, 0.20, 0.22}
	grassColor = mgl32.Vec3{0.32, 0.48, 0.26}
)

// glOffset converts a byte offset to unsafe.Pointer for OpenGL VBO offset params.
func glOffset(n int) unsafe.Pointer { return unsafe.Pointer(uintptr(n)) }

type Renderer struct {
	prog uint32
	vao  uint32
	vbo  uint32

	uModel    int32
	uViewProj int32
	uColor    int32
	uAmbient  int32
	uSunTint  int32
	uSunDir   int32
	uFogColor int32
	uFogFar   int32

	items []view.Item
}

func NewRenderer() (*Renderer, error) {
	prog, err := linkProgram(boxVertSrc, boxFragSrc)
	if err != nil {
		return nil, fmt.Errorf("box program: %w", err)
	}
	r := &Renderer{prog: prog}

	// Unit cube: 36 vertices of position + normal.
	verts := cubeVertices()
	gl.GenVertexArrays(1, &r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(&verts[0]), gl.STATIC_DRAW)
	stride := int32(6 * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, glOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, glOffset(3*4))

	gl.UseProgram(prog)
	r.uModel = gl.GetUniformLocation(prog, gl.Str("uModel\x00"))
	r.uViewProj = gl.GetUniformLocation(prog, gl.Str("uViewProj\x00"))
	r.uColor = gl.GetUniformLocation(prog, gl.Str("uColor\x00"))
	r.uAmbient = gl.GetUniformLocation(prog, gl.Str("uAmbient\x00"))
	r.uSunTint = gl.GetUniformLocation(prog, gl.Str("uSunTint\x00"))
	r.uSunDir = gl.GetUniformLocation(prog, gl.Str("uSunDir\x00"))
	r.uFogColor = gl.GetUniformLocation(prog, gl.Str("uFogColor\x00"))
	r.uFogFar = gl.GetUniformLocation(prog, gl.Str("uFogFar\x00"))
	gl.Uniform1f(r.uAmbient, 1.0)
	gl.Uniform3f(r.uSunTint, 1.0, 1.0, 1.0)
	gl.Uniform1f(r.uFogFar, view.Far*0.6)

	gl.BindVertexArray(0)
	return r, nil
}

func (r *Renderer) Destroy() {
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.prog != 0 {
		gl.DeleteProgram(r.prog)
	}
}

// BeginFrame clears to the fogged sky and loads camera and sun uniforms.
func (r *Renderer) BeginFrame(cam view.Camera, light view.Light, fbW, fbH int) {
	gl.Viewport(0, 0, int32(fbW), int32(fbH))
	sky := mgl32.Vec3{
		skyColor.X() * light.Ambient * light.Tint.X(),
		skyColor.Y() * light.Ambient * light.Tint.Y(),
		skyColor.Z() * light.Ambient * light.Tint.Z(),
	}
	gl.ClearColor(sky.X(), sky.Y(), sky.Z(), 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.UseProgram(r.prog)
	gl.BindVertexArray(r.vao)
	vp := cam.ViewProj(fbW, fbH)
	gl.UniformMatrix4fv(r.uViewProj, 1, false, &vp[0])
	gl.Uniform1f(r.uAmbient, light.Ambient)
	gl.Uniform3f(r.uSunTint, light.Tint.X(), light.Tint.Y(), light.Tint.Z())
	gl.Uniform3f(r.uSunDir, light.Dir.X(), light.Dir.Y(), light.Dir.Z())
	gl.Uniform3f(r.uFogColor, sky.X(), sky.Y(), sky.Z())
}

// DrawGround draws the grass plane and the road strip. Both are static;
// only the scenery scrolls.
func (r *Renderer) DrawGround(roadHalfWidth float32) {
	r.drawBox(mgl32.Translate3D(0, -0.06, -view.Far/2).Mul4(mgl32.Scale3D(view.Far, 0.1, view.Far+40)), grassColor)
	r.drawBox(mgl32.Translate3D(0, -0.04, -view.Far/2).Mul4(mgl32.Scale3D(roadHalfWidth*2, 0.1, view.Far+40)), roadColor)
}

// DrawScene draws every visible mesh in sc as its bounding box.
func (r *Renderer) DrawScene(sc *scene.Scene, light view.Light) {
	r.items = view.Collect(sc, light, r.items)
	for _, it := range r.items {
		r.drawBox(it.Model, it.Color)
	}
}

func (r *Renderer) drawBox(model mgl32.Mat4, color mgl32.Vec3) {
	gl.UniformMatrix4fv(r.uModel, 1, false, &model[0])
	gl.Uniform3f(r.uColor, color.X(), color.Y(), color.Z())
	gl.DrawArrays(gl.TRIANGLES, 0, 36)
}

func cubeVertices() []float32 {
	faces := []struct {
		n    mgl32.Vec3
		u, v mgl32.Vec3
	}{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	}
	corners := [6][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, -1}, {1, 1}, {-1, 1}}
	out := make([]float32, 0, 36*6)
	for _, f := range faces {
		for _, c := range corners {
			p := f.n.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1])).Mul(0.5)
			out = append(out, p.X(), p.Y(), p.Z(), f.n.X(), f.n.Y(), f.n.Z())
		}
	}
	return out
}

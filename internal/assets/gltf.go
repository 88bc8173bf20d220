package assets

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"

	"roadside/internal/scene"
)

// maxNodeDepth guards against malformed files whose node graph loops.
const maxNodeDepth = 64

var defaultColor = mgl32.Vec3{0.8, 0.8, 0.8}

type docConverter struct {
	doc       *gltf.Document
	materials []*scene.Material
	geometry  map[int]*scene.Geometry
}

// FromDocument converts the default scene of a glTF document into a scene
// group named name. Materials and accessor-derived geometry are shared
// between nodes that reference them.
func FromDocument(name string, doc *gltf.Document) (*scene.Node, error) {
	roots := rootNodes(doc)
	if len(roots) == 0 {
		return nil, errEmptyModel
	}
	c := &docConverter{
		doc:       doc,
		materials: make([]*scene.Material, len(doc.Materials)),
		geometry:  make(map[int]*scene.Geometry),
	}
	top := scene.NewGroup(name)
	for _, r := range roots {
		n, err := c.node(r, 0)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		top.Add(n)
	}
	return top, nil
}

func rootNodes(doc *gltf.Document) []int {
	var sc *gltf.Scene
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		sc = doc.Scenes[int(*doc.Scene)]
	} else if len(doc.Scenes) > 0 {
		sc = doc.Scenes[0]
	}
	if sc != nil {
		out := make([]int, 0, len(sc.Nodes))
		for _, n := range sc.Nodes {
			out = append(out, int(n))
		}
		return out
	}

	// No scene list: every node nobody references is a root.
	child := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, ci := range n.Children {
			if int(ci) < len(child) {
				child[int(ci)] = true
			}
		}
	}
	var out []int
	for i := range doc.Nodes {
		if !child[i] {
			out = append(out, i)
		}
	}
	return out
}

func (c *docConverter) node(idx, depth int) (*scene.Node, error) {
	if idx < 0 || idx >= len(c.doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if depth > maxNodeDepth {
		return nil, fmt.Errorf("node %d nested deeper than %d", idx, maxNodeDepth)
	}
	src := c.doc.Nodes[idx]
	out := scene.NewGroup(src.Name)
	out.Transform = nodeTransform(src)

	if src.Mesh != nil && int(*src.Mesh) < len(c.doc.Meshes) {
		mesh := c.doc.Meshes[int(*src.Mesh)]
		for _, prim := range mesh.Primitives {
			out.Add(scene.NewMesh(mesh.Name, c.primitiveGeometry(prim), c.material(prim)))
		}
	}
	for _, ci := range src.Children {
		ch, err := c.node(int(ci), depth+1)
		if err != nil {
			return nil, err
		}
		out.Add(ch)
	}
	return out, nil
}

func (c *docConverter) primitiveGeometry(p *gltf.Primitive) *scene.Geometry {
	idx, ok := p.Attributes["POSITION"]
	if !ok || int(idx) >= len(c.doc.Accessors) {
		return scene.NewGeometry(scene.EmptyBox())
	}
	if g, ok := c.geometry[int(idx)]; ok {
		return g
	}
	acr := c.doc.Accessors[int(idx)]
	box := scene.EmptyBox()
	if len(acr.Min) >= 3 && len(acr.Max) >= 3 {
		box = scene.Box{
			Min: mgl32.Vec3{float32(acr.Min[0]), float32(acr.Min[1]), float32(acr.Min[2])},
			Max: mgl32.Vec3{float32(acr.Max[0]), float32(acr.Max[1]), float32(acr.Max[2])},
		}
	}
	g := scene.NewGeometry(box)
	c.geometry[int(idx)] = g
	return g
}

func (c *docConverter) material(p *gltf.Primitive) *scene.Material {
	if p.Material == nil || int(*p.Material) >= len(c.doc.Materials) {
		return scene.NewMaterial("", defaultColor)
	}
	i := int(*p.Material)
	if c.materials[i] != nil {
		return c.materials[i]
	}
	src := c.doc.Materials[i]
	m := scene.NewMaterial(src.Name, defaultColor)
	if pbr := src.PBRMetallicRoughness; pbr != nil && pbr.BaseColorTexture != nil {
		m.HasSourceMap = true
	}
	c.materials[i] = m
	return m
}

func nodeTransform(n *gltf.Node) scene.Transform {
	t := scene.IdentityTransform()

	var mat mgl32.Mat4
	for i := range mat {
		mat[i] = float32(n.Matrix[i])
	}
	if mat != (mgl32.Mat4{}) && mat != mgl32.Ident4() {
		t.Position = mat.Col(3).Vec3()
		sx := mat.Col(0).Vec3().Len()
		sy := mat.Col(1).Vec3().Len()
		sz := mat.Col(2).Vec3().Len()
		t.Scale = mgl32.Vec3{sx, sy, sz}
		if sx != 0 && sy != 0 && sz != 0 {
			rot := mgl32.Mat4FromCols(
				mat.Col(0).Mul(1/sx),
				mat.Col(1).Mul(1/sy),
				mat.Col(2).Mul(1/sz),
				mgl32.Vec4{0, 0, 0, 1},
			)
			t.Rotation = mgl32.Mat4ToQuat(rot)
		}
		return t
	}

	t.Position = mgl32.Vec3{float32(n.Translation[0]), float32(n.Translation[1]), float32(n.Translation[2])}
	q := mgl32.Quat{
		W: float32(n.Rotation[3]),
		V: mgl32.Vec3{float32(n.Rotation[0]), float32(n.Rotation[1]), float32(n.Rotation[2])},
	}
	if q.Len() > 0 {
		t.Rotation = q.Normalize()
	}
	s := mgl32.Vec3{float32(n.Scale[0]), float32(n.Scale[1]), float32(n.Scale[2])}
	if s != (mgl32.Vec3{}) {
		t.Scale = s
	}
	return t
}

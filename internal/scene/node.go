package scene

import "github.com/go-gl/mathgl/mgl32"

// Kind tags what a Node carries.
type Kind uint8

const (
	KindGroup Kind = iota
	KindMesh
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindMesh:
		return "mesh"
	}
	return "unknown"
}

type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Matrix returns T*R*S.
func (t Transform) Matrix() mgl32.Mat4 {
	m := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	m = m.Mul4(t.Rotation.Normalize().Mat4())
	return m.Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// Node is either a group (children only) or a mesh (geometry + material).
// Mesh nodes may have children too; the tag decides what Walk visitors see.
type Node struct {
	Kind      Kind
	Name      string
	Transform Transform
	Visible   bool

	// Mesh payload; nil for groups.
	Geometry      *Geometry
	Material      *Material
	CastShadow    bool
	ReceiveShadow bool

	parent   *Node
	children []*Node
}

func NewGroup(name string) *Node {
	return &Node{Kind: KindGroup, Name: name, Transform: IdentityTransform(), Visible: true}
}

func NewMesh(name string, geo *Geometry, mat *Material) *Node {
	return &Node{
		Kind:      KindMesh,
		Name:      name,
		Transform: IdentityTransform(),
		Visible:   true,
		Geometry:  geo,
		Material:  mat,
	}
}

func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) Children() []*Node { return n.children }

// Add attaches child to n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child. It reports whether child was attached to n.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			child.parent = nil
			return true
		}
	}
	return false
}

// Walk visits n and every descendant depth-first, parents before children.
func Walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.children {
		Walk(c, fn)
	}
}

// WalkMeshes visits only mesh nodes under n.
func WalkMeshes(n *Node, fn func(*Node)) {
	Walk(n, func(c *Node) {
		if c.Kind == KindMesh {
			fn(c)
		}
	})
}

// Clone deep-copies the subtree. Geometry and materials are shared.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Kind:          n.Kind,
		Name:          n.Name,
		Transform:     n.Transform,
		Visible:       n.Visible,
		Geometry:      n.Geometry,
		Material:      n.Material,
		CastShadow:    n.CastShadow,
		ReceiveShadow: n.ReceiveShadow,
	}
	for _, ch := range n.children {
		c.Add(ch.Clone())
	}
	return c
}

// WorldMatrix composes the transforms from the root down to n.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.Transform.Matrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.Transform.Matrix().Mul4(m)
	}
	return m
}

// WorldVisible is false if n or any ancestor is hidden.
func (n *Node) WorldVisible() bool {
	for p := n; p != nil; p = p.parent {
		if !p.Visible {
			return false
		}
	}
	return true
}

// WorldBounds returns the world-space box enclosing every mesh under n.
func (n *Node) WorldBounds() Box {
	out := EmptyBox()
	WalkMeshes(n, func(m *Node) {
		if m.Geometry == nil || m.Geometry.Bounds.IsEmpty() {
			return
		}
		out = out.Union(m.Geometry.Bounds.Transform(m.WorldMatrix()))
	})
	return out
}

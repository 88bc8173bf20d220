package scene

// Scene owns the root group every placed object hangs from.
type Scene struct {
	root *Node
}

func New() *Scene {
	return &Scene{root: NewGroup("root")}
}

func (s *Scene) Root() *Node { return s.root }

func (s *Scene) Add(n *Node) { s.root.Add(n) }

// Remove detaches n from the scene root. It reports whether n was a
// top-level node of this scene.
func (s *Scene) Remove(n *Node) bool { return s.root.Remove(n) }

// Contains reports whether n is a top-level node of this scene.
func (s *Scene) Contains(n *Node) bool {
	return n != nil && n.parent == s.root
}

// Len is the number of top-level nodes.
func (s *Scene) Len() int { return len(s.root.children) }

// Each visits the top-level nodes. fn must not add or remove nodes.
func (s *Scene) Each(fn func(*Node)) {
	for _, n := range s.root.children {
		fn(n)
	}
}

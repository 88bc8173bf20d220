package scenery

import "roadside/internal/scene"

type Category uint8

const (
	CategoryBuilding Category = iota
	CategoryFence
	CategoryTree
	CategoryPath
	CategoryLightpost
	CategoryBench
	CategoryBoardwalk
)

var categoryNames = [...]string{
	CategoryBuilding:  "building",
	CategoryFence:     "fence",
	CategoryTree:      "tree",
	CategoryPath:      "path",
	CategoryLightpost: "lightpost",
	CategoryBench:     "bench",
	CategoryBoardwalk: "boardwalk",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Strategy picks how an instance's depth is updated each frame.
type Strategy uint8

const (
	// StrategyDirect moves the stored depth by the frame speed and wraps it
	// by subtracting the loop span once it passes the reposition threshold.
	// Used for evenly spaced decor that must tile without seams.
	StrategyDirect Strategy = iota
	// StrategyModulo derives depth from the total scrolled distance modulo
	// the loop distance, so it never drifts.
	StrategyModulo
)

func (s Strategy) String() string {
	if s == StrategyDirect {
		return "direct"
	}
	return "modulo"
}

// Strategy returns the update strategy used for the category.
func (c Category) Strategy() Strategy {
	switch c {
	case CategoryLightpost, CategoryBench, CategoryBoardwalk:
		return StrategyDirect
	}
	return StrategyModulo
}

// Spec describes how one tracked instance streams.
type Spec struct {
	Category        Category
	Strategy        Strategy
	VisibleDistance float64
	// LoopDistance is the modulo period for StrategyModulo and the span
	// subtracted on recycling for StrategyDirect.
	LoopDistance float64
	// RepositionZ is the direct-update wrap threshold.
	RepositionZ float64
}

// Instance is one placed copy of a model that the streamer moves.
type Instance struct {
	Node     *scene.Node
	InitialZ float64
	InitialX float64
	Spec     Spec

	// Footprint is the ground rectangle covered at the initial position.
	Footprint RectF

	// Set for buildings only.
	Model string
	Era   Era
	Side  Side

	z       float64
	cycle   float64
	visible bool
	dropped bool
}

// Depth is the current depth of the instance, relative to the camera,
// before it is rounded onto the node.
func (i *Instance) Depth() float64 { return i.z }

// NodeDepth is the depth as the scene stores it.
func (i *Instance) NodeDepth() float32 { return settle(i) }

func (i *Instance) Visible() bool { return i.visible }

package scenery

import (
	"github.com/go-gl/mathgl/mgl32"

	"roadside/internal/assets"
	"roadside/internal/scene"
)

// Era is the visual phase of the skyline.
type Era uint8

const (
	EraHouse Era = iota
	EraTower
)

func (e Era) String() string {
	if e == EraTower {
		return "tower"
	}
	return "house"
}

func (e Era) bucket() Bucket {
	if e == EraTower {
		return BucketTower
	}
	return BucketHouse
}

// EraFor maps progress (0..100) to an era.
func EraFor(progress float64) Era {
	if progress >= TowerEraProgress {
		return EraTower
	}
	return EraHouse
}

// Building is one assembled, not yet placed, building.
type Building struct {
	Node  *scene.Node
	Model string
	Era   Era
}

type Assembler struct {
	catalog *Catalog
	palette *scene.Texture
	rng     *Rand

	// Stacked enables modular assembly when no sample model exists.
	Stacked bool
}

func NewAssembler(c *Catalog, palette *scene.Texture, rng *Rand) *Assembler {
	return &Assembler{catalog: c, palette: palette, rng: rng}
}

// Assemble clones a sample building for the era implied by progress. If
// that era has no samples it falls back to any sample. It returns nil when
// there is nothing to build; the caller skips the slot.
func (a *Assembler) Assemble(progress float64) *Building {
	pool := a.catalog.Parts(EraFor(progress).bucket())
	if len(pool) == 0 {
		pool = a.catalog.Samples()
	}
	if len(pool) == 0 {
		if a.Stacked {
			return a.AssembleStack(progress)
		}
		return nil
	}
	p := pool[a.rng.Intn(len(pool))]
	era := EraHouse
	if Classify(p.Name) == BucketTower {
		era = EraTower
	}
	n := p.Node.Clone()
	a.finish(n)
	return &Building{Node: n, Model: p.Name, Era: era}
}

// AssembleStack builds ground floor, middle floors and a roof from the
// modular kit. Towers get more floors.
func (a *Assembler) AssembleStack(progress float64) *Building {
	ground := a.pickAny(BucketGroundOnly, BucketGroundOrMiddle)
	roof := a.catalog.Pick(a.rng, BucketRoof)
	if ground == nil || roof == nil {
		return nil
	}
	era := EraFor(progress)
	floors := 1 + a.rng.Intn(2)
	if era == EraTower {
		floors = 4 + a.rng.Intn(5)
	}

	root := scene.NewGroup("stacked")
	var y float32
	stack := func(part *scene.Node) {
		c := part.Clone()
		c.Transform.Position = mgl32.Vec3{0, y, 0}
		root.Add(c)
		h := c.WorldBounds().Size().Y()
		if h <= 0 {
			h = 1
		}
		y += h
	}
	stack(ground)
	for i := 0; i < floors; i++ {
		mid := a.pickAny(BucketMiddleOnly, BucketGroundOrMiddle)
		if mid == nil {
			break
		}
		stack(mid)
	}
	stack(roof)
	a.finish(root)
	return &Building{Node: root, Model: "stacked", Era: era}
}

func (a *Assembler) pickAny(buckets ...Bucket) *scene.Node {
	var pool []assets.Part
	for _, b := range buckets {
		pool = append(pool, a.catalog.Parts(b)...)
	}
	if len(pool) == 0 {
		return nil
	}
	return pool[a.rng.Intn(len(pool))].Node
}

func (a *Assembler) finish(n *scene.Node) {
	assets.ApplyFallback(n, a.palette)
	n.Transform.Scale = n.Transform.Scale.Mul(BuildingScale)
	scene.WalkMeshes(n, func(m *scene.Node) {
		m.CastShadow = true
		m.ReceiveShadow = true
	})
}

// faceRoad turns a model that faces +z towards the road centre.
func faceRoad(n *scene.Node, side Side) {
	angle := float32(mgl32.DegToRad(90))
	if side == SideRight {
		angle = -angle
	}
	n.Transform.Rotation = mgl32.QuatRotate(angle, mgl32.Vec3{0, 1, 0})
}

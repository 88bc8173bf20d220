// Package scenery builds and streams the roadside of the driving mode:
// buildings, fences, paths, trees, lightposts, benches and the boardwalk.
//
// The host calls Initialize once, Update once per frame and Dispose once
// at teardown. Nothing here runs on its own except the deferred teardown.
package scenery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"roadside/internal/assets"
	"roadside/internal/scene"
)

var (
	ErrNoScene     = errors.New("scenery: nil scene")
	ErrNoSource    = errors.New("scenery: nil asset source")
	ErrDisposed    = errors.New("scenery: manager disposed")
	ErrInitialized = errors.New("scenery: already initialized")
)

// ScrollSource reports the total distance the camera has travelled.
type ScrollSource interface {
	Distance() float64
}

// Odometer is a ScrollSource the host advances every frame.
type Odometer struct {
	d float64
}

func (o *Odometer) Advance(speed float64) { o.d += speed }
func (o *Odometer) Distance() float64     { return o.d }

// World is the host state the scenery reads: where to put nodes, how far
// the road has scrolled and how far the player has progressed.
type World struct {
	Scene    *scene.Scene
	Scroll   ScrollSource
	Progress float64
}

type Option func(*Manager)

func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		m.log = l
	}
}

func WithScheduler(s Scheduler) Option {
	return func(m *Manager) { m.sched = s }
}

func WithSeed(seed uint64) Option {
	return func(m *Manager) { m.rng = NewRand(seed) }
}

type Manager struct {
	mu sync.Mutex

	tuning Tuning
	src    assets.Source
	log    *log.Logger
	sched  Scheduler
	rng    *Rand

	world     World
	catalog   *Catalog
	assembler *Assembler
	streamer  *Streamer
	loop      float64
	stripZ0   float64 // initial depth of the front of the modulo strip
	fenceLen  float64
	exhausted []int

	lots  map[*Instance]*lot
	owner map[*Instance]*lot // path and fence instances to their lot

	teardown     teardown
	disposed     bool
	staleUpdates int
}

// lot ties a building to the path and fences laid out for it, so they can
// be laid again when the building is swapped.
type lot struct {
	building *Instance
	path     *Instance
	fences   []*Instance
	fenced   bool
}

func NewManager(t Tuning, src assets.Source, opts ...Option) *Manager {
	m := &Manager{
		tuning: t,
		src:    src,
		log:    log.New(os.Stderr, "scenery: ", log.LstdFlags),
		sched:  wallClock{},
		rng:    NewRand(1),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Initialize loads the assets, waits for the whole batch and builds the
// scenery into sc. Missing assets only thin the scenery out.
func (m *Manager) Initialize(ctx context.Context, sc *scene.Scene, scroll ScrollSource, progress float64) error {
	if sc == nil {
		return ErrNoScene
	}
	if m.src == nil {
		return ErrNoSource
	}
	if err := m.tuning.Validate(); err != nil {
		return fmt.Errorf("scenery: %w", err)
	}
	if scroll == nil {
		scroll = &Odometer{}
	}

	loader := assets.NewLoader(m.src, m.log)
	parts := loader.LoadAll(ctx, m.tuning.Assets.Models)
	palette := loader.LoadPalette(ctx, m.tuning.Assets.Palette)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return ErrDisposed
	}
	if m.streamer != nil {
		return ErrInitialized
	}

	m.world = World{Scene: sc, Scroll: scroll, Progress: clampProgress(progress)}
	m.catalog = NewCatalog(assets.Loaded(parts, palette), m.log)
	m.assembler = NewAssembler(m.catalog, palette, m.rng)
	m.assembler.Stacked = m.tuning.StackedFallback
	m.streamer = NewStreamer(m.log, m.tuning.LogSampleEvery)
	m.streamer.OnWrap = m.refreshBuilding
	m.streamer.setScrolled(scroll.Distance())
	m.lots = make(map[*Instance]*lot)
	m.owner = make(map[*Instance]*lot)

	placed := m.placeBuildings()
	m.placeTrees(placed)
	m.fitLoop()
	if n := m.clearDecor(); n > 0 {
		m.log.Printf("dropped %d decor pieces overlapping a building", n)
	}
	m.placeSchedule(CategoryLightpost, m.tuning.Lightposts, m.catalog.Pick(m.rng, BucketLightpost), false)
	m.placeSchedule(CategoryBench, m.tuning.Benches, m.catalog.Pick(m.rng, BucketBench), true)
	m.placeSchedule(CategoryBoardwalk, m.tuning.Boardwalk, boardwalkTile(m.tuning.Boardwalk.Spacing), false)

	m.log.Printf("initialized %d instances (%s), building loop %.1f", m.streamer.Len(), m.summary(), m.loop)
	return nil
}

// Update moves the scenery by one frame. Before Initialize it does
// nothing; after Dispose it does nothing and returns ErrDisposed.
func (m *Manager) Update(progress, speed float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		if m.staleUpdates == 0 {
			m.log.Printf("warn: update after dispose ignored")
		}
		m.staleUpdates++
		return ErrDisposed
	}
	if m.streamer == nil {
		return nil
	}
	m.world.Progress = clampProgress(progress)
	m.streamer.Step(m.world.Scroll.Distance(), speed)
	return nil
}

// Dispose drops the part caches at once and schedules removal of every
// tracked node after the dispose delay, leaving time for a fade out.
// Calling it again before the teardown ran restarts the delay.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposed = true
	if m.catalog != nil {
		m.catalog.Reset()
	}
	if m.streamer != nil {
		m.teardown.pending = append(m.teardown.pending, m.streamer.Release()...)
	}
	m.lots, m.owner = nil, nil
	m.teardown.schedule(m.sched, m.tuning.DisposeDelay, m.finishDispose)
}

func (m *Manager) finishDispose(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.teardown.gen {
		return
	}
	n := m.teardown.release(m.world.Scene)
	m.log.Printf("disposed %d instances", n)
}

// Done is closed once the deferred teardown has run. It stays open until
// Dispose has been called and its delay has passed.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teardown.wait()
}

// Instances returns a snapshot of the tracked list.
func (m *Manager) Instances() []*Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.streamer == nil {
		return nil
	}
	return append([]*Instance(nil), m.streamer.Instances()...)
}

// Exhausted lists buildings placed without meeting the spacing rule.
func (m *Manager) Exhausted() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.exhausted...)
}

func (m *Manager) LoopDistance() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loop
}

func (m *Manager) moduloSpec(c Category) Spec {
	vis := m.tuning.BuildingVisible
	return Spec{Category: c, Strategy: StrategyModulo, VisibleDistance: vis, LoopDistance: m.loop}
}

func (m *Manager) track(n *scene.Node, inst *Instance) {
	inst.Node = n
	m.world.Scene.Add(n)
	m.streamer.Track(inst)
}

func (m *Manager) placeBuildings() []placedBuilding {
	plan := PlanBuildings(m.rng, m.tuning, m.log)
	m.loop = plan.LoopDistance
	m.exhausted = plan.Exhausted

	m.fenceLen = DefaultFenceLen
	if f := m.catalog.Pick(m.rng, BucketFence); f != nil {
		if w := f.WorldBounds().Size().X(); w > 0 {
			m.fenceLen = float64(w)
		}
	}

	placed := make([]placedBuilding, 0, len(plan.Buildings))
	skipped := 0
	for _, p := range plan.Buildings {
		b := m.assembler.Assemble(m.world.Progress)
		if b == nil {
			skipped++
			continue
		}
		faceRoad(b.Node, p.Side)
		inst := &Instance{
			InitialZ:  p.Z,
			InitialX:  p.X,
			Spec:      m.moduloSpec(CategoryBuilding),
			Footprint: footprintAt(b.Node, p.X, p.Z),
			Model:     b.Model,
			Era:       b.Era,
			Side:      p.Side,
		}
		m.track(b.Node, inst)

		l := &lot{building: inst, fenced: m.rng.Chance(FenceChance)}
		m.lots[inst] = l
		m.layDecor(l)
		placed = append(placed, placedBuilding{Side: p.Side, Footprint: inst.Footprint})
	}
	if skipped > 0 {
		m.log.Printf("warn: no building models available, skipped %d of %d slots", skipped, len(plan.Buildings))
	}
	return placed
}

// layDecor puts down the path and, for fenced lots, the fence run that
// belong to the lot's building.
func (m *Manager) layDecor(l *lot) {
	b := l.building
	if x, length, ok := pathLayout(b.Side, b.Footprint); ok {
		z := (b.Footprint.Z0 + b.Footprint.Z1) / 2
		n := scene.NewSlab("path", mgl32.Vec3{float32(length), PathHeight, PathWidth}, pathColor)
		l.path = m.trackDecor(l, n, x, z, CategoryPath)
	}
	if !l.fenced {
		return
	}
	fence := m.catalog.Pick(m.rng, BucketFence)
	if fence == nil {
		return
	}
	gate := m.catalog.Pick(m.rng, BucketGate)
	if gate == nil {
		gate = fence
	}
	for _, piece := range fenceLayout(m.rng, b.Side, b.Footprint, m.fenceLen) {
		src := fence
		if piece.Gate {
			src = gate
		}
		l.fences = append(l.fences, m.trackDecor(l, src.Clone(), piece.X, piece.Z, CategoryFence))
	}
}

func (m *Manager) trackDecor(l *lot, n *scene.Node, x, z float64, c Category) *Instance {
	inst := &Instance{InitialZ: z, InitialX: x, Spec: m.moduloSpec(c), Footprint: footprintAt(n, x, z)}
	m.track(n, inst)
	if l != nil {
		m.owner[inst] = l
	}
	return inst
}

// drop takes a decor instance out of the scene and the tracked list.
// Path slabs own their geometry; clones share it with the catalog.
func (m *Manager) drop(inst *Instance) {
	m.world.Scene.Remove(inst.Node)
	m.streamer.Untrack(inst)
	if inst.Spec.Category == CategoryPath {
		disposeTree(inst.Node)
	}
	if l := m.owner[inst]; l != nil {
		if l.path == inst {
			l.path = nil
		}
		l.fences = slices.DeleteFunc(l.fences, func(f *Instance) bool { return f == inst })
		delete(m.owner, inst)
	}
}

func (m *Manager) clearLot(l *lot) {
	if l.path != nil {
		m.drop(l.path)
	}
	for _, f := range slices.Clone(l.fences) {
		m.drop(f)
	}
}

// clearDecor drops every path, fence and tree that a building stands on,
// or that pokes out of the strip and would meet its own wrapped copy.
// Trees keep the tree clearance from buildings.
func (m *Manager) clearDecor() int {
	var (
		blocks []RectF
		decor  []*Instance
	)
	for _, inst := range m.streamer.Instances() {
		if inst.dropped {
			continue
		}
		switch inst.Spec.Category {
		case CategoryBuilding:
			blocks = append(blocks, inst.Footprint)
		case CategoryPath, CategoryFence, CategoryTree:
			decor = append(decor, inst)
		}
	}
	n := 0
	for _, d := range decor {
		clearance := 0.0
		if d.Spec.Category == CategoryTree {
			clearance = m.tuning.TreeClearance
		}
		if m.inStrip(d.Footprint) && !overlapsAny(d.Footprint, blocks, clearance) {
			continue
		}
		m.drop(d)
		n++
	}
	return n
}

func overlapsAny(r RectF, blocks []RectF, clearance float64) bool {
	for _, b := range blocks {
		if r.Intersects(b.Expand(clearance)) {
			return true
		}
	}
	return false
}

func (m *Manager) inStrip(r RectF) bool {
	return r.Z0 >= m.stripZ0 && r.Z1 <= m.stripZ0+m.loop-LoopMargin
}

// fitLoop stretches the building loop until the whole modulo strip, decor
// included, fits inside it with LoopMargin to spare. Two instances then
// only ever meet if they overlap at their initial depths.
func (m *Manager) fitLoop() {
	var mod []*Instance
	for _, inst := range m.streamer.Instances() {
		if inst.Spec.Strategy == StrategyModulo {
			mod = append(mod, inst)
		}
	}
	if len(mod) == 0 {
		return
	}
	strip := mod[0].Footprint
	for _, inst := range mod[1:] {
		strip = strip.Union(inst.Footprint)
	}
	m.stripZ0 = strip.Z0
	need := strip.Depth() + LoopMargin
	if need <= m.loop {
		return
	}
	m.log.Printf("building loop %.1f stretched to %.1f to hold the strip", m.loop, need)
	m.loop = need
	for _, inst := range mod {
		inst.Spec.LoopDistance = m.loop
		m.streamer.Place(inst)
	}
}

func (m *Manager) placeTrees(placed []placedBuilding) {
	if m.tuning.Trees == 0 || len(placed) == 0 {
		return
	}
	if m.catalog.Len(BucketTree) == 0 {
		m.log.Printf("warn: no tree models loaded, skipping foliage")
		return
	}
	skipped := 0
	for i := 0; i < m.tuning.Trees; i++ {
		b := placed[m.rng.Intn(len(placed))]
		x, z, ok := treeSpot(m.rng, b, placed, m.tuning)
		if !ok {
			skipped++
			continue
		}
		n := m.catalog.Pick(m.rng, BucketTree).Clone()
		n.Transform.Rotation = mgl32.QuatRotate(float32(m.rng.RangeF(0, 6.28)), mgl32.Vec3{0, 1, 0})
		m.trackDecor(nil, n, x, z, CategoryTree)
	}
	if skipped > 0 {
		m.log.Printf("%d of %d trees found no clearance", skipped, m.tuning.Trees)
	}
}

// placeSchedule lays count copies of model down both sides of the road at
// fixed spacing.
func (m *Manager) placeSchedule(c Category, s Schedule, model *scene.Node, faceIn bool) {
	if s.Count == 0 {
		return
	}
	if model == nil {
		m.log.Printf("warn: no %s model loaded, %ss disabled", c, c)
		return
	}
	spec := Spec{
		Category:        c,
		Strategy:        StrategyDirect,
		VisibleDistance: s.Visible,
		LoopDistance:    s.LoopSpan(),
		RepositionZ:     s.RepositionZ,
	}
	for _, side := range []Side{SideLeft, SideRight} {
		for i := 0; i < s.Count; i++ {
			n := model.Clone()
			if faceIn {
				faceRoad(n, side)
			}
			m.track(n, &Instance{
				InitialZ: -float64(i) * s.Spacing,
				InitialX: float64(side) * s.X,
				Spec:     spec,
				Side:     side,
			})
		}
	}
}

// refreshBuilding swaps a building that just looped behind the camera for
// one of the current era, if it is from the other era. The new building
// must fit the strip and stay off its neighbours, otherwise the old one
// stays. Its path and fences are laid again for the new footprint.
func (m *Manager) refreshBuilding(inst *Instance) {
	if inst.Spec.Category != CategoryBuilding {
		return
	}
	era := EraFor(m.world.Progress)
	if inst.Era == era || m.catalog.Len(era.bucket()) == 0 {
		return
	}
	b := m.assembler.Assemble(m.world.Progress)
	if b == nil {
		return
	}
	faceRoad(b.Node, inst.Side)
	fp := footprintAt(b.Node, inst.InitialX, inst.InitialZ)
	if !m.inStrip(fp) || m.crowds(inst, fp) {
		if m.streamer.sample.hit() {
			m.log.Printf("keeping %s at x=%.1f, %s does not fit its lot", inst.Model, inst.InitialX, b.Model)
		}
		return
	}
	m.world.Scene.Remove(inst.Node)
	m.world.Scene.Add(b.Node)
	inst.Node = b.Node
	inst.Model = b.Model
	inst.Era = b.Era
	inst.Footprint = fp

	if l := m.lots[inst]; l != nil {
		m.clearLot(l)
		m.layDecor(l)
	}
	m.clearDecor()
}

// crowds reports whether fp would overlap any building other than inst.
func (m *Manager) crowds(inst *Instance, fp RectF) bool {
	for _, o := range m.streamer.Instances() {
		if o != inst && !o.dropped && o.Spec.Category == CategoryBuilding && fp.Intersects(o.Footprint) {
			return true
		}
	}
	return false
}

func (m *Manager) summary() string {
	counts := make(map[Category]int)
	for _, inst := range m.streamer.Instances() {
		counts[inst.Spec.Category]++
	}
	s := ""
	for c := CategoryBuilding; c <= CategoryBoardwalk; c++ {
		if s != "" {
			s += " "
		}
		s += fmt.Sprintf("%s=%d", c, counts[c])
	}
	return s
}

var (
	pathColor      = mgl32.Vec3{0.62, 0.60, 0.56}
	boardwalkColor = mgl32.Vec3{0.55, 0.40, 0.26}
)

func boardwalkTile(length float64) *scene.Node {
	return scene.NewSlab("boardwalk", mgl32.Vec3{BoardwalkWidth, BoardwalkHeight, float32(length)}, boardwalkColor)
}

func clampProgress(p float64) float64 {
	if p < 0 || math.IsNaN(p) {
		return 0
	}
	if p > MaxProgress {
		return MaxProgress
	}
	return p
}

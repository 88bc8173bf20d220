package scenery

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"testing"

	"roadside/internal/scene"
)

func newTestManager(t *testing.T, tun Tuning, models map[string]*scene.Node, palette *scene.Texture) (*Manager, *scene.Scene, *Odometer, *fakeScheduler) {
	t.Helper()
	tun.Assets.Models = slices.Sorted(maps.Keys(models))
	logger, _ := testLogger()
	sched := &fakeScheduler{}
	m := NewManager(tun, memSource{models: models, palette: palette},
		WithLogger(logger), WithScheduler(sched), WithSeed(7))
	return m, scene.New(), &Odometer{}, sched
}

var (
	houseSamples = []string{"models/house-a.glb", "models/house-b.glb", "models/house-c.glb", "models/house-d.glb"}
	towerSamples = []string{"models/tower-a.glb", "models/tower-b.glb", "models/tower-c.glb"}
)

func buildings(insts []*Instance) []*Instance {
	var out []*Instance
	for _, in := range insts {
		if in.Spec.Category == CategoryBuilding {
			out = append(out, in)
		}
	}
	return out
}

func assertTrackedMatchesScene(t *testing.T, sc *scene.Scene, insts []*Instance) {
	t.Helper()
	if sc.Len() != len(insts) {
		t.Fatalf("scene has %d nodes, tracked list %d", sc.Len(), len(insts))
	}
	seen := make(map[*scene.Node]bool, len(insts))
	for _, in := range insts {
		if !sc.Contains(in.Node) {
			t.Fatalf("%s node not in scene", in.Spec.Category)
		}
		if seen[in.Node] {
			t.Fatalf("%s node tracked twice", in.Spec.Category)
		}
		seen[in.Node] = true
	}
}

func TestInitializeBuildsHouseEra(t *testing.T) {
	models := roadsideModels(slices.Concat(houseSamples, towerSamples)...)
	m, sc, odo, _ := newTestManager(t, DefaultTuning(), models, scene.NewTexture("palette", nil))
	if err := m.Initialize(context.Background(), sc, odo, 10); err != nil {
		t.Fatal(err)
	}

	bs := buildings(m.Instances())
	if len(bs) != 20 {
		t.Fatalf("%d buildings, want 20", len(bs))
	}
	for i, b := range bs {
		if Classify(b.Model) != BucketHouse || b.Era != EraHouse {
			t.Errorf("building %d is %s", i, b.Model)
		}
		if b.Side != sideFor(i) {
			t.Errorf("building %d on %s, want %s", i, b.Side, sideFor(i))
		}
	}
	if bs[0].Side != SideLeft {
		t.Fatal("first building must be on the left")
	}
	assertTrackedMatchesScene(t, sc, m.Instances())

	counts := map[Category]int{}
	for _, in := range m.Instances() {
		counts[in.Spec.Category]++
	}
	tun := DefaultTuning()
	if counts[CategoryLightpost] != 2*tun.Lightposts.Count || counts[CategoryBench] != 2*tun.Benches.Count ||
		counts[CategoryBoardwalk] != 2*tun.Boardwalk.Count {
		t.Fatalf("schedule counts %v", counts)
	}
	if counts[CategoryPath] == 0 || counts[CategoryTree] == 0 {
		t.Fatalf("no paths or trees: %v", counts)
	}
}

func TestUpdateKeepsInvariants(t *testing.T) {
	models := roadsideModels(houseSamples...)
	m, sc, odo, _ := newTestManager(t, DefaultTuning(), models, nil)
	if err := m.Initialize(context.Background(), sc, odo, 0); err != nil {
		t.Fatal(err)
	}
	loop := m.LoopDistance()
	for i := 0; i < 2000; i++ {
		speed := 0.9
		if i > 1500 {
			speed = -1.3
		}
		odo.Advance(speed)
		m.Update(float64(i)/20, speed)
		for _, in := range m.Instances() {
			z := float64(in.Node.Transform.Position.Z())
			if in.Node.Visible != (abs(z) <= in.Spec.VisibleDistance) {
				t.Fatalf("tick %d: %s visible=%v at z=%g", i, in.Spec.Category, in.Node.Visible, z)
			}
			if in.Spec.Strategy == StrategyModulo && (z > 0 || z <= -loop) {
				t.Fatalf("tick %d: %s at z=%g outside (-%g, 0]", i, in.Spec.Category, z, loop)
			}
		}
	}
	assertTrackedMatchesScene(t, sc, m.Instances())
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// assertDecorClear checks, in world space, that no path, fence or tree
// stands on a building.
func assertDecorClear(t *testing.T, insts []*Instance) {
	t.Helper()
	var blocks []RectF
	for _, in := range buildings(insts) {
		blocks = append(blocks, footprint(in.Node))
	}
	for _, in := range insts {
		switch in.Spec.Category {
		case CategoryPath, CategoryFence, CategoryTree:
		default:
			continue
		}
		fp := footprint(in.Node)
		for _, b := range blocks {
			if fp.Intersects(b) {
				t.Fatalf("%s at %+v overlaps building at %+v", in.Spec.Category, fp, b)
			}
		}
	}
}

func TestEraRefreshOnWrap(t *testing.T) {
	models := roadsideModels(slices.Concat(houseSamples, towerSamples)...)
	m, sc, odo, _ := newTestManager(t, DefaultTuning(), models, nil)
	if err := m.Initialize(context.Background(), sc, odo, 10); err != nil {
		t.Fatal(err)
	}
	before := map[*scene.Node]bool{}
	for _, b := range buildings(m.Instances()) {
		before[b.Node] = true
	}

	// Past the building loop every building has wrapped at least once.
	odo.Advance(m.LoopDistance() + 1)
	m.Update(80, 0)

	for i, b := range buildings(m.Instances()) {
		if b.Era != EraTower || Classify(b.Model) != BucketTower {
			t.Errorf("building %d still %s after wrap", i, b.Model)
		}
		if before[b.Node] {
			t.Errorf("building %d kept its old node", i)
		}
		if b.Node.Transform.Position.X() != float32(b.InitialX) {
			t.Errorf("building %d moved sideways", i)
		}
	}
	assertTrackedMatchesScene(t, sc, m.Instances())
	assertDecorClear(t, m.Instances())
}

func TestRefreshToLargerBuildingsKeepsDecorClear(t *testing.T) {
	models := roadsideModels("models/house-a.glb")
	models["models/tower-a.glb"] = boxModel("tower", 3, 6, 3)
	m, sc, odo, _ := newTestManager(t, DefaultTuning(), models, nil)
	if err := m.Initialize(context.Background(), sc, odo, 10); err != nil {
		t.Fatal(err)
	}
	assertDecorClear(t, m.Instances())

	odo.Advance(m.LoopDistance() + 1)
	if err := m.Update(80, 0); err != nil {
		t.Fatal(err)
	}
	assertTrackedMatchesScene(t, sc, m.Instances())
	assertDecorClear(t, m.Instances())

	// Keep driving through a few more loops.
	for i := 0; i < 600; i++ {
		odo.Advance(1.5)
		m.Update(80, 1.5)
	}
	assertTrackedMatchesScene(t, sc, m.Instances())
	assertDecorClear(t, m.Instances())

	loop := m.LoopDistance()
	for _, in := range m.Instances() {
		if in.Spec.Strategy == StrategyModulo && in.Spec.LoopDistance != loop {
			t.Fatalf("%s loops at %g, want %g", in.Spec.Category, in.Spec.LoopDistance, loop)
		}
	}
}

func TestInitialDecorClearsOversizedBuildings(t *testing.T) {
	models := roadsideModels()
	models["models/house-a.glb"] = boxModel("house", 3, 2, 3)
	m, sc, odo, _ := newTestManager(t, DefaultTuning(), models, nil)
	if err := m.Initialize(context.Background(), sc, odo, 0); err != nil {
		t.Fatal(err)
	}
	assertTrackedMatchesScene(t, sc, m.Instances())
	assertDecorClear(t, m.Instances())
	for i := 0; i < 400; i++ {
		odo.Advance(1)
		m.Update(0, 1)
	}
	assertDecorClear(t, m.Instances())
}

func TestDisposeIsDeferred(t *testing.T) {
	models := roadsideModels(houseSamples...)
	m, sc, odo, sched := newTestManager(t, DefaultTuning(), models, nil)
	if err := m.Initialize(context.Background(), sc, odo, 0); err != nil {
		t.Fatal(err)
	}
	tracked := m.Instances()
	n := sc.Len()

	m.Dispose()
	if sc.Len() != n {
		t.Fatal("nodes removed before the delay")
	}
	if len(m.Instances()) != 0 {
		t.Fatal("tracked list not handed to the teardown")
	}
	if len(sched.timers) != 1 || sched.timers[0].d != DefaultTuning().DisposeDelay {
		t.Fatalf("timers %+v", sched.timers)
	}
	select {
	case <-m.Done():
		t.Fatal("done before teardown")
	default:
	}

	if sched.fire() != 1 {
		t.Fatal("teardown did not run")
	}
	if sc.Len() != 0 {
		t.Fatalf("%d nodes left after teardown", sc.Len())
	}
	for _, in := range tracked {
		if sc.Contains(in.Node) {
			t.Fatalf("%s still in scene", in.Spec.Category)
		}
		scene.WalkMeshes(in.Node, func(mesh *scene.Node) {
			if !mesh.Geometry.Disposed() || !mesh.Material.Disposed() {
				t.Fatalf("%s mesh resources not disposed", in.Spec.Category)
			}
		})
	}
	<-m.Done()
}

func TestDisposeTwiceReschedules(t *testing.T) {
	models := roadsideModels(houseSamples...)
	m, sc, odo, sched := newTestManager(t, DefaultTuning(), models, nil)
	if err := m.Initialize(context.Background(), sc, odo, 0); err != nil {
		t.Fatal(err)
	}
	n := sc.Len()
	m.Dispose()
	m.Dispose()
	if len(sched.timers) != 2 || !sched.timers[0].stopped {
		t.Fatal("second dispose did not cancel the first timer")
	}

	// A callback that lost the race with Stop must not tear down early.
	sched.timers[0].f()
	if sc.Len() != n {
		t.Fatal("stale callback removed nodes")
	}

	if sched.fire() != 1 || sc.Len() != 0 {
		t.Fatalf("after teardown %d nodes remain", sc.Len())
	}
}

func TestUpdateAfterDisposeIsNoop(t *testing.T) {
	models := roadsideModels(houseSamples...)
	m, sc, odo, _ := newTestManager(t, DefaultTuning(), models, nil)
	if err := m.Initialize(context.Background(), sc, odo, 0); err != nil {
		t.Fatal(err)
	}
	tracked := m.Instances()
	z := tracked[0].Node.Transform.Position.Z()
	m.Dispose()
	odo.Advance(50)
	if err := m.Update(0, 50); !errors.Is(err, ErrDisposed) {
		t.Fatalf("update after dispose: %v", err)
	}
	if tracked[0].Node.Transform.Position.Z() != z {
		t.Fatal("update moved a disposed instance")
	}
	if err := m.Initialize(context.Background(), sc, odo, 0); !errors.Is(err, ErrDisposed) {
		t.Fatalf("initialize after dispose: %v", err)
	}
}

func TestUpdateAfterDisposeWarnsOnce(t *testing.T) {
	logger, buf := testLogger()
	m := NewManager(DefaultTuning(), memSource{}, WithLogger(logger), WithScheduler(&fakeScheduler{}))
	if err := m.Update(0, 1); err != nil {
		t.Fatalf("update before initialize: %v", err)
	}
	m.Dispose()
	for i := 0; i < 3; i++ {
		if err := m.Update(0, 1); !errors.Is(err, ErrDisposed) {
			t.Fatalf("update %d after dispose: %v", i, err)
		}
	}
	if n := strings.Count(buf.String(), "update after dispose"); n != 1 {
		t.Fatalf("warned %d times:\n%s", n, buf.String())
	}
}

func TestDoneFollowsTeardown(t *testing.T) {
	models := roadsideModels(houseSamples...)
	m, sc, odo, sched := newTestManager(t, DefaultTuning(), models, nil)
	done := m.Done()
	select {
	case <-done:
		t.Fatal("done closed before dispose")
	default:
	}
	if err := m.Initialize(context.Background(), sc, odo, 0); err != nil {
		t.Fatal(err)
	}

	m.Dispose()
	if m.Done() != done {
		t.Fatal("dispose replaced a pending done channel")
	}
	sched.fire()
	<-done

	// A late second Dispose starts a fresh teardown instead of closing
	// the old channel again.
	m.Dispose()
	again := m.Done()
	select {
	case <-again:
		t.Fatal("second teardown done before its delay")
	default:
	}
	if sched.fire() != 1 {
		t.Fatal("second teardown did not run")
	}
	<-again
	<-done
}

func TestInitializeErrors(t *testing.T) {
	models := roadsideModels(houseSamples...)
	m, sc, odo, _ := newTestManager(t, DefaultTuning(), models, nil)
	if err := m.Initialize(context.Background(), nil, odo, 0); !errors.Is(err, ErrNoScene) {
		t.Fatalf("nil scene: %v", err)
	}
	nosrc := NewManager(DefaultTuning(), nil, WithScheduler(&fakeScheduler{}))
	if err := nosrc.Initialize(context.Background(), scene.New(), nil, 0); !errors.Is(err, ErrNoSource) {
		t.Fatalf("nil source: %v", err)
	}
	if err := m.Initialize(context.Background(), sc, odo, 0); err != nil {
		t.Fatal(err)
	}
	if err := m.Initialize(context.Background(), sc, odo, 0); !errors.Is(err, ErrInitialized) {
		t.Fatalf("second initialize: %v", err)
	}

	bad := DefaultTuning()
	bad.PlacementRetries = 0
	m2, sc2, _, _ := newTestManager(t, bad, models, nil)
	if err := m2.Initialize(context.Background(), sc2, nil, 0); err == nil || !strings.Contains(err.Error(), "placement_retries") {
		t.Fatalf("invalid tuning: %v", err)
	}
}

func TestInitializeWithoutSamplesSkipsBuildings(t *testing.T) {
	models := roadsideModels()
	tun := DefaultTuning()
	logger, buf := testLogger()
	tun.Assets.Models = slices.Sorted(maps.Keys(models))
	m := NewManager(tun, memSource{models: models}, WithLogger(logger), WithScheduler(&fakeScheduler{}))
	sc := scene.New()
	if err := m.Initialize(context.Background(), sc, nil, 0); err != nil {
		t.Fatal(err)
	}
	if n := len(buildings(m.Instances())); n != 0 {
		t.Fatalf("%d buildings without samples", n)
	}
	if !strings.Contains(buf.String(), "skipped 20 of 20 slots") {
		t.Fatalf("missing skip warning:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "continuing untextured") {
		t.Fatalf("missing palette warning:\n%s", buf.String())
	}
	assertTrackedMatchesScene(t, sc, m.Instances())
}

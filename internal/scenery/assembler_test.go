package scenery

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"roadside/internal/scene"
)

func newTestAssembler(palette *scene.Texture, names ...string) *Assembler {
	logger, _ := testLogger()
	return NewAssembler(NewCatalog(parts(names...), logger), palette, NewRand(11))
}

func TestAssembleFallsBackToOtherEra(t *testing.T) {
	a := newTestAssembler(nil, "tower-a.glb")
	b := a.Assemble(0)
	if b == nil {
		t.Fatal("expected a tower fallback, got nil")
	}
	if b.Model != "tower-a.glb" || b.Era != EraTower {
		t.Fatalf("got %s (%s), want tower-a.glb", b.Model, b.Era)
	}
}

func TestAssembleEmptyPoolReturnsNil(t *testing.T) {
	a := newTestAssembler(nil, "roof-flat.glb", "ground-door.glb")
	if b := a.Assemble(10); b != nil {
		t.Fatalf("expected nil, got %s", b.Model)
	}
	if b := a.Assemble(90); b != nil {
		t.Fatalf("expected nil, got %s", b.Model)
	}
}

func TestAssembleSelectsEraByProgress(t *testing.T) {
	a := newTestAssembler(nil, "house-a.glb", "house-b.glb", "tower-a.glb", "tower-b.glb")
	tests := []struct {
		progress float64
		want     Era
	}{
		{0, EraHouse},
		{10, EraHouse},
		{49.99, EraHouse},
		{50, EraTower},
		{100, EraTower},
	}
	for _, tt := range tests {
		for i := 0; i < 20; i++ {
			b := a.Assemble(tt.progress)
			if b == nil || b.Era != tt.want || Classify(b.Model) != tt.want.bucket() {
				t.Fatalf("progress %g: got %+v, want %s", tt.progress, b, tt.want)
			}
		}
	}
}

func TestAssembleFinishesTheClone(t *testing.T) {
	palette := scene.NewTexture("palette", nil)
	a := newTestAssembler(palette, "house-a.glb")
	template := a.catalog.Parts(BucketHouse)[0].Node

	b := a.Assemble(0)
	if b.Node == template {
		t.Fatal("assemble returned the shared template")
	}
	if b.Node.Transform.Scale != (mgl32.Vec3{BuildingScale, BuildingScale, BuildingScale}) {
		t.Fatalf("scale = %v", b.Node.Transform.Scale)
	}
	meshes := 0
	scene.WalkMeshes(b.Node, func(m *scene.Node) {
		meshes++
		if !m.CastShadow || !m.ReceiveShadow {
			t.Errorf("mesh %s shadows cast=%v receive=%v", m.Name, m.CastShadow, m.ReceiveShadow)
		}
		if m.Material.Map != palette {
			t.Errorf("mesh %s not textured with the palette", m.Name)
		}
	})
	if meshes == 0 {
		t.Fatal("no meshes in assembled building")
	}
	if template.Transform.Scale != (mgl32.Vec3{1, 1, 1}) {
		t.Fatal("template was scaled")
	}
}

func TestAssembleStack(t *testing.T) {
	a := newTestAssembler(nil, "ground-door.glb", "wall-window.glb", "floor-columns.glb", "roof-flat.glb")
	if b := a.Assemble(10); b != nil {
		t.Fatal("stacked assembly must be opt-in")
	}
	a.Stacked = true

	house := a.Assemble(10)
	if house == nil || house.Model != "stacked" || house.Era != EraHouse {
		t.Fatalf("got %+v", house)
	}
	// Ground + 1..2 floors + roof, each one unit high before scaling.
	if n := len(house.Node.Children()); n < 3 || n > 4 {
		t.Fatalf("house has %d storeys", n)
	}

	tower := a.Assemble(80)
	if n := len(tower.Node.Children()); n < 6 || n > 10 {
		t.Fatalf("tower has %d storeys", n)
	}
	top := tower.Node.Children()[len(tower.Node.Children())-1]
	if got := top.Transform.Position.Y(); got != float32(len(tower.Node.Children())-1) {
		t.Fatalf("roof sits at y=%g", got)
	}

	a2 := newTestAssembler(nil, "ground-door.glb")
	a2.Stacked = true
	if b := a2.Assemble(10); b != nil {
		t.Fatal("no roof parts should mean no stacked building")
	}
}

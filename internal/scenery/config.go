package scenery

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Fixed rules of the roadside layout.
const (
	// Progress at or above this switches the building pool to towers.
	TowerEraProgress = 50.0
	MaxProgress      = 100.0

	// Chance that a building gets a fence-with-gate run beside it.
	FenceChance = 0.3

	// Sample building models are authored at roughly 1/8 scale.
	BuildingScale = 8.0
)

// Road cross-section (x is lateral, road centred on x=0).
const (
	RoadHalfWidth  = 5.0
	BoardwalkX     = 7.5 // centre line of each boardwalk
	BoardwalkWidth = 3.0
	BoardwalkEdge  = BoardwalkX + BoardwalkWidth/2 // outer edge, facing the buildings
)

// Decor sizes used when a model has no usable bounds.
const (
	DefaultFootprint = 6.0
	DefaultFenceLen  = 2.0
	TreeRadius       = 1.2
	PathWidth        = 1.4
	PathHeight       = 0.05
	PathInset        = 0.1 // gap left between a path and its building
	BoardwalkHeight  = 0.15

	// Depth kept free between the back of the building strip and the front
	// of its wrapped copy.
	LoopMargin = 1.0
)

// Schedule places count copies every spacing units of depth per side.
type Schedule struct {
	Count       int     `yaml:"count"`
	Spacing     float64 `yaml:"spacing"`
	X           float64 `yaml:"x"`            // lateral distance from the road centre
	Visible     float64 `yaml:"visible"`      // visibility radius
	RepositionZ float64 `yaml:"reposition_z"` // wrap threshold behind the camera
}

// LoopSpan is the depth one full schedule covers.
func (s Schedule) LoopSpan() float64 {
	return float64(s.Count) * s.Spacing
}

type AssetList struct {
	Models  []string `yaml:"models"`
	Palette string   `yaml:"palette"`
}

type Tuning struct {
	Buildings        int        `yaml:"buildings"`
	SideOffset       [2]float64 `yaml:"side_offset"` // min/max |x| of a building centre
	DepthStep        [2]float64 `yaml:"depth_step"`  // min/max depth increment between buildings
	MinBuildingGap   float64    `yaml:"min_building_gap"`
	PlacementRetries int        `yaml:"placement_retries"`
	BuildingVisible  float64    `yaml:"building_visible"`

	Trees         int     `yaml:"trees"`
	TreeClearance float64 `yaml:"tree_clearance"`
	TreeAttempts  int     `yaml:"tree_attempts"`

	Lightposts Schedule `yaml:"lightposts"`
	Benches    Schedule `yaml:"benches"`
	Boardwalk  Schedule `yaml:"boardwalk"`

	// StackedFallback builds modular buildings when no sample model loaded.
	StackedFallback bool `yaml:"stacked_fallback"`

	DisposeDelay   time.Duration `yaml:"dispose_delay"`
	LogSampleEvery int           `yaml:"log_sample_every"`

	Assets AssetList `yaml:"assets"`
}

func DefaultTuning() Tuning {
	return Tuning{
		Buildings:        20,
		SideOffset:       [2]float64{16, 22},
		DepthStep:        [2]float64{9, 16},
		MinBuildingGap:   18,
		PlacementRetries: 5,
		BuildingVisible:  180,

		Trees:         24,
		TreeClearance: 1.0,
		TreeAttempts:  6,

		Lightposts: Schedule{Count: 12, Spacing: 20, X: 5.6, Visible: 160, RepositionZ: 10},
		Benches:    Schedule{Count: 6, Spacing: 40, X: 8.6, Visible: 140, RepositionZ: 10},
		Boardwalk:  Schedule{Count: 40, Spacing: 6, X: BoardwalkX, Visible: 200, RepositionZ: 3},

		DisposeDelay:   600 * time.Millisecond,
		LogSampleEvery: 64,

		Assets: AssetList{
			Models:  DefaultModels,
			Palette: "textures/palette.png",
		},
	}
}

// DefaultModels is the versioned asset set shipped with the game.
var DefaultModels = []string{
	"models/house-a.glb", "models/house-b.glb", "models/house-c.glb", "models/house-d.glb",
	"models/tower-a.glb", "models/tower-b.glb", "models/tower-c.glb",
	"models/ground-door.glb", "models/ground-shop.glb",
	"models/wall-window.glb", "models/wall-plain.glb",
	"models/floor-columns.glb", "models/floor-window-wide.glb",
	"models/roof-flat.glb", "models/roof-gable.glb",
	"models/fence.glb", "models/fence-gate.glb",
	"models/lightpost.glb", "models/bench.glb",
	"models/tree-oak.glb", "models/tree-pine.glb",
}

// LoadTuning reads a YAML file over the defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	var errs []error
	if t.Buildings < 0 {
		errs = append(errs, errors.New("buildings must be >= 0"))
	}
	if t.SideOffset[0] <= BoardwalkEdge || t.SideOffset[1] < t.SideOffset[0] {
		errs = append(errs, fmt.Errorf("side_offset %v must start beyond the boardwalk edge %.1f", t.SideOffset, BoardwalkEdge))
	}
	if t.DepthStep[0] <= 0 || t.DepthStep[1] < t.DepthStep[0] {
		errs = append(errs, fmt.Errorf("depth_step %v must be positive and ordered", t.DepthStep))
	}
	if t.PlacementRetries < 1 {
		errs = append(errs, errors.New("placement_retries must be >= 1"))
	}
	if t.TreeAttempts < 0 || t.Trees < 0 {
		errs = append(errs, errors.New("trees and tree_attempts must be >= 0"))
	}
	for _, s := range []struct {
		name string
		s    Schedule
	}{{"lightposts", t.Lightposts}, {"benches", t.Benches}, {"boardwalk", t.Boardwalk}} {
		if s.s.Count < 0 {
			errs = append(errs, fmt.Errorf("%s.count must be >= 0", s.name))
		}
		if s.s.Count > 0 && s.s.Spacing <= 0 {
			errs = append(errs, fmt.Errorf("%s.spacing must be > 0", s.name))
		}
		// Every copy must start inside (reposition_z - span, reposition_z].
		if s.s.Count > 0 && (s.s.RepositionZ < 0 || s.s.RepositionZ >= s.s.Spacing) {
			errs = append(errs, fmt.Errorf("%s.reposition_z must be in [0, spacing)", s.name))
		}
	}
	if t.DisposeDelay < 0 {
		errs = append(errs, errors.New("dispose_delay must be >= 0"))
	}
	return errors.Join(errs...)
}

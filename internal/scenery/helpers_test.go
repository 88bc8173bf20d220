package scenery

import (
	"bytes"
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"roadside/internal/assets"
	"roadside/internal/scene"
)

type memSource struct {
	models  map[string]*scene.Node
	palette *scene.Texture
}

func (s memSource) LoadModel(_ context.Context, name string) (*scene.Node, error) {
	if n, ok := s.models[name]; ok {
		return n, nil
	}
	return nil, errors.New("no such model")
}

func (s memSource) LoadTexture(_ context.Context, name string) (*scene.Texture, error) {
	if s.palette == nil {
		return nil, errors.New("no such texture")
	}
	return s.palette, nil
}

// boxModel is a one-mesh model of the given size resting on the ground.
func boxModel(name string, w, h, d float32) *scene.Node {
	g := scene.NewGroup(name)
	g.Add(scene.NewSlab(name+"/mesh", mgl32.Vec3{w, h, d}, mgl32.Vec3{0.7, 0.7, 0.7}))
	return g
}

func parts(names ...string) []assets.Part {
	out := make([]assets.Part, 0, len(names))
	for _, n := range names {
		out = append(out, assets.Part{Name: n, Node: boxModel(n, 1, 1, 1)})
	}
	return out
}

func testLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.New(&buf, "", 0), &buf
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type fakeScheduler struct {
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// fire runs every armed timer, as if the delay had elapsed.
func (s *fakeScheduler) fire() int {
	n := 0
	for _, t := range s.timers {
		if t.stopped || t.fired {
			continue
		}
		t.fired = true
		t.f()
		n++
	}
	return n
}

// roadsideModels builds the default asset set with the given sample
// buildings.
func roadsideModels(samples ...string) map[string]*scene.Node {
	m := map[string]*scene.Node{
		"models/fence.glb":      boxModel("fence", 2, 1, 0.1),
		"models/fence-gate.glb": boxModel("gate", 2, 1.2, 0.1),
		"models/lightpost.glb":  boxModel("lightpost", 0.2, 4, 0.2),
		"models/bench.glb":      boxModel("bench", 1.5, 0.6, 0.5),
		"models/tree-oak.glb":   boxModel("tree", 1, 3, 1),
	}
	for _, s := range samples {
		m[s] = boxModel(s, 1, 1, 1)
	}
	return m
}

package scenery

import (
	"time"

	"roadside/internal/scene"
)

// Timer is a pending scheduled task.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// teardown is the deferred half of Dispose. It holds every instance that
// was tracked when Dispose ran until the delay has passed.
type teardown struct {
	pending []*Instance
	timer   Timer
	gen     uint64
	done    chan struct{}
	closed  bool
}

// wait returns the channel closed by the next release.
func (td *teardown) wait() chan struct{} {
	if td.done == nil {
		td.done = make(chan struct{})
	}
	return td.done
}

// schedule cancels any previous timer and arms a new one. The pending set
// is kept, so a second Dispose only pushes the teardown back. run receives
// the generation it was armed with; a callback whose generation is stale
// must do nothing.
func (td *teardown) schedule(s Scheduler, d time.Duration, run func(gen uint64)) {
	if td.timer != nil {
		td.timer.Stop()
	}
	if td.closed {
		td.done, td.closed = nil, false
	}
	td.wait()
	td.gen++
	gen := td.gen
	td.timer = s.AfterFunc(d, func() { run(gen) })
}

// release removes every pending node from the scene and frees its
// geometry, materials and texture maps.
func (td *teardown) release(sc *scene.Scene) int {
	n := 0
	for _, inst := range td.pending {
		if inst.Node == nil {
			continue
		}
		if sc != nil {
			sc.Remove(inst.Node)
		} else if p := inst.Node.Parent(); p != nil {
			p.Remove(inst.Node)
		}
		disposeTree(inst.Node)
		n++
	}
	td.pending = nil
	td.timer = nil
	if !td.closed {
		close(td.wait())
		td.closed = true
	}
	return n
}

func disposeTree(n *scene.Node) {
	scene.WalkMeshes(n, func(m *scene.Node) {
		if m.Geometry != nil {
			m.Geometry.Dispose()
		}
		if m.Material != nil {
			if m.Material.Map != nil {
				m.Material.Map.Dispose()
			}
			m.Material.Dispose()
		}
	})
}

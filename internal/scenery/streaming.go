package scenery

import (
	"io"
	"log"
	"math"
	"slices"
)

// sampler lets one event in every through; every <= 0 silences it.
type sampler struct {
	every int
	n     int
}

func (s *sampler) hit() bool {
	s.n++
	return s.every > 0 && (s.n-1)%s.every == 0
}

// Streamer owns the tracked instance list and moves it every frame.
type Streamer struct {
	instances []*Instance
	log       *log.Logger
	sample    sampler

	// OnWrap is called when a modulo instance starts a new loop cycle.
	OnWrap func(*Instance)

	recycled int
	scrolled float64 // last finite distance passed to Step
	stepping bool
	dropped  int
}

func NewStreamer(logger *log.Logger, sampleEvery int) *Streamer {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Streamer{log: logger, sample: sampler{every: sampleEvery}}
}

// Track adds inst and places it for the current scroll distance.
func (s *Streamer) Track(inst *Instance) {
	s.Place(inst)
	s.instances = append(s.instances, inst)
}

// Place moves inst to where it belongs at the current scroll distance.
// Call it after changing InitialX, InitialZ or the loop distance.
func (s *Streamer) Place(inst *Instance) {
	inst.z = inst.InitialZ
	if inst.Spec.Strategy == StrategyModulo {
		total := inst.InitialZ + s.scrolled
		inst.z = wrapDepth(total, inst.Spec.LoopDistance)
		inst.cycle = loopCycle(total, inst.Spec.LoopDistance)
	}
	zf := settle(inst)
	inst.visible = visibleAt(zf, inst.Spec.VisibleDistance)
	s.apply(inst, zf)
}

// Untrack stops moving inst. While Step runs the list is compacted once
// the frame is done.
func (s *Streamer) Untrack(inst *Instance) {
	if inst.dropped {
		return
	}
	inst.dropped = true
	s.dropped++
	if !s.stepping {
		s.compact()
	}
}

// setScrolled records the scroll distance new instances are placed at.
// Non-finite distances count as zero.
func (s *Streamer) setScrolled(d float64) {
	s.scrolled = d
	if math.IsNaN(d) || math.IsInf(d, 0) {
		s.scrolled = 0
	}
}

func (s *Streamer) compact() {
	s.instances = slices.DeleteFunc(s.instances, func(i *Instance) bool { return i.dropped })
	s.dropped = 0
}

func (s *Streamer) Instances() []*Instance { return s.instances }

func (s *Streamer) Len() int { return len(s.instances) }

// Recycled counts direct-update wraps since the streamer was created.
func (s *Streamer) Recycled() int { return s.recycled }

// Release hands back the tracked list and forgets it.
func (s *Streamer) Release() []*Instance {
	out := s.instances
	s.instances = nil
	return out
}

// Step advances every instance by one frame. scrolled is the total
// distance travelled so far, speed the distance covered this frame.
func (s *Streamer) Step(scrolled, speed float64) {
	s.setScrolled(scrolled)
	s.stepping = true
	for _, inst := range s.instances {
		if inst.dropped {
			continue
		}
		switch inst.Spec.Strategy {
		case StrategyDirect:
			s.stepDirect(inst, speed)
		case StrategyModulo:
			s.stepModulo(inst)
		}
		zf := settle(inst)
		s.updateVisibility(inst, zf)
		s.apply(inst, zf)
	}
	s.stepping = false
	if s.dropped > 0 {
		s.compact()
	}
}

func (s *Streamer) stepDirect(inst *Instance, speed float64) {
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return
	}
	inst.z += speed
	span := inst.Spec.LoopDistance
	if span <= 0 {
		return
	}
	if over := inst.z - inst.Spec.RepositionZ; over > 0 {
		inst.z -= math.Ceil(over/span) * span
		s.recycled++
		if s.sample.hit() {
			s.log.Printf("recycle %s at x=%.1f -> z=%.1f", inst.Spec.Category, inst.InitialX, inst.z)
		}
	}
	// Reverse travel wraps the other way.
	if under := inst.Spec.RepositionZ - span - inst.z; under >= 0 {
		inst.z += (math.Floor(under/span) + 1) * span
	}
}

func (s *Streamer) stepModulo(inst *Instance) {
	total := inst.InitialZ + s.scrolled
	if math.IsNaN(total) || math.IsInf(total, 0) {
		total = inst.InitialZ
	}
	inst.z = wrapDepth(total, inst.Spec.LoopDistance)
	c := loopCycle(total, inst.Spec.LoopDistance)
	if c != inst.cycle {
		inst.cycle = c
		if s.sample.hit() {
			s.log.Printf("loop %s %s at x=%.1f -> z=%.1f", inst.Spec.Category, inst.Model, inst.InitialX, inst.z)
		}
		if s.OnWrap != nil {
			s.OnWrap(inst)
		}
	}
}

// settle rounds the depth to the precision the scene stores. A modulo
// depth that rounds onto -loop is the same point as 0.
func settle(inst *Instance) float32 {
	zf := float32(inst.z)
	if inst.Spec.Strategy == StrategyModulo && float64(zf) <= -inst.Spec.LoopDistance {
		zf = 0
	}
	return zf
}

func visibleAt(zf float32, distance float64) bool {
	return math.Abs(float64(zf)) <= distance
}

func (s *Streamer) updateVisibility(inst *Instance, zf float32) {
	v := visibleAt(zf, inst.Spec.VisibleDistance)
	if v != inst.visible {
		inst.visible = v
		if s.sample.hit() {
			s.log.Printf("%s at x=%.1f visible=%v (z=%.1f)", inst.Spec.Category, inst.InitialX, v, zf)
		}
	}
}

func (s *Streamer) apply(inst *Instance, zf float32) {
	if inst.Node == nil {
		return
	}
	inst.Node.Transform.Position[0] = float32(inst.InitialX)
	inst.Node.Transform.Position[2] = zf
	inst.Node.Visible = inst.visible
}

// wrapDepth reduces z into (-loop, 0].
func wrapDepth(z, loop float64) float64 {
	if loop <= 0 || math.IsNaN(z) || math.IsInf(z, 0) {
		return 0
	}
	r := math.Mod(z, loop)
	if r > 0 {
		r -= loop
	}
	// Rounding can land exactly on -loop, which is the same point as 0.
	if r <= -loop || r == 0 {
		return 0
	}
	return r
}

// loopCycle is the k for which z - k*loop lies in (-loop, 0].
func loopCycle(z, loop float64) float64 {
	if loop <= 0 || math.IsNaN(z) || math.IsInf(z, 0) {
		return 0
	}
	return math.Ceil(z / loop)
}

package scenery

import (
	"log"
	"math"
)

type Side int8

const (
	SideLeft  Side = -1
	SideRight Side = 1
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// sideFor alternates sides, starting on the left.
func sideFor(i int) Side {
	if i%2 == 0 {
		return SideLeft
	}
	return SideRight
}

// BuildingPlacement is the transient record used to keep buildings on the
// same side apart. It is dropped once the scenery is built.
type BuildingPlacement struct {
	X, Z float64
	Side Side
}

type Plan struct {
	Buildings []BuildingPlacement
	// Exhausted lists building indices whose spacing could not be met
	// within the retry budget. Their last candidate was used anyway.
	Exhausted []int
	// LoopDistance is the depth after which the building strip repeats.
	LoopDistance float64
}

// PlanBuildings lays out t.Buildings slots down the road. Depth decreases
// with every building; each candidate depth is retried until it clears
// every earlier building on the same side by t.MinBuildingGap.
func PlanBuildings(r *Rand, t Tuning, logger *log.Logger) Plan {
	plan := Plan{Buildings: make([]BuildingPlacement, 0, t.Buildings)}
	lastZ := 0.0
	for i := 0; i < t.Buildings; i++ {
		side := sideFor(i)
		x := float64(side) * r.RangeF(t.SideOffset[0], t.SideOffset[1])

		var z float64
		ok := false
		for attempt := 0; attempt < t.PlacementRetries; attempt++ {
			z = lastZ - r.RangeF(t.DepthStep[0], t.DepthStep[1])
			if clearOfSide(plan.Buildings, side, z, t.MinBuildingGap) {
				ok = true
				break
			}
		}
		if !ok {
			logger.Printf("warn: building %d (%s): no slot %.1f clear of its neighbours after %d tries, placing at z=%.1f",
				i, side, t.MinBuildingGap, t.PlacementRetries, z)
			plan.Exhausted = append(plan.Exhausted, i)
		}
		lastZ = z
		plan.Buildings = append(plan.Buildings, BuildingPlacement{X: x, Z: z, Side: side})
	}
	plan.LoopDistance = -lastZ + t.DepthStep[1]
	return plan
}

func clearOfSide(placed []BuildingPlacement, side Side, z, gap float64) bool {
	for _, p := range placed {
		if p.Side == side && math.Abs(p.Z-z) < gap {
			return false
		}
	}
	return true
}

// pathLayout returns the centre and length of the path running from the
// boardwalk edge to PathInset short of a building's road-facing edge. ok
// is false when there is no room for it.
func pathLayout(side Side, fp RectF) (x, length float64, ok bool) {
	front := fp.X0
	if side == SideLeft {
		front = fp.X1
	}
	edge := float64(side) * BoardwalkEdge
	d := (front-edge)*float64(side) - PathInset
	if d <= 0 {
		return 0, 0, false
	}
	return edge + float64(side)*d/2, d, true
}

type fencePiece struct {
	X, Z float64
	Gate bool
}

// fenceLayout lines fence segments up perpendicular to the road, starting
// with a gate at the boardwalk edge and running past the back of the
// building. The run sits just beside the building on a random end.
func fenceLayout(r *Rand, side Side, fp RectF, segLen float64) []fencePiece {
	if segLen <= 0 {
		segLen = DefaultFenceLen
	}
	back := fp.X0
	if side == SideRight {
		back = fp.X1
	}
	edge := float64(side) * BoardwalkEdge
	span := (back - edge) * float64(side)
	if span <= 0 {
		return nil
	}
	z := fp.Z1 + segLen/4
	if r.Chance(0.5) {
		z = fp.Z0 - segLen/4
	}
	n := int(math.Ceil(span / segLen))
	out := make([]fencePiece, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fencePiece{
			X:    edge + float64(side)*(float64(i)+0.5)*segLen,
			Z:    z,
			Gate: i == 0,
		})
	}
	return out
}

type placedBuilding struct {
	Side      Side
	Footprint RectF
}

// treeSpot tries to find room for a tree next to b, clear of every
// building footprint and of the boardwalk.
func treeSpot(r *Rand, b placedBuilding, all []placedBuilding, t Tuning) (x, z float64, ok bool) {
	fp := b.Footprint
	reach := t.TreeClearance + TreeRadius
	for attempt := 0; attempt < t.TreeAttempts; attempt++ {
		if r.Chance(0.5) {
			// Beside the building, along the road.
			x = r.RangeF(fp.X0, fp.X1)
			gap := reach + r.RangeF(0, 3)
			if r.Chance(0.5) {
				z = fp.Z0 - gap
			} else {
				z = fp.Z1 + gap
			}
		} else {
			// Behind it, away from the road.
			back := fp.X0
			if b.Side == SideRight {
				back = fp.X1
			}
			x = back + float64(b.Side)*(reach+r.RangeF(0, 4))
			z = r.RangeF(fp.Z0, fp.Z1)
		}
		if treeFits(x, z, all, t.TreeClearance) {
			return x, z, true
		}
	}
	return 0, 0, false
}

func treeFits(x, z float64, all []placedBuilding, clearance float64) bool {
	if math.Abs(x)-TreeRadius < BoardwalkEdge+clearance {
		return false
	}
	tree := rectAround(x, z, TreeRadius, TreeRadius)
	for _, b := range all {
		if tree.Intersects(b.Footprint.Expand(clearance)) {
			return false
		}
	}
	return true
}

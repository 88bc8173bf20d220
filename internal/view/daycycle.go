package view

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	DayCyclePeriod = 120.0 // seconds of drive time per full day/night cycle
	SunAmbientMin  = 0.38  // midnight ambient floor
	SunAmbientMax  = 1.00  // noon ambient
)

// Light is the frame's sun: ambient level, colour tint and the direction
// light travels in.
type Light struct {
	Ambient float32
	Tint    mgl32.Vec3
	Dir     mgl32.Vec3
}

// SunCycle computes the sun for a point in the day cycle.
func SunCycle(gameTime float64) Light {
	phase := math.Mod(gameTime, DayCyclePeriod) / DayCyclePeriod
	if phase < 0 {
		phase++
	}
	sunHeight := math.Sin(phase * 2 * math.Pi) // -1 (midnight) to 1 (noon)

	mid := (SunAmbientMin + SunAmbientMax) * 0.5
	amp := (SunAmbientMax - SunAmbientMin) * 0.5
	l := Light{Ambient: float32(mid + amp*sunHeight)}

	// Warm tint near the horizon.
	horizon := 1.0 - math.Abs(sunHeight)
	warmth := horizon * horizon * 0.35
	r := 1.0 + warmth*0.4
	g := 1.0 - warmth*0.15
	b := 1.0 - warmth*0.5

	// Slight blue at night.
	if sunHeight < -0.3 {
		night := (-sunHeight - 0.3) / 0.7
		r -= night * 0.07
		g -= night * 0.035
		b += night * 0.10
	}
	l.Tint = mgl32.Vec3{float32(r), float32(g), float32(b)}

	// Sweeps east to west; never quite horizontal so shadows stay finite.
	angle := phase * 2 * math.Pi
	y := math.Max(math.Abs(sunHeight), 0.25)
	l.Dir = mgl32.Vec3{float32(-math.Cos(angle)), float32(-y), -0.3}.Normalize()
	return l
}

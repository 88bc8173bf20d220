// Package view turns the scene graph into what the renderer needs: camera
// matrices, sun light and a flat list of boxes to draw.
package view

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"roadside/internal/scenery"
)

const (
	BaseFOV  = 60.0 // degrees, at rest
	MaxFOV   = 74.0 // degrees, at top speed
	TopSpeed = 3.0  // world units per frame that maps to MaxFOV
	Near     = 0.3
	Far      = 400.0
)

var up = mgl32.Vec3{0, 1, 0}

// Camera is a chase camera riding behind the car on the road centre line.
// The road scrolls towards it; the camera itself never moves in z.
type Camera struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	FOV    float64 // degrees

	bob float64 // phase of the suspension bob

	// Screen shake.
	ShakeX, ShakeY float64
	ShakeTimer     float64
	ShakeIntensity float64
}

func NewChase() Camera {
	return Camera{
		Eye:    mgl32.Vec3{0, 3.2, 9},
		Target: mgl32.Vec3{0, 1.4, -30},
		FOV:    BaseFOV,
	}
}

// Follow eases the field of view towards the one implied by speed and
// advances the bob.
func (c *Camera) Follow(speed, dt float64) {
	s := math.Min(math.Abs(speed)/TopSpeed, 1)
	want := BaseFOV + (MaxFOV-BaseFOV)*s
	k := 1 - math.Exp(-4*dt)
	c.FOV += (want - c.FOV) * k
	c.bob += dt * (2 + 10*s)
}

// AddShake triggers screen shake with given intensity and duration.
func (c *Camera) AddShake(intensity, duration float64) {
	if intensity > c.ShakeIntensity {
		c.ShakeIntensity = intensity
	}
	if duration > c.ShakeTimer {
		c.ShakeTimer = duration
	}
}

// UpdateShake decays shake and computes random offsets.
func (c *Camera) UpdateShake(dt float64, seed uint64) {
	if c.ShakeTimer <= 0 {
		c.ShakeX = 0
		c.ShakeY = 0
		c.ShakeIntensity = 0
		return
	}
	c.ShakeTimer -= dt
	if c.ShakeTimer < 0 {
		c.ShakeTimer = 0
	}
	t := c.ShakeTimer
	rr := scenery.NewRand(seed ^ uint64(t*10000))
	mag := c.ShakeIntensity * (t / (t + 0.08))
	c.ShakeX = rr.RangeF(-mag, mag)
	c.ShakeY = rr.RangeF(-mag, mag)
}

// EffectiveEye returns the eye with bob and shake applied.
func (c Camera) EffectiveEye() mgl32.Vec3 {
	bob := 0.04 * math.Sin(c.bob)
	return c.Eye.Add(mgl32.Vec3{float32(c.ShakeX), float32(bob + c.ShakeY), 0})
}

func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.EffectiveEye(), c.Target, up)
}

func (c Camera) Projection(fbW, fbH int) mgl32.Mat4 {
	aspect := float32(1)
	if fbH > 0 {
		aspect = float32(fbW) / float32(fbH)
	}
	return mgl32.Perspective(mgl32.DegToRad(float32(c.FOV)), aspect, Near, Far)
}

func (c Camera) ViewProj(fbW, fbH int) mgl32.Mat4 {
	return c.Projection(fbW, fbH).Mul4(c.View())
}

package audio

import (
	"math"
)

// humReader is an endless stream of engine noise: a detuned saw pair at
// the firing frequency, one octave down, plus a little filtered rumble.
type humReader struct {
	speed func() float64

	t     float64
	phase float64
	seed  uint64
	lp    float64 // lowpass state for the rumble
	hz    float64 // smoothed frequency
}

func newHum(speed func() float64) *humReader {
	return &humReader{speed: speed, seed: 0x5eed, hz: idleHz}
}

func (h *humReader) Read(p []byte) (int, error) {
	samples := len(p) / 8
	if samples == 0 {
		return 0, nil
	}
	want := targetHz(h.speed())
	dt := 1.0 / SampleRate
	for i := 0; i < samples; i++ {
		// Glide towards the new note so speed changes don't click.
		h.hz += (want - h.hz) * 0.0008
		h.phase += h.hz * dt
		if h.phase >= 1 {
			h.phase -= math.Floor(h.phase)
		}
		h.t += dt

		saw := 2*h.phase - 1
		detune := 2*math.Mod(h.phase*1.007, 1) - 1
		sub := math.Sin(math.Pi * h.phase)
		h.lp += (lcg(&h.seed) - h.lp) * 0.02

		s := 0.35*saw + 0.25*detune + 0.3*sub + 0.4*h.lp
		putStereoF32(p, i, softSat(s*0.8))
	}
	return samples * 8, nil
}

// targetHz maps speed to the engine note.
func targetHz(speed float64) float64 {
	s := math.Abs(speed)
	if math.IsNaN(s) {
		s = 0
	}
	if s > maxSpeed {
		s = maxSpeed
	}
	return idleHz + revHz*s
}

// putStereoF32 writes a [-1,1] sample as float32 LE to both stereo channels at frame i.
func putStereoF32(buf []byte, i int, sample float64) {
	v := math.Float32bits(float32(sample))
	buf[i*8] = byte(v)
	buf[i*8+1] = byte(v >> 8)
	buf[i*8+2] = byte(v >> 16)
	buf[i*8+3] = byte(v >> 24)
	buf[i*8+4] = byte(v)
	buf[i*8+5] = byte(v >> 8)
	buf[i*8+6] = byte(v >> 16)
	buf[i*8+7] = byte(v >> 24)
}

// softSat applies gentle tanh-like saturation, no harsh clipping.
func softSat(x float64) float64 {
	if x > 1.0 {
		return 1.0 - 0.5/(x)
	}
	if x < -1.0 {
		return -1.0 + 0.5/(-x)
	}
	return x - x*x*x/3.0
}

// lcg advances an LCG seed and returns a noise sample in [-1,1].
func lcg(seed *uint64) float64 {
	*seed = *seed*6364136223846793005 + 1442695040888963407
	return float64(int64(*seed>>33)-int64(1<<30)) / float64(1<<30)
}

// Package audio plays a procedural engine hum whose pitch follows the
// car's speed.
package audio

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/hajimehoshi/oto/v2"
)

const (
	SampleRate   = 44100
	ChannelCount = 2
	BitDepth     = 0 // 32-bit float (oto.FormatFloat32LE)

	idleHz   = 38.0 // engine note at rest
	revHz    = 42.0 // extra Hz per unit of speed
	maxSpeed = 4.0
	volume   = 0.22
)

// Engine owns the audio context and the looping hum player.
type Engine struct {
	ctx    *oto.Context
	ready  chan struct{}
	player oto.Player
	speed  atomic.Uint64 // math.Float64bits
}

// NewEngine opens the audio device. The device becomes usable once Start
// observes the ready signal.
func NewEngine() (*Engine, error) {
	ctx, ready, err := oto.NewContext(SampleRate, ChannelCount, BitDepth)
	if err != nil {
		return nil, err
	}
	return &Engine{ctx: ctx, ready: ready}, nil
}

// Start waits for the device and begins the hum. It returns ctx.Err() if
// ctx ends first.
func (e *Engine) Start(ctx context.Context) error {
	select {
	case <-e.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	p := e.ctx.NewPlayer(newHum(e.Speed))
	p.SetVolume(volume)
	p.Play()
	e.player = p
	return nil
}

// SetSpeed is safe to call from the frame loop while the device reads.
func (e *Engine) SetSpeed(v float64) {
	e.speed.Store(math.Float64bits(v))
}

func (e *Engine) Speed() float64 {
	return math.Float64frombits(e.speed.Load())
}

func (e *Engine) Close() error {
	if e.player == nil {
		return nil
	}
	return e.player.Close()
}

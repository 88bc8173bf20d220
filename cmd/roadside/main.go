// Command roadside drives down an endless road lined with procedurally
// placed scenery.
//
// Up/Down change speed, P pushes progress towards the tower era, Escape
// quits. ROADSIDE_TUNING, ROADSIDE_ASSETS and ROADSIDE_SEED override the
// tuning file, the asset directory and the random seed.
package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"roadside/internal/assets"
	"roadside/internal/audio"
	"roadside/internal/render"
	"roadside/internal/scene"
	"roadside/internal/scenery"
	"roadside/internal/settings"
	"roadside/internal/view"
)

const (
	CruiseSpeed   = 0.8  // world units per 60 Hz frame
	MaxSpeed      = 3.0  // forward limit
	MinSpeed      = -0.6 // reverse limit
	Accel         = 1.2  // speed units per second while a key is held
	ProgressRate  = 0.02 // progress per world unit driven
	ProgressBoost = 10.0 // progress added by P
)

const teardownWait = 3 * time.Second

func main() {
	runtime.LockOSThread()
	logger := log.New(os.Stderr, "roadside: ", log.LstdFlags)
	if err := run(logger); err != nil {
		logger.Fatal(err)
	}
}

func run(logger *log.Logger) error {
	cfg, err := settings.Load()
	if err != nil {
		return err
	}
	tuning := scenery.DefaultTuning()
	if cfg.TuningPath != "" {
		if tuning, err = scenery.LoadTuning(cfg.TuningPath); err != nil {
			return err
		}
	}

	window, err := initWindow()
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)

	eng, err := audio.NewEngine()
	if err != nil {
		logger.Printf("audio init failed (continuing without sound): %v", err)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := eng.Start(ctx); err != nil {
			logger.Printf("audio start: %v", err)
		}
		cancel()
		defer eng.Close()
	}

	rend, err := render.NewRenderer()
	if err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	defer rend.Destroy()

	sc := scene.New()
	odo := &scenery.Odometer{}
	progress := 0.0
	mgr := scenery.NewManager(tuning, assets.DirSource{Root: cfg.AssetRoot},
		scenery.WithLogger(log.New(os.Stderr, "scenery: ", log.LstdFlags)),
		scenery.WithSeed(cfg.Seed),
	)
	logger.Printf("seed %d, assets from %s", cfg.Seed, cfg.AssetRoot)
	if err := mgr.Initialize(context.Background(), sc, odo, progress); err != nil {
		return fmt.Errorf("scenery: %w", err)
	}

	cam := view.NewChase()
	input := NewInput()
	speed := CruiseSpeed
	drive := 0.0 // seconds, drives the day cycle

	last := glfw.GetTime()
	for !window.ShouldClose() {
		now := glfw.GetTime()
		dt := now - last
		last = now
		if dt > 0.1 {
			dt = 0.1
		}

		glfw.PollEvents()
		if window.GetKey(glfw.KeyEscape) == glfw.Press {
			window.SetShouldClose(true)
			continue
		}

		fbW, fbH := window.GetFramebufferSize()
		if fbW <= 0 || fbH <= 0 {
			continue
		}

		prev := speed
		switch {
		case held(window, glfw.KeyUp), held(window, glfw.KeyW):
			speed = math.Min(speed+Accel*dt, MaxSpeed)
		case held(window, glfw.KeyDown), held(window, glfw.KeyS):
			speed = math.Max(speed-Accel*dt, MinSpeed)
		}
		if prev > 1.5 && speed < prev-Accel*dt/2 {
			cam.AddShake(0.05, 0.15)
		}
		if input.JustPressed(window, glfw.KeyP) {
			progress = math.Min(progress+ProgressBoost, scenery.MaxProgress)
			logger.Printf("progress %.0f", progress)
		}

		step := speed * dt * 60
		odo.Advance(step)
		progress = math.Min(progress+math.Abs(step)*ProgressRate, scenery.MaxProgress)
		drive += dt
		mgr.Update(progress, step)
		if eng != nil {
			eng.SetSpeed(speed)
		}

		cam.Follow(speed, dt)
		cam.UpdateShake(dt, cfg.Seed^uint64(drive*1000))
		light := view.SunCycle(drive)
		rend.BeginFrame(cam, light, fbW, fbH)
		rend.DrawGround(scenery.RoadHalfWidth)
		rend.DrawScene(sc, light)

		window.SwapBuffers()
	}

	mgr.Dispose()
	select {
	case <-mgr.Done():
	case <-time.After(teardownWait):
		logger.Printf("scenery teardown still pending after %s", teardownWait)
	}
	return nil
}

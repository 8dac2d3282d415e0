package core

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

const defaultFrameRate = 60

// Run drives app on win until the window closes, ctx is cancelled or a
// frame fails to render. Events are delivered on the calling goroutine
// during PollEvents; rendering happens at most once per tick, and only when
// the scheduler is dirty.
func Run(ctx context.Context, app App, win Window, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	rate := cfg.FrameRate
	if rate <= 0 {
		rate = defaultFrameRate
	}

	eng := &Engine{
		Window:    win,
		Scheduler: NewScheduler(),
		Input:     NewInput(),
		Log:       logger,
		start:     time.Now(),
	}
	eng.Input.SetBounds(win.Bounds())

	closing := false
	win.SetEventCallback(func(ev Event) {
		eng.Input.Handle(ev)
		switch ev.(type) {
		case EventCloseRequested:
			closing = true
		case EventResize:
			eng.Input.SetBounds(win.Bounds())
		}
		app.OnEvent(eng, ev)
	})

	app.OnStart(eng)
	defer app.OnShutdown(eng)
	eng.Scheduler.RequestFrame()

	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for !closing && !win.ShouldClose() {
		select {
		case <-ctx.Done():
			logger.Debug("run loop cancelled", "frames", eng.frames)
			return nil
		case <-ticker.C:
		}

		win.PollEvents()
		if !eng.Scheduler.Take() {
			continue
		}
		frame, err := app.OnRender(eng)
		if err != nil {
			return fmt.Errorf("render frame %d: %w", eng.frames, err)
		}
		if frame != nil {
			win.Present(frame)
			eng.frames++
		}
	}

	logger.Debug("run loop exit", "frames", eng.frames, "uptime", eng.Uptime().Round(time.Millisecond))
	return nil
}

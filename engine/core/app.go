package core

import (
	"image"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hubastard/netcanvas/engine/geometry"
)

// App defines the application hooks driven by Run.
type App interface {
	OnStart(e *Engine)                       // called once before the first frame
	OnEvent(e *Engine, ev Event)             // input/window events
	OnRender(e *Engine) (*image.RGBA, error) // called only when a frame was requested
	OnShutdown(e *Engine)                    // before exit
}

// Engine exposes core services to the App.
type Engine struct {
	Window    Window
	Scheduler *Scheduler
	Input     *Input
	Log       *log.Logger
	frames    int
	start     time.Time
}

func (e *Engine) Uptime() time.Duration { return time.Since(e.start) }

// Frames is the number of frames presented so far.
func (e *Engine) Frames() int { return e.frames }

// Window is a surface that delivers input and shows finished frames.
type Window interface {
	PollEvents()
	Present(frame *image.RGBA)
	ShouldClose() bool
	// ClientSize is the logical size and device pixel ratio of the canvas.
	ClientSize() (w, h int, pixelRatio float64)
	// Bounds is the canvas rectangle in client coordinates.
	Bounds() geometry.Rect
	SetEventCallback(cb func(Event))
}

// Config for the engine run.
type Config struct {
	Title     string
	Width     int
	Height    int
	FrameRate int // ticks per second, 60 when zero
	Logger    *log.Logger
}

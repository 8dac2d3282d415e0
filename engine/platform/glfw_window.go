package platform

import (
	"image"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/hubastard/netcanvas/engine/colors"
	"github.com/hubastard/netcanvas/engine/core"
	"github.com/hubastard/netcanvas/engine/geometry"
	glbackend "github.com/hubastard/netcanvas/engine/gfx/gl"
)

// GLFWWindow implements core.Window on a desktop window. Frames are shown
// through a GL blitter.
type GLFWWindow struct {
	w    *glfw.Window
	blit *glbackend.Blitter
	onEv func(core.Event)
}

type Options struct {
	Config     core.Config
	VSync      bool
	Background colors.Color
}

// NewGLFWWindow must be called on the main thread before any GL calls; it
// locks the calling goroutine to its OS thread.
func NewGLFWWindow(opts Options) (*GLFWWindow, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, err
	}
	cfg := opts.Config

	// GL 3.2+ core profile (Mac requires forward-compatible flag).
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 2)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Samples, 0)
	glfw.WindowHint(glfw.ScaleToMonitor, glfw.True)

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, err
	}
	win.MakeContextCurrent()
	if opts.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Debug("gl context", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	blit, err := glbackend.NewBlitter(opts.Background)
	if err != nil {
		win.Destroy()
		glfw.Terminate()
		return nil, err
	}
	gw := &GLFWWindow{w: win, blit: blit}

	// Callbacks -> translate to core.Event
	win.SetCloseCallback(func(*glfw.Window) { gw.emit(core.EventCloseRequested{}) })
	win.SetSizeCallback(func(*glfw.Window, int, int) { gw.emitResize() })
	win.SetContentScaleCallback(func(*glfw.Window, float32, float32) { gw.emitResize() })
	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		gw.emit(core.EventPointerMove{ClientX: x, ClientY: y})
	})
	win.SetMouseButtonCallback(func(w *glfw.Window, b glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		x, y := w.GetCursorPos()
		btn := translateButton(b)
		switch action {
		case glfw.Press:
			gw.emit(core.EventPointerDown{ClientX: x, ClientY: y, Button: btn})
		case glfw.Release:
			gw.emit(core.EventPointerUp{ClientX: x, ClientY: y, Button: btn})
		}
	})
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		k := translateKey(key)
		if k == core.KeyUnknown || action == glfw.Repeat {
			return
		}
		gw.emit(core.EventKey{Key: k, Down: action == glfw.Press, Mods: translateMods(mods)})
	})
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		// GLFW reports wheel-up as positive; core events use DOM sign.
		if yoff != 0 {
			gw.emit(core.EventWheel{DeltaY: -yoff})
		}
	})
	win.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		if !focused {
			gw.emit(core.EventPointerCancel{})
		}
	})

	return gw, nil
}

func (g *GLFWWindow) emit(ev core.Event) {
	if g.onEv != nil {
		g.onEv(ev)
	}
}

func (g *GLFWWindow) emitResize() {
	w, h, ratio := g.ClientSize()
	g.emit(core.EventResize{W: w, H: h, PixelRatio: ratio})
}

// ClientSize is the window size in screen coordinates with the framebuffer
// to window ratio as the pixel ratio.
func (g *GLFWWindow) ClientSize() (int, int, float64) {
	w, h := g.w.GetSize()
	fw, _ := g.w.GetFramebufferSize()
	ratio := 1.0
	if w > 0 && fw > 0 {
		ratio = float64(fw) / float64(w)
	}
	return w, h, ratio
}

func (g *GLFWWindow) Bounds() geometry.Rect {
	w, h := g.w.GetSize()
	return geometry.Rect{W: float64(w), H: float64(h)}
}

func (g *GLFWWindow) Present(frame *image.RGBA) {
	fw, fh := g.w.GetFramebufferSize()
	g.blit.Draw(frame, fw, fh)
	g.w.SwapBuffers()
}

// Destroy releases GL resources and the window, then terminates GLFW.
func (g *GLFWWindow) Destroy() {
	g.blit.Shutdown()
	g.w.Destroy()
	glfw.Terminate()
}

// core.Window impl
func (g *GLFWWindow) PollEvents()                          { glfw.PollEvents() }
func (g *GLFWWindow) ShouldClose() bool                    { return g.w.ShouldClose() }
func (g *GLFWWindow) SetTitle(t string)                    { g.w.SetTitle(t) }
func (g *GLFWWindow) SetEventCallback(cb func(core.Event)) { g.onEv = cb }

func translateButton(b glfw.MouseButton) core.Button {
	switch b {
	case glfw.MouseButtonRight:
		return core.ButtonSecondary
	case glfw.MouseButtonMiddle:
		return core.ButtonMiddle
	default:
		return core.ButtonPrimary
	}
}

func translateKey(k glfw.Key) core.Key {
	switch k {
	case glfw.KeyEscape:
		return core.KeyEscape
	case glfw.KeyDelete:
		return core.KeyDelete
	default:
		return core.KeyUnknown
	}
}

func translateMods(m glfw.ModifierKey) core.Mod {
	var out core.Mod
	if m&glfw.ModShift != 0 {
		out |= core.ModShift
	}
	if m&glfw.ModControl != 0 {
		out |= core.ModCtrl
	}
	if m&glfw.ModAlt != 0 {
		out |= core.ModAlt
	}
	if m&glfw.ModSuper != 0 {
		out |= core.ModSuper
	}
	return out
}

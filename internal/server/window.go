package server

import (
	"image"
	"math"
	"sync"

	"github.com/hubastard/netcanvas/engine/core"
	"github.com/hubastard/netcanvas/engine/geometry"
)

// Limits on what a client may ask for in a resize message.
const (
	maxCanvas = 8192 // logical pixels per side
	maxRatio  = 4
)

// socketWindow is a core.Window fed by a websocket reader. Events queue up
// between ticks and are replayed on the run loop goroutine in PollEvents.
type socketWindow struct {
	events  chan core.Event
	closed  chan struct{}
	present func(*image.RGBA)
	cb      func(core.Event)

	once   sync.Once
	mu     sync.Mutex
	w, h   int
	ratio  float64
	bounds geometry.Rect
}

func newSocketWindow(w, h int, present func(*image.RGBA)) *socketWindow {
	return &socketWindow{
		events:  make(chan core.Event, 256),
		closed:  make(chan struct{}),
		present: present,
		w:       w,
		h:       h,
		ratio:   1,
		bounds:  geometry.Rect{W: float64(w), H: float64(h)},
	}
}

// deliver routes one client message. It runs on the reader goroutine and
// reports false when the event queue is full.
func (sw *socketWindow) deliver(m Inbound) bool {
	if m.Type == "resize" {
		sw.mu.Lock()
		if m.W > 0 && m.H > 0 {
			sw.w, sw.h = min(m.W, maxCanvas), min(m.H, maxCanvas)
		}
		if m.Ratio > 0 && !math.IsInf(m.Ratio, 0) {
			sw.ratio = min(m.Ratio, maxRatio)
		}
		if m.Bounds != nil {
			sw.bounds = m.Bounds.geometry()
		}
		ev := core.EventResize{W: sw.w, H: sw.h, PixelRatio: sw.ratio}
		sw.mu.Unlock()
		return sw.push(ev)
	}
	if m.Bounds != nil {
		sw.mu.Lock()
		moved := m.Bounds.geometry() != sw.bounds
		sw.bounds = m.Bounds.geometry()
		ev := core.EventResize{W: sw.w, H: sw.h, PixelRatio: sw.ratio}
		sw.mu.Unlock()
		// The run loop refreshes input bounds on resize.
		if moved && !sw.push(ev) {
			return false
		}
	}
	ev, ok := m.Event()
	if !ok {
		return true
	}
	return sw.push(ev)
}

func (sw *socketWindow) push(ev core.Event) bool {
	select {
	case sw.events <- ev:
		return true
	default:
		return false
	}
}

// close marks the window closed; safe to call more than once.
func (sw *socketWindow) close() { sw.once.Do(func() { close(sw.closed) }) }

func (sw *socketWindow) PollEvents() {
	for {
		select {
		case ev := <-sw.events:
			if sw.cb != nil {
				sw.cb(ev)
			}
		default:
			return
		}
	}
}

func (sw *socketWindow) ShouldClose() bool {
	select {
	case <-sw.closed:
		return true
	default:
		return false
	}
}

func (sw *socketWindow) ClientSize() (int, int, float64) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w, sw.h, sw.ratio
}

func (sw *socketWindow) Bounds() geometry.Rect {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.bounds
}

func (sw *socketWindow) Present(frame *image.RGBA)            { sw.present(frame) }
func (sw *socketWindow) SetEventCallback(cb func(core.Event)) { sw.cb = cb }

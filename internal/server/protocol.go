package server

import (
	"bytes"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/hubastard/netcanvas/engine/core"
	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/geometry"
)

// Inbound is one client message. Coordinates are client coordinates; Bounds
// is the canvas bounding rect at the time of the event.
type Inbound struct {
	Type   string  `json:"type"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Button int     `json:"button,omitempty"`
	DeltaY float64 `json:"deltaY,omitempty"`
	Phase  string  `json:"phase,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
	Key    string  `json:"key,omitempty"`
	W      int     `json:"w,omitempty"`
	H      int     `json:"h,omitempty"`
	Ratio  float64 `json:"ratio,omitempty"`
	Bounds *Rect   `json:"bounds,omitempty"`
}

type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) geometry() geometry.Rect { return geometry.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H} }

// Event translates m into a core event. Resize messages are handled by the
// window and report false here, as do unknown types.
func (m Inbound) Event() (core.Event, bool) {
	switch m.Type {
	case "pointerdown":
		return core.EventPointerDown{ClientX: m.X, ClientY: m.Y, Button: core.Button(m.Button)}, true
	case "pointermove":
		return core.EventPointerMove{ClientX: m.X, ClientY: m.Y}, true
	case "pointerup":
		return core.EventPointerUp{ClientX: m.X, ClientY: m.Y, Button: core.Button(m.Button)}, true
	case "pointercancel":
		return core.EventPointerCancel{}, true
	case "wheel":
		return core.EventWheel{DeltaY: m.DeltaY}, true
	case "pinch":
		phase, ok := pinchPhases[strings.ToLower(m.Phase)]
		if !ok {
			return nil, false
		}
		// An omitted scale decodes to zero; it carries no change.
		if phase == core.PinchChange && !(m.Scale > 0) {
			return nil, false
		}
		return core.EventPinch{Phase: phase, Scale: m.Scale}, true
	case "keyup", "keydown":
		k := core.ParseKey(m.Key)
		if k == core.KeyUnknown {
			return nil, false
		}
		return core.EventKey{Key: k, Down: m.Type == "keydown"}, true
	}
	return nil, false
}

var pinchPhases = map[string]core.PinchPhase{
	"begin":  core.PinchBegin,
	"change": core.PinchChange,
	"end":    core.PinchEnd,
	"cancel": core.PinchCancel,
}

// Notice is a text message to the client.
type Notice struct {
	Type     string    `json:"type"` // hello, select, move, drop, delete, reload, error
	Session  string    `json:"session,omitempty"`
	Object   string    `json:"object,omitempty"`
	Target   string    `json:"target,omitempty"`
	Position *Position `json:"position,omitempty"`
	Message  string    `json:"message,omitempty"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func objectName(o diagram.Object) string {
	if o == nil {
		return ""
	}
	return o.String()
}

// encodeFrame encodes a frame as PNG, favoring speed over size.
func encodeFrame(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestSpeed)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

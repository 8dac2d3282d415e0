package core

// Event model. Pointer coordinates are client coordinates; hosts never
// convert them, the App does through ClientToCanvas.
type Event interface{ isEvent() }

type EventCloseRequested struct{}

func (EventCloseRequested) isEvent() {}

// EventResize reports the logical canvas size.
type EventResize struct {
	W, H       int
	PixelRatio float64
}

func (EventResize) isEvent() {}

type EventKey struct {
	Key  Key
	Down bool
	Mods Mod
}

func (EventKey) isEvent() {}

type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
)

type EventPointerDown struct {
	ClientX, ClientY float64
	Button           Button
}

func (EventPointerDown) isEvent() {}

type EventPointerMove struct{ ClientX, ClientY float64 }

func (EventPointerMove) isEvent() {}

type EventPointerUp struct {
	ClientX, ClientY float64
	Button           Button
}

func (EventPointerUp) isEvent() {}

// EventPointerCancel aborts the active drag without committing it.
type EventPointerCancel struct{}

func (EventPointerCancel) isEvent() {}

// EventWheel carries one discrete wheel tick; positive DeltaY scrolls down.
type EventWheel struct{ DeltaY float64 }

func (EventWheel) isEvent() {}

type PinchPhase int

const (
	PinchBegin PinchPhase = iota
	PinchChange
	PinchEnd
	PinchCancel
)

// EventPinch reports a pinch gesture; Scale is relative to the pinch start.
type EventPinch struct {
	Phase PinchPhase
	Scale float64
}

func (EventPinch) isEvent() {}

// Key/mod enums (subset; add as needed).
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyDelete
)

type Mod int

const (
	ModNone  Mod = 0
	ModShift Mod = 1 << 0
	ModCtrl  Mod = 1 << 1
	ModAlt   Mod = 1 << 2
	ModSuper Mod = 1 << 3
)

// ParseKey maps the browser KeyboardEvent.key names used by the web host.
func ParseKey(name string) Key {
	switch name {
	case "Escape":
		return KeyEscape
	case "Delete":
		return KeyDelete
	default:
		return KeyUnknown
	}
}

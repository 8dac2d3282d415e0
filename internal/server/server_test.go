package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/hubastard/netcanvas/engine/core"
	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/geometry"
	"github.com/hubastard/netcanvas/internal/dataset"
)

func testData() *dataset.Dataset {
	return &dataset.Dataset{
		Nodes: []dataset.Node{
			{ID: "A", Icon: "server", X: 0, Y: 0, Slots: dataset.SlotGrid{X: 1, Y: 1, States: []string{"up"}}},
			{ID: "B", Icon: "router", X: 100, Y: 0, Slots: dataset.SlotGrid{X: 1, Y: 1, States: []string{"down"}}},
		},
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New(testData(), Options{FrameRate: 120, Logger: log.New(io.Discard)})
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || body.Status != "ok" || body.Sessions != 0 {
		t.Errorf("health = %d %+v", resp.StatusCode, body)
	}
}

func TestTopology(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/topology")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	d, err := dataset.ParseJSON(raw)
	if err != nil {
		t.Fatalf("parse topology: %v\n%s", err, raw)
	}
	if n, e := d.Len(); n != 2 || e != 0 {
		t.Errorf("topology has %d nodes, %d edges", n, e)
	}
}

func TestIndex(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), `new WebSocket(`) {
		t.Error("index page does not open a websocket")
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("content type = %q", resp.Header.Get("Content-Type"))
	}
}

func TestInboundEvent(t *testing.T) {
	tests := []struct {
		in   Inbound
		want core.Event
		ok   bool
	}{
		{Inbound{Type: "pointerdown", X: 3, Y: 4}, core.EventPointerDown{ClientX: 3, ClientY: 4}, true},
		{Inbound{Type: "pointerdown", Button: 2}, core.EventPointerDown{Button: core.ButtonMiddle}, true},
		{Inbound{Type: "pointermove", X: 1, Y: 2}, core.EventPointerMove{ClientX: 1, ClientY: 2}, true},
		{Inbound{Type: "pointerup", X: 5, Y: 6}, core.EventPointerUp{ClientX: 5, ClientY: 6}, true},
		{Inbound{Type: "pointercancel"}, core.EventPointerCancel{}, true},
		{Inbound{Type: "wheel", DeltaY: -1}, core.EventWheel{DeltaY: -1}, true},
		{Inbound{Type: "pinch", Phase: "Change", Scale: 1.5}, core.EventPinch{Phase: core.PinchChange, Scale: 1.5}, true},
		{Inbound{Type: "pinch", Phase: "twist"}, nil, false},
		{Inbound{Type: "pinch", Phase: "change"}, nil, false},
		{Inbound{Type: "pinch", Phase: "change", Scale: -2}, nil, false},
		{Inbound{Type: "pinch", Phase: "begin"}, core.EventPinch{Phase: core.PinchBegin}, true},
		{Inbound{Type: "pinch", Phase: "end"}, core.EventPinch{Phase: core.PinchEnd}, true},
		{Inbound{Type: "keyup", Key: "Escape"}, core.EventKey{Key: core.KeyEscape}, true},
		{Inbound{Type: "keydown", Key: "Delete"}, core.EventKey{Key: core.KeyDelete, Down: true}, true},
		{Inbound{Type: "keyup", Key: "F1"}, nil, false},
		{Inbound{Type: "resize", W: 10, H: 10}, nil, false},
		{Inbound{Type: "bogus"}, nil, false},
	}
	for _, tt := range tests {
		got, ok := tt.in.Event()
		if ok != tt.ok || got != tt.want {
			t.Errorf("%+v.Event() = %#v, %v; want %#v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCheckOrigin(t *testing.T) {
	s := New(nil, Options{AllowOrigins: []string{"https://ops.example.com"}, Logger: log.New(io.Discard)})
	tests := []struct {
		origin, host string
		want         bool
	}{
		{"", "localhost:8080", true},
		{"http://localhost:8080", "localhost:8080", true},
		{"https://ops.example.com", "localhost:8080", true},
		{"https://evil.example.com", "localhost:8080", false},
		{"::not a url", "localhost:8080", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Host = tt.host
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := s.checkOrigin(r); got != tt.want {
			t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}

	open := New(nil, Options{AllowOrigins: []string{"*"}, Logger: log.New(io.Discard)})
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Origin", "https://anywhere.example.org")
	if !open.checkOrigin(r) {
		t.Error("wildcard origin rejected")
	}
}

func TestSocketWindowDeliver(t *testing.T) {
	var got []core.Event
	sw := newSocketWindow(800, 600, nil)
	sw.SetEventCallback(func(ev core.Event) { got = append(got, ev) })

	b := &Rect{X: 5, Y: 6, W: 400, H: 300}
	sw.deliver(Inbound{Type: "resize", W: 400, H: 300, Ratio: 2, Bounds: b})
	sw.deliver(Inbound{Type: "pointerdown", X: 10, Y: 10, Bounds: b})
	sw.deliver(Inbound{Type: "pointermove", X: 20, Y: 10, Bounds: &Rect{W: 400, H: 300}})
	sw.PollEvents()

	want := []core.Event{
		core.EventResize{W: 400, H: 300, PixelRatio: 2},
		core.EventPointerDown{ClientX: 10, ClientY: 10},
		core.EventResize{W: 400, H: 300, PixelRatio: 2},
		core.EventPointerMove{ClientX: 20, ClientY: 10},
	}
	if len(got) != len(want) {
		t.Fatalf("events = %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %#v, want %#v", i, got[i], want[i])
		}
	}
	if w, h, r := sw.ClientSize(); w != 400 || h != 300 || r != 2 {
		t.Errorf("ClientSize = %d,%d,%v", w, h, r)
	}
	if sw.Bounds() != (geometry.Rect{W: 400, H: 300}) {
		t.Errorf("Bounds = %+v", sw.Bounds())
	}

	if sw.ShouldClose() {
		t.Fatal("closed too early")
	}
	sw.close()
	sw.close()
	if !sw.ShouldClose() {
		t.Error("close did not stick")
	}
}

func TestSocketWindowClampsResize(t *testing.T) {
	tests := []struct {
		name  string
		in    Inbound
		w, h  int
		ratio float64
	}{
		{"oversized", Inbound{Type: "resize", W: 1 << 20, H: 100000, Ratio: 64}, maxCanvas, maxCanvas, maxRatio},
		{"one side", Inbound{Type: "resize", W: 300, H: 9000, Ratio: 1.5}, 300, maxCanvas, 1.5},
		{"infinite ratio", Inbound{Type: "resize", W: 300, H: 200, Ratio: math.Inf(1)}, 300, 200, 1},
		{"nan ratio", Inbound{Type: "resize", W: 300, H: 200, Ratio: math.NaN()}, 300, 200, 1},
		{"negative", Inbound{Type: "resize", W: -5, H: 200, Ratio: -2}, 800, 600, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []core.Event
			sw := newSocketWindow(800, 600, nil)
			sw.SetEventCallback(func(ev core.Event) { got = append(got, ev) })
			sw.deliver(tt.in)
			sw.PollEvents()

			want := core.EventResize{W: tt.w, H: tt.h, PixelRatio: tt.ratio}
			if len(got) != 1 || got[0] != want {
				t.Errorf("events = %#v, want %#v", got, want)
			}
			if w, h, r := sw.ClientSize(); w != tt.w || h != tt.h || r != tt.ratio {
				t.Errorf("ClientSize = %d,%d,%v", w, h, r)
			}
		})
	}
}

func TestSocketWindowQueueFull(t *testing.T) {
	sw := newSocketWindow(10, 10, nil)
	for i := 0; i < cap(sw.events); i++ {
		if !sw.deliver(Inbound{Type: "wheel", DeltaY: 1}) {
			t.Fatalf("queue full after %d events", i)
		}
	}
	if sw.deliver(Inbound{Type: "wheel", DeltaY: 1}) {
		t.Error("deliver into a full queue reported success")
	}
}

// client wraps a websocket connection to a test server.
type client struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, ts *httptest.Server) *client {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return &client{t: t, conn: conn}
}

func (c *client) send(m Inbound) {
	c.t.Helper()
	if err := c.conn.WriteJSON(m); err != nil {
		c.t.Fatal(err)
	}
}

// next reads messages until match accepts one. Text messages are decoded as
// notices, binary ones as PNG frames.
func (c *client) next(match func(n *Notice, frame image.Image) bool) {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			c.t.Fatal(err)
		}
		switch kind {
		case websocket.TextMessage:
			var n Notice
			if err := json.Unmarshal(data, &n); err != nil {
				c.t.Fatal(err)
			}
			if match(&n, nil) {
				return
			}
		case websocket.BinaryMessage:
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				c.t.Fatalf("frame is not a PNG: %v", err)
			}
			if match(nil, img) {
				return
			}
		}
	}
}

func (c *client) notice(typ string) Notice {
	c.t.Helper()
	var got Notice
	c.next(func(n *Notice, _ image.Image) bool {
		if n != nil && n.Type == typ {
			got = *n
			return true
		}
		return false
	})
	return got
}

func (c *client) frame(w, h int) {
	c.t.Helper()
	c.next(func(_ *Notice, img image.Image) bool {
		return img != nil && img.Bounds().Dx() == w && img.Bounds().Dy() == h
	})
}

var canvas = &Rect{W: 200, H: 100}

func TestSessionSelect(t *testing.T) {
	_, ts := newTestServer(t)
	c := dial(t, ts)

	hello := c.notice("hello")
	if hello.Session == "" {
		t.Error("hello without session id")
	}
	c.send(Inbound{Type: "resize", W: 200, H: 100, Ratio: 1, Bounds: canvas})
	c.frame(200, 100)

	c.send(Inbound{Type: "pointerdown", X: 100, Y: 50, Bounds: canvas})
	c.send(Inbound{Type: "pointerup", X: 100, Y: 50, Bounds: canvas})
	sel := c.notice("select")
	if sel.Object != (diagram.NodeRef{ID: "A"}).String() {
		t.Errorf("selected %q, want node A", sel.Object)
	}
}

func TestSessionMoveUpdatesDataset(t *testing.T) {
	s, ts := newTestServer(t)
	c := dial(t, ts)
	c.notice("hello")
	c.send(Inbound{Type: "resize", W: 200, H: 100, Ratio: 1, Bounds: canvas})
	c.frame(200, 100)

	c.send(Inbound{Type: "pointerdown", X: 100, Y: 50, Bounds: canvas})
	c.send(Inbound{Type: "pointermove", X: 120, Y: 50, Bounds: canvas})
	c.send(Inbound{Type: "pointerup", X: 120, Y: 50, Bounds: canvas})
	mv := c.notice("move")
	if mv.Position == nil || mv.Position.X != 20 || mv.Position.Y != 0 {
		t.Fatalf("move notice = %+v", mv)
	}
	nodes, _ := s.Dataset().Diagram()
	if nodes[0].ID != "A" || nodes[0].Position != geometry.Pt(20, 0) {
		t.Errorf("dataset node = %s at %v", nodes[0].ID, nodes[0].Position)
	}
}

func TestSetDatasetNotifiesSessions(t *testing.T) {
	s, ts := newTestServer(t)
	c := dial(t, ts)
	c.notice("hello")
	if s.Sessions() != 1 {
		t.Fatalf("sessions = %d", s.Sessions())
	}

	d := testData()
	d.Nodes = d.Nodes[:1]
	s.SetDataset(d)
	c.notice("reload")
	if n, _ := s.Dataset().Len(); n != 1 {
		t.Errorf("dataset nodes = %d", n)
	}
}

func TestListenAndServeStops(t *testing.T) {
	s := New(testData(), Options{Addr: "127.0.0.1:0", Logger: log.New(io.Discard)})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

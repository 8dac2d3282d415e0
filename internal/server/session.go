package server

import (
	"context"
	"image"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hubastard/netcanvas/engine/core"
	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/scene"
	"github.com/hubastard/netcanvas/engine/view"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 4096
)

type session struct {
	id      string
	conn    *websocket.Conn
	win     *socketWindow
	view    *view.View
	log     *log.Logger
	frames  chan []byte
	notices chan Notice
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	vopts, err := s.opts.NewView()
	if err != nil {
		s.log.Error("session setup failed", "err", err)
		http.Error(w, "session setup failed", http.StatusInternalServerError)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	sess := &session{
		id:      uuid.NewString(),
		conn:    conn,
		frames:  make(chan []byte, 1),
		notices: make(chan Notice, 64),
	}
	sess.log = s.log.With("session", sess.id[:8])
	sess.win = newSocketWindow(s.opts.Width, s.opts.Height, sess.present)

	vopts.Callbacks = s.callbacks(sess)
	if vopts.Logger == nil {
		vopts.Logger = sess.log
	}
	sess.view = view.New(vopts)
	sess.view.SetData(s.Dataset().Diagram())

	s.mu.Lock()
	s.sessions[sess.id] = sess
	ctx, cancel := context.WithCancel(s.ctx)
	s.mu.Unlock()
	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
		conn.Close()
		sess.log.Info("session closed")
	}()
	sess.log.Info("session opened", "remote", r.RemoteAddr)

	go sess.writeLoop(ctx)
	go sess.readLoop()
	sess.notify(Notice{Type: "hello", Session: sess.id})

	cfg := core.Config{Title: sess.id, FrameRate: s.opts.FrameRate, Logger: sess.log}
	if err := core.Run(ctx, sess.view, sess.win, cfg); err != nil {
		sess.log.Error("session run loop stopped", "err", err)
		sess.notify(Notice{Type: "error", Message: err.Error()})
	}
}

// callbacks binds view callbacks to sess. They run on the session's run loop
// with its view locked, so anything touching other sessions is deferred to a
// goroutine.
func (s *Server) callbacks(sess *session) (cb scene.Callbacks) {
	cb.OnSelectionChanged = func(o diagram.Object) {
		sess.notify(Notice{Type: "select", Object: objectName(o)})
	}
	cb.OnMove = func(o diagram.Object, x, y float64) bool {
		id, ok := diagram.NodeID(o)
		if !ok || !s.Dataset().MoveNode(id, x, y) {
			return false
		}
		sess.notify(Notice{Type: "move", Object: objectName(o), Position: &Position{X: x, Y: y}})
		go s.broadcast(sess, Notice{})
		return true
	}
	cb.OnDrop = func(src, dst diagram.Object) {
		sess.notify(Notice{Type: "drop", Object: objectName(src), Target: objectName(dst)})
	}
	cb.OnDelete = func(o diagram.Object) {
		sess.notify(Notice{Type: "delete", Object: objectName(o)})
	}
	return cb
}

// present replaces any frame still waiting to be written; only the newest
// frame matters.
func (sess *session) present(frame *image.RGBA) {
	data, err := encodeFrame(frame)
	if err != nil {
		sess.log.Error("encode frame", "err", err)
		return
	}
	for {
		select {
		case sess.frames <- data:
			return
		default:
		}
		select {
		case <-sess.frames:
		default:
		}
	}
}

func (sess *session) notify(n Notice) {
	select {
	case sess.notices <- n:
	default:
		sess.log.Warn("notice dropped", "type", n.Type)
	}
}

func (sess *session) readLoop() {
	defer sess.win.close()
	sess.conn.SetReadLimit(maxMessage)
	_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var m Inbound
		if err := sess.conn.ReadJSON(&m); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sess.log.Warn("unexpected close", "err", err)
			}
			return
		}
		_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
		if !sess.win.deliver(m) {
			sess.log.Warn("event queue full", "type", m.Type)
		}
	}
}

func (sess *session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = sess.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case n := <-sess.notices:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteJSON(n); err != nil {
				sess.win.close()
				return
			}
		case data := <-sess.frames:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				sess.win.close()
				return
			}
		case <-ticker.C:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sess.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				sess.win.close()
				return
			}
		}
	}
}

// Package server hosts diagrams in the browser. Each websocket connection is
// a session with its own view and run loop: the client streams input events
// and receives rendered frames as PNG plus JSON notices for callbacks.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/hubastard/netcanvas/engine/view"
	"github.com/hubastard/netcanvas/internal/dataset"
)

type Options struct {
	Addr         string
	FrameRate    int
	AllowOrigins []string
	// Width and Height size a session until its client reports a resize.
	Width, Height int
	// NewView returns the view options for one session. Faces are not safe
	// for concurrent use, so each session needs its own.
	NewView func() (view.Options, error)
	Logger  *log.Logger
}

// Server owns the shared dataset and the live sessions.
type Server struct {
	opts     Options
	log      *log.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	data     *dataset.Dataset
	sessions map[string]*session
	ctx      context.Context
}

func New(data *dataset.Dataset, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.NewView == nil {
		opts.NewView = func() (view.Options, error) { return view.Options{}, nil }
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 800, 600
	}
	if data == nil {
		data = &dataset.Dataset{}
	}
	s := &Server{
		opts:     opts,
		log:      opts.Logger,
		data:     data,
		sessions: make(map[string]*session),
		ctx:      context.Background(),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin:     s.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 64 * 1024,
	}
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/api/topology", s.handleTopology)
	r.Get("/ws", s.handleWS)
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully and
// waits for sessions to end.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})
	return g.Wait()
}

// SetDataset replaces the shared dataset and pushes it to every session.
func (s *Server) SetDataset(d *dataset.Dataset) {
	s.mu.Lock()
	s.data = d
	s.mu.Unlock()
	s.broadcast(nil, Notice{Type: "reload"})
}

// Dataset returns the shared dataset.
func (s *Server) Dataset() *dataset.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// broadcast refreshes every session but skip with the current dataset.
func (s *Server) broadcast(skip *session, n Notice) {
	d := s.Dataset()
	s.mu.RLock()
	targets := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess != skip {
			targets = append(targets, sess)
		}
	}
	s.mu.RUnlock()

	for _, sess := range targets {
		sess.view.SetData(d.Diagram())
		if n.Type != "" {
			sess.notify(n)
		}
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.opts.AllowOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"dur", time.Since(start).Round(time.Microsecond),
			"req", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.Sessions()})
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Dataset())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

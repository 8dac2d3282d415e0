package core

import "sync/atomic"

// Scheduler is the render-request queue: a dirty flag that any number of
// RequestFrame calls within one tick collapse into a single repaint.
type Scheduler struct {
	dirty    atomic.Bool
	requests atomic.Int64
}

func NewScheduler() *Scheduler { return &Scheduler{} }

// RequestFrame marks the view dirty. It never renders.
func (s *Scheduler) RequestFrame() {
	s.requests.Add(1)
	s.dirty.Store(true)
}

// Take reports whether a frame was requested and clears the flag.
func (s *Scheduler) Take() bool { return s.dirty.Swap(false) }

// Pending reports whether a frame is requested without clearing it.
func (s *Scheduler) Pending() bool { return s.dirty.Load() }

// Requests is the total number of RequestFrame calls.
func (s *Scheduler) Requests() int64 { return s.requests.Load() }

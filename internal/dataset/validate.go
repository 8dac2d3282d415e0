package dataset

import (
	"fmt"
	"math"
	"strings"

	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/errors"
)

// Issue is one validation finding.
type Issue struct {
	Where   string
	Message string
}

func (i Issue) String() string { return i.Where + ": " + i.Message }

// Report separates problems that make the dataset unusable from ones the
// renderer tolerates, such as dangling edges.
type Report struct {
	Errors   []Issue
	Warnings []Issue
}

func (r *Report) errorf(where, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{where, fmt.Sprintf(format, args...)})
}

func (r *Report) warnf(where, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{where, fmt.Sprintf(format, args...)})
}

// OK reports whether there are no errors.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

// Err returns an INVALID_DATASET error naming the first problem, or nil.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	msg := r.Errors[0].String()
	if n := len(r.Errors) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return errors.New(errors.ErrCodeInvalidDataset, "%s", msg)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate checks ids, positions, slot grids, slot states and edge endpoints.
func (d *Dataset) Validate() *Report {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r := &Report{}
	grids := make(map[string]SlotGrid, len(d.Nodes))

	for i, n := range d.Nodes {
		where := fmt.Sprintf("nodes[%d]", i)
		if n.ID == "" {
			r.errorf(where, "missing id")
			continue
		}
		where = fmt.Sprintf("node %q", n.ID)
		if _, dup := grids[n.ID]; dup {
			r.errorf(where, "duplicate id")
			continue
		}
		grids[n.ID] = n.Slots
		if !finite(n.X) || !finite(n.Y) {
			r.errorf(where, "position (%v, %v) is not finite", n.X, n.Y)
		}
		if n.Slots.X < 0 || n.Slots.Y < 0 {
			r.errorf(where, "slot grid %dx%d has a negative side", n.Slots.X, n.Slots.Y)
		}
		if (n.Slots.X == 0) != (n.Slots.Y == 0) {
			r.errorf(where, "slot grid %dx%d has an empty side", n.Slots.X, n.Slots.Y)
		}
		if total := n.Slots.X * n.Slots.Y; len(n.Slots.States) > total && total >= 0 {
			r.warnf(where, "%d slot states for a %dx%d grid; extras are ignored", len(n.Slots.States), n.Slots.X, n.Slots.Y)
		}
		for j, st := range n.Slots.States {
			if diagram.ParseSlotState(st) == diagram.SlotUnknown {
				r.warnf(where, "slot %d state %q is not up, down or empty; it renders as down", j, st)
			}
		}
	}

	for i, e := range d.Edges {
		where := fmt.Sprintf("edges[%d] %s/%d -> %s/%d", i, e.From.Node, e.From.Slot, e.To.Node, e.To.Slot)
		var missing []string
		for _, end := range []Endpoint{e.From, e.To} {
			g, ok := grids[end.Node]
			switch {
			case !ok:
				missing = append(missing, fmt.Sprintf("node %q", end.Node))
			case end.Slot < 0 || end.Slot >= g.X*g.Y:
				missing = append(missing, fmt.Sprintf("slot %d of %q", end.Slot, end.Node))
			}
		}
		if len(missing) > 0 {
			r.warnf(where, "dangling: no %s; the edge is not drawn", strings.Join(missing, ", no "))
		}
	}
	return r
}

// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package ptimer implements the process-timer subsystem: a running list
// of caller-owned deadline records serviced by a sweep, underneath etimer
// and ctimer. The scheduler's run loop calls Sweep directly when
// ShouldSweep reports true; there is no separate ptimer task, so handlers
// run inside Sweep without a task context of their own. ptimer never allocates;
// every Record is provided and owned by its caller, and the subsystem
// only links and unlinks it.
package ptimer

import (
	"context"
	"sync/atomic"

	"github.com/mbacchi/cokernel/internal/errs"
	"github.com/mbacchi/cokernel/internal/list"
	"github.com/mbacchi/cokernel/internal/obs"
	"github.com/mbacchi/cokernel/ticks"
)

// Handler is invoked when a Record expires during a sweep, with the
// expiring record itself.
type Handler func(r *Record)

// Record extends a wall-clock Timer with a handler and running-list
// membership. At most one membership in the running list at a time.
type Record struct {
	node    list.Node[Record]
	timer   ticks.Timer
	handler Handler
	running bool
}

// Init binds the record's list node to itself. Call once before the
// record is ever started.
func (r *Record) Init() {
	r.node.Init(r)
}

// Running reports whether the record is currently linked into a Running
// list (i.e. pending expiry).
func (r *Record) Running() bool {
	return r.running
}

// StopAt returns the record's current deadline tick.
func (r *Record) StopAt() ticks.Ticks {
	return r.timer.StopAt()
}

// Running is the ptimer running list: a circular intrusive list of
// Records awaiting expiry, plus a lower-bound hint on the earliest
// deadline so the scheduler can avoid sweeping on every run() iteration.
type Running struct {
	clock *ticks.Clock
	list  list.DList[Record]

	// Obs is the subsystem's optional STATS instrumentation, publishing
	// the max number of records walked by a single Sweep. Nil disables it.
	Obs *obs.Observer

	pending  bool
	nextStop ticks.Ticks

	maxLap uint64 // atomic high-water mark of records walked by one Sweep
}

// NewRunning creates an empty running list driven by clock.
func NewRunning(clock *ticks.Clock) *Running {
	r := &Running{clock: clock}
	r.list.Init()
	return r
}

// SetObserver wires o in for STATS publication; nil disables it again.
func (rl *Running) SetObserver(o *obs.Observer) {
	rl.Obs = o
}

// Start arms r with span and handler, (re)linking it into the running
// list. Starting an already-running record is idempotent: it does not
// duplicate the node, it only updates the deadline and the hint.
func (rl *Running) Start(r *Record, span ticks.Ticks, h Handler) {
	r.timer.Start(rl.clock, span)
	r.handler = h
	rl.link(r)
}

// StartChecked is Start with span validation: a zero span can never
// expire meaningfully (it is already due the instant it is armed,
// indistinguishable from caller error in every real use of this kernel),
// so StartChecked rejects it with errs.ErrInvalidParameters instead of
// silently arming a timer that fires on the next sweep regardless of
// when it was actually started.
func (rl *Running) StartChecked(r *Record, span ticks.Ticks, h Handler) error {
	if span.Val() == 0 {
		return errs.ErrInvalidParameters
	}
	rl.Start(r, span, h)
	return nil
}

// Restart re-captures r's start time against now, keeping its span and
// handler, and re-links it if it was stopped.
func (rl *Running) Restart(r *Record) {
	r.timer.Restart(rl.clock)
	rl.link(r)
}

// Reset advances r's start time by its span (periodic reuse) and re-links
// it if it was stopped.
func (rl *Running) Reset(r *Record) {
	r.timer.Reset()
	rl.link(r)
}

// Stop unlinks r from the running list and clears its running flag. Its
// handler is not called.
func (rl *Running) Stop(r *Record) {
	if r.running {
		r.running = false
		rl.list.Erase(&r.node)
	}
}

// Expired reports whether r's deadline has passed.
func (rl *Running) Expired(r *Record) bool {
	return r.timer.Expired(rl.clock)
}

func (rl *Running) link(r *Record) {
	if !r.running {
		r.running = true
		rl.list.PushBack(&r.node)
	}
	rl.foldStop(r.timer.StopAt())
}

// foldStop folds a candidate deadline into the running minimum hint. The
// hint is a lower bound: it may lag behind reality after a Stop (handled
// by the next Sweep re-deriving pending and the hint from the records it
// walks), but it never
// reports a later time than the true earliest deadline while pending.
func (rl *Running) foldStop(stop ticks.Ticks) {
	if !rl.pending || ticks.Diff(stop, rl.nextStop) < 0 {
		rl.nextStop = stop
		rl.pending = true
	}
}

// ShouldSweep reports the precise condition under which the scheduler
// calls Sweep: the hint is pending and its deadline has passed.
func (rl *Running) ShouldSweep() bool {
	return rl.pending && rl.clock.Passed(rl.nextStop)
}

// Sweep walks the running list once. Expired records are unlinked, their
// running flag cleared, and their handler invoked (in list order, i.e.
// insertion order — co-expired records fire in the order they were
// started). Records that have not expired fold their deadline into the
// next hint. Handlers may start/stop/restart other records; those become
// candidates for the next sweep, not this one, since Sweep snapshots
// "next" before invoking any handler.
func (rl *Running) Sweep() {
	_, span := rl.Obs.StartSpan(context.Background(), obs.SweepSpan)
	defer span.Finish()

	rl.pending = false
	lap := 0
	rl.list.ForEachSafe(func(l *list.DList[Record], n *list.Node[Record]) bool {
		lap++
		r := n.Owner()
		if r.timer.Expired(rl.clock) {
			l.Erase(n)
			r.running = false
			if r.handler != nil {
				r.handler(r)
			}
		} else {
			rl.foldStop(r.timer.StopAt())
		}
		return true
	})
	rl.bumpMaxLap(lap)
}

// bumpMaxLap updates the high-water mark of records walked by a single
// sweep and, if it grew, publishes it to Obs.
func (rl *Running) bumpMaxLap(n int) {
	for {
		cur := atomic.LoadUint64(&rl.maxLap)
		if uint64(n) <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(&rl.maxLap, cur, uint64(n)) {
			rl.Obs.SetPtimerMaxLap(n)
			return
		}
	}
}

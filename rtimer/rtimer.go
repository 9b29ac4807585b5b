// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package rtimer implements the kernel's real-time timer: a single-shot
// hardware-alarm-backed timer with exactly one slot, guarded by a
// single-owner lock tasks must acquire non-blockingly before arming it.
// The start/reset/left/expired vocabulary mirrors what a single hardware
// comparator naturally exposes.
package rtimer

import (
	"sync/atomic"

	"github.com/mbacchi/cokernel/internal/errs"
	"github.com/mbacchi/cokernel/internal/obs"
	"github.com/mbacchi/cokernel/task"
	"github.com/mbacchi/cokernel/ticks"
)

// Hardware is the one absolute comparator the target provides. Program
// arms it to fire at deadline; Cancel disarms it. Fire must be called by
// the driver's interrupt trampoline — never synchronously from Program or
// Cancel — since the kernel's contract is that the callback runs with the
// lock already released, not inline with the arming call.
type Hardware interface {
	Program(deadline ticks.Ticks)
	Cancel()
}

// Callback is invoked by the hardware trampoline when a Timer fires.
type Callback func(data interface{})

// Lock is the single-owner, non-blocking mutex guarding an rtimer slot.
// TryAcquire never blocks; a task that fails to acquire must yield and
// retry, which is what AcquireLoop does.
type Lock struct {
	owned uint32
}

// TryAcquire attempts to take the lock, returning true iff it succeeded.
func (l *Lock) TryAcquire() bool {
	return atomic.CompareAndSwapUint32(&l.owned, 0, 1)
}

// Release gives up the lock. Called by the hardware trampoline before
// invoking the user callback, so the callback may immediately re-arm a
// new rtimer.
func (l *Lock) Release() {
	atomic.StoreUint32(&l.owned, 0)
}

// Locked reports whether the lock is currently held.
func (l *Lock) Locked() bool {
	return atomic.LoadUint32(&l.owned) != 0
}

// Acquire is TryAcquire's error-returning counterpart, for callers that
// would rather branch on an error than a bool: it returns
// errs.ErrRtimerBusy when another owner already holds the slot.
func (l *Lock) Acquire() error {
	if !l.TryAcquire() {
		return errs.ErrRtimerBusy
	}
	return nil
}

// AcquireLoop is the task-cooperative half of PROCESS_RTIMER_ACQUIRE: it
// records rp as the checkpoint and yields the calling task until the lock
// is acquired. A task must not call Timer.Start before AcquireLoop
// reports acquisition (by falling through, i.e. returning false).
func (l *Lock) AcquireLoop(rp int, t *task.Task) bool {
	return t.YieldUntil(rp, l.TryAcquire)
}

// state is the rtimer slot's lifecycle. The firing transition is
// transient and collapsed into Fire itself: by the time Fire returns, the
// slot is back to idle.
type state int32

const (
	idle state = iota
	armedState
)

// Timer is the kernel's single hardware-backed one-shot timer. Exactly
// one Timer should be constructed per Hardware instance, since the
// hardware itself has only one comparator slot. Arming a Timer without
// first holding Lock is a caller error the kernel does not guard against;
// acquiring the lock before starting is caller discipline, not an
// enforced precondition.
type Timer struct {
	hw    Hardware
	clock *ticks.Clock
	Lock  Lock

	// Obs is the slot's optional STATS instrumentation, publishing the
	// real-time-overrun metric. Nil disables it.
	Obs *obs.Observer

	st         int32 // atomic state
	start      ticks.Ticks
	span       ticks.Ticks
	callback   Callback
	data       interface{}
	maxOverrun uint64 // atomic high-water mark, in ticks
}

// New creates an idle rtimer slot over hw, timestamped against clock.
func New(hw Hardware, clock *ticks.Clock) *Timer {
	return &Timer{hw: hw, clock: clock}
}

// SetObserver wires o in for STATS publication; nil disables it again.
func (rt *Timer) SetObserver(o *obs.Observer) {
	rt.Obs = o
}

// Start arms the timer for span ticks from now, registers cb and data,
// and programs the hardware comparator. Callers must hold Lock.
func (rt *Timer) Start(span ticks.Ticks, cb Callback, data interface{}) {
	rt.start = rt.clock.Now()
	rt.span = span
	rt.callback = cb
	rt.data = data
	atomic.StoreInt32(&rt.st, int32(armedState))
	rt.hw.Program(rt.StopAt())
}

// Restart re-captures the timer's start time against clock, keeping its
// span/callback/data, and reprograms the hardware comparator.
func (rt *Timer) Restart() {
	rt.start = rt.clock.Now()
	atomic.StoreInt32(&rt.st, int32(armedState))
	rt.hw.Program(rt.StopAt())
}

// Reset advances the timer's start by its span (periodic reuse) and
// reprograms the hardware comparator to the new deadline.
func (rt *Timer) Reset() {
	rt.start = rt.start.Add(rt.span)
	atomic.StoreInt32(&rt.st, int32(armedState))
	rt.hw.Program(rt.StopAt())
}

// StopAt returns the timer's current deadline tick.
func (rt *Timer) StopAt() ticks.Ticks {
	return rt.start.Add(rt.span)
}

// Left returns the ticks remaining until expiry, zero if already passed.
func (rt *Timer) Left() ticks.Ticks {
	stop := rt.StopAt()
	if rt.clock.Passed(stop) {
		return ticks.New(0)
	}
	d := ticks.Diff(stop, rt.clock.Now())
	if d < 0 {
		d = 0
	}
	return ticks.New(uint64(d))
}

// Expired reports whether the timer's deadline has passed.
func (rt *Timer) Expired() bool {
	return rt.clock.Passed(rt.StopAt())
}

// Armed reports whether the slot currently holds a programmed deadline.
func (rt *Timer) Armed() bool {
	return state(atomic.LoadInt32(&rt.st)) == armedState
}

// Fire is the hardware interrupt trampoline: it disarms the comparator,
// releases Lock, and only then invokes the registered callback, so the
// callback may itself immediately re-arm a new rtimer. Must be called
// from the driver's interrupt handler (or its host-test equivalent),
// never synchronously by Start/Restart/Reset.
func (rt *Timer) Fire() {
	if overrun := ticks.Diff(rt.clock.Now(), rt.StopAt()); overrun > 0 {
		rt.bumpMaxOverrun(uint64(overrun))
	}

	atomic.StoreInt32(&rt.st, int32(idle))
	rt.hw.Cancel()
	rt.Lock.Release()
	cb, data := rt.callback, rt.data
	if cb != nil {
		cb(data)
	}
}

// bumpMaxOverrun updates the high-water mark of how late Fire ran relative
// to its programmed deadline and, if it grew, publishes it to Obs.
func (rt *Timer) bumpMaxOverrun(ticks uint64) {
	for {
		cur := atomic.LoadUint64(&rt.maxOverrun)
		if ticks <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(&rt.maxOverrun, cur, ticks) {
			rt.Obs.SetRtimerOverrun(int64(ticks))
			return
		}
	}
}

// Join is the task-cooperative wait for a previously started rtimer to
// fire: it records rp and yields until the slot returns to idle, i.e.
// until Fire has run and released Lock.
func (rt *Timer) Join(rp int, t *task.Task) bool {
	return t.YieldUntil(rp, func() bool { return !rt.Armed() })
}

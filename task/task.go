// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package task implements the kernel's stackless cooperative task
// primitive (a protothread): a task body is an ordinary Go function with
// no stack of its own across yields, re-entered by the scheduler on every
// event and resuming where it last left off.
//
// Go offers goto and labels, which would let a task body mirror the
// corpus's Duff's-device-style PT_BEGIN/PT_WAIT_UNTIL macros almost
// verbatim. We deliberately don't: a resume point here is a plain integer
// switched on at function entry (the "tagged enum" style the task
// contract explicitly allows), which reads like ordinary Go control flow
// instead of reconstructed C preprocessor tricks.
//
// A task body has this shape:
//
//	func body(t *task.Task, ev *task.Event) task.State {
//		if !t.Begin(ev) {
//			return task.Terminated
//		}
//		switch t.RP() {
//		case 0:
//			fallthrough
//		case 1:
//			if t.WaitEventID(1, ev, task.EvStart) {
//				return task.Waiting
//			}
//			fallthrough
//		case 2:
//			if t.Yield(3) {
//				return task.Waiting
//			}
//			fallthrough
//		case 3:
//			doWork(t)
//			return t.End()
//		}
//		return task.Waiting
//	}
//
// Begin is called unconditionally, every invocation, before the switch —
// it is the EXIT short-circuit, not a checkpoint of its own — so a task
// observing EXIT terminates immediately regardless of where it was
// suspended. WaitEvent-family calls pass their own case number as rp,
// since re-entry must re-check the same condition against the new event.
// Yield is different: it always blocks, so its rp must name the *next*
// checkpoint — re-entry jumps straight past the yield call into the
// continuation, exactly like control reaching the statement after a
// satisfied PT_YIELD in the original macros. fallthrough carries
// execution into the next checkpoint within the same invocation once a
// wait condition is already satisfied. No local variable declared inside
// the switch survives a Waiting return; state that must survive belongs
// in UserData or in fields the caller owns.
package task

import (
	"sync/atomic"

	"github.com/mbacchi/cokernel/internal/list"
)

// EventID identifies an event. 0-4 are reserved by the kernel; the first
// five values must never be reused for application events.
type EventID uint8

const (
	EvStart    EventID = iota // task is being started
	EvPoll                    // scheduler-delivered poll request
	EvContinue                // generic "wake up and recheck" event
	EvTimeout                 // a timer (etimer) expired
	EvExit                    // task is being cancelled; must terminate
)

// FirstAppEvent is the lowest event id applications may assign to their
// own events.
const FirstAppEvent EventID = 5

// Event is the unit of communication delivered to a task body.
type Event struct {
	ID   EventID
	Data interface{}
	From *Task
	To   *Task
}

// State is the value a thread function returns after each invocation.
type State int

const (
	Waiting State = iota
	Terminated
)

func (s State) String() string {
	if s == Terminated {
		return "TERMINATED"
	}
	return "WAITING"
}

// ThreadFunc is a task body: given the task and the event that woke it,
// it runs until the next yield point and reports Waiting or Terminated.
type ThreadFunc func(t *Task, ev *Event) State

const (
	rpInitial    = 0
	rpTerminated = ^uint32(0)
)

// Task is a stackless cooperative task. The zero value is a task that has
// never been started (RP() == initial); it becomes usable once Thread is
// set and the scheduler calls Start.
type Task struct {
	// Link is this task's intrusive running-tasks-list node. Task.Init
	// calls Link.Init(t) once, before the task is first started; after
	// that the scheduler owns it exclusively, and task bodies must not
	// touch it.
	Link list.Node[Task]

	Thread   ThreadFunc
	UserData interface{}

	resumePoint uint32 // atomic: the scheduler may read RP() off-thread for diagnostics

	pollRequested uint32 // atomic bool: set by Poll (possibly from an ISR)

	// MaxSliceTime records the longest single dispatch this task has
	// taken; the scheduler updates it on every dispatch.
	MaxSliceTime int64 // nanoseconds; avoids importing time here
}

// Init binds the task's list node to itself. Must be called once before
// the task is ever started.
func (t *Task) Init() {
	t.Link.Init(t)
}

// RP returns the resume point a thread function should switch on.
func (t *Task) RP() int {
	return int(atomic.LoadUint32(&t.resumePoint))
}

// SetRP records the checkpoint thread re-entry should resume at.
func (t *Task) SetRP(rp int) {
	atomic.StoreUint32(&t.resumePoint, uint32(rp))
}

// Running reports whether the task's resume point is neither the initial
// (never started) nor the terminal value.
func (t *Task) Running() bool {
	rp := atomic.LoadUint32(&t.resumePoint)
	return rp != rpInitial && rp != rpTerminated
}

// Terminated reports whether the task has run to completion.
func (t *Task) Terminated() bool {
	return atomic.LoadUint32(&t.resumePoint) == rpTerminated
}

// Reset rewinds the task to its initial (not yet started) resume point.
// Callers must ensure the task is not linked into a running-tasks list
// when calling this directly; sched.Start does this as part of
// (re)starting a task.
func (t *Task) Reset() {
	t.SetRP(rpInitial)
}

// Begin must be called unconditionally as the first statement of every
// thread function invocation, before switching on RP. It reports false
// (the body must return Terminated) iff the incoming event is EvExit,
// regardless of which checkpoint the task was suspended at; otherwise it
// reports true and the body should proceed to its checkpoint switch.
func (t *Task) Begin(ev *Event) bool {
	if ev != nil && ev.ID == EvExit {
		t.SetRP(int(rpTerminated))
		return false
	}
	return true
}

// End marks the task terminated and returns Terminated, for use as a
// thread function's final statement.
func (t *Task) End() State {
	t.SetRP(int(rpTerminated))
	return Terminated
}

// Exit is End by another name, for bodies that want to read "exit()" at
// the call site as the contract's vocabulary does.
func (t *Task) Exit() State {
	return t.End()
}

// Restart rewinds to the initial checkpoint and reports Waiting, so a
// thread function can recycle itself: `return t.Restart()`.
func (t *Task) Restart() State {
	t.Reset()
	return Waiting
}

// WaitEvent records rp as the resume checkpoint and reports whether the
// body must return Waiting: true if cond is not yet satisfied.
func (t *Task) WaitEvent(rp int, cond func() bool) bool {
	t.SetRP(rp)
	return !cond()
}

// WaitEventID is WaitEvent specialized to "the incoming event has id".
func (t *Task) WaitEventID(rp int, ev *Event, id EventID) bool {
	return t.WaitEvent(rp, func() bool { return ev != nil && ev.ID == id })
}

// Yield records rp — the checkpoint immediately following this call — and
// unconditionally reports true, requiring the body to suspend for exactly
// one round. rp must differ from the case calling Yield: re-entry jumps
// straight to rp and never calls Yield again for this round.
func (t *Task) Yield(rp int) bool {
	t.SetRP(rp)
	return true
}

// YieldUntil suspends at checkpoint rp until cond holds; equivalent to
// WaitEvent but named for call sites that read more naturally as a yield.
func (t *Task) YieldUntil(rp int, cond func() bool) bool {
	return t.WaitEvent(rp, cond)
}

// PT is a bare protothread checkpoint for child threads spawned by Spawn
// that have no scheduler list membership of their own.
type PT struct {
	rp uint32
}

// RP returns the child's resume point.
func (p *PT) RP() int { return int(p.rp) }

// SetRP records the child's resume checkpoint.
func (p *PT) SetRP(rp int) { p.rp = uint32(rp) }

// Terminated reports whether the child thread has completed.
func (p *PT) Terminated() bool { return p.rp == uint32(rpTerminated) }

// Spawn drives a child protothread to completion across possibly many
// invocations of the parent. On each call it runs fn once against child;
// if fn has not yet returned Terminated, Spawn records rp as the parent's
// own checkpoint and reports true (the parent must return Waiting).
// Once the child terminates, Spawn reports false and the parent falls
// through.
func (t *Task) Spawn(rp int, child *PT, fn func(child *PT, ev *Event) State, ev *Event) bool {
	if child.Terminated() {
		return false
	}
	if fn(child, ev) != Terminated {
		t.SetRP(rp)
		return true
	}
	return false
}

// PollRequested reports whether a poll is pending for this task. Safe to
// call from an ISR-equivalent context.
func (t *Task) PollRequested() bool {
	return atomic.LoadUint32(&t.pollRequested) != 0
}

// RequestPoll latches a poll request for this task. Safe to call from an
// ISR-equivalent context; see sched.Poll.
func (t *Task) RequestPoll() {
	atomic.StoreUint32(&t.pollRequested, 1)
}

// ClearPoll clears the latched poll request, returning its prior value.
func (t *Task) ClearPoll() bool {
	return atomic.SwapUint32(&t.pollRequested, 0) != 0
}

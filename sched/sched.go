// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package sched implements the kernel's scheduler: the running-tasks
// list, the event queue, the current-task pointer, and the single-
// threaded run() loop that drains poll requests, services the ptimer
// subsystem, and dispatches one queued event per iteration. It is the
// component that ties together task, ring, and ptimer, and it is the
// implementation of the etimer.Poster and ctimer.Runner capability
// interfaces those packages depend on instead of importing sched
// directly.
package sched

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mbacchi/cokernel/etimer"
	"github.com/mbacchi/cokernel/internal/errs"
	"github.com/mbacchi/cokernel/internal/klog"
	"github.com/mbacchi/cokernel/internal/list"
	"github.com/mbacchi/cokernel/internal/obs"
	"github.com/mbacchi/cokernel/ptimer"
	"github.com/mbacchi/cokernel/ring"
	"github.com/mbacchi/cokernel/task"
	"github.com/mbacchi/cokernel/ticks"
)

// EventQueueCapacity is the default size of a scheduler's event ring;
// NewWithCapacity lets callers override it per-instance.
const EventQueueCapacity = 256

// S is the scheduler: one instance owns one running-tasks list, one event
// queue, one ptimer running list, and the notion of "the currently
// executing task".
type S struct {
	clock *ticks.Clock

	tasks   list.DList[task.Task]
	events  *ring.Queue[task.Event]
	Ptimers *ptimer.Running

	// Obs is the scheduler's optional statistics instrumentation
	// (metrics, trace spans, task lifecycle hooks). Nil by default;
	// SetObserver wires one in to turn on max-queue-count/max-slice
	// bookkeeping.
	Obs *obs.Observer

	current       atomic.Pointer[task.Task]
	globalPoll    uint32 // atomic bool, set by Poll, cleared at the top of run()
	droppedPosts  uint64 // atomic: count of Post calls that found a full queue
	maxQueueCount uint64 // atomic: high-water mark of events.Count()
}

// New creates an empty scheduler driven by clock, with an event queue of
// EventQueueCapacity.
func New(clock *ticks.Clock) *S {
	return NewWithCapacity(clock, EventQueueCapacity)
}

// NewWithCapacity is New with an explicit event queue capacity.
func NewWithCapacity(clock *ticks.Clock, capacity int) *S {
	s := &S{
		clock:   clock,
		events:  ring.New[task.Event](capacity),
		Ptimers: ptimer.NewRunning(clock),
	}
	s.tasks.Init()
	return s
}

// SetObserver wires o into the scheduler; nil disables instrumentation
// again. Safe to call before Run starts.
func (s *S) SetObserver(o *obs.Observer) {
	s.Obs = o
}

// Current returns the task currently being dispatched, or nil outside of
// a dispatch (e.g. before the first run() or from an ISR-equivalent
// context).
func (s *S) Current() *task.Task {
	return s.current.Load()
}

// Start (re)starts task with an initial START event. If the task is not
// already running it is reset to its initial checkpoint and pushed to the
// front of the running-tasks list.
func (s *S) Start(t *task.Task, data interface{}) {
	if !t.Running() {
		t.Reset()
		s.tasks.PushFront(&t.Link)
	}
	s.deliver(t, &task.Event{ID: task.EvStart, Data: data, From: s.Current(), To: t})
	s.Obs.EmitTaskStarted(t)
}

// Exit cancels task: it is the sole way to cancel a running task. EXIT is
// delivered synchronously; the task body must observe it in Begin and
// return Terminated, after which deliver unlinks it from the running
// list.
func (s *S) Exit(t *task.Task) {
	if !t.Running() {
		return
	}
	s.deliver(t, &task.Event{ID: task.EvExit, To: t})
	if t.Terminated() {
		s.Obs.EmitTaskExited(t)
	}
}

// Post enqueues an event for deferred delivery on a later run()
// iteration, stamping From as the currently executing task. It reports
// false iff the queue was full, in which case the event is dropped.
func (s *S) Post(to *task.Task, id task.EventID, data interface{}) bool {
	ev := task.Event{ID: id, Data: data, From: s.Current(), To: to}
	return s.postEvent(&ev)
}

// PostErr is Post's error-returning counterpart, for callers that would
// rather branch on an error than a bool: it returns errs.ErrQueueFull
// when the event was dropped.
func (s *S) PostErr(to *task.Task, id task.EventID, data interface{}) error {
	if !s.Post(to, id, data) {
		return errs.ErrQueueFull
	}
	return nil
}

// postEvent posts an already-built event (etimer fills in From/To itself
// at Start time) without stamping From from the current task.
func (s *S) postEvent(ev *task.Event) bool {
	if ok := s.events.Push(*ev); !ok {
		atomic.AddUint64(&s.droppedPosts, 1)
		if klog.ERRon() {
			klog.ERR("sched: event queue full, dropping event id=%d to=%p\n", ev.ID, ev.To)
		}
		s.Obs.CountDrop()
		return false
	}
	s.bumpMaxQueueCount(s.events.Count())
	return true
}

// bumpMaxQueueCount updates the high-water mark and, if it grew, publishes
// it to Obs. A plain compare-and-swap loop since multiple producers
// (including ISR-equivalent callers) may race here.
func (s *S) bumpMaxQueueCount(n int) {
	for {
		cur := atomic.LoadUint64(&s.maxQueueCount)
		if uint64(n) <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(&s.maxQueueCount, cur, uint64(n)) {
			s.Obs.SetMaxQueueCount(n)
			return
		}
	}
}

// PostSync delivers an event immediately, bypassing the queue entirely,
// without reordering relative to the caller's own code.
func (s *S) PostSync(ev *task.Event) {
	s.deliver(ev.To, ev)
}

// eventPoster adapts S to etimer.Poster: etimer posts fully-built events
// (From/To already stamped at Start time), while S's own Post builds the
// event from (to, id, data) and stamps From from the current task, so the
// two can't share a method signature.
type eventPoster struct{ *S }

func (p eventPoster) Post(ev *task.Event) bool { return p.S.postEvent(ev) }

// EventPoster returns the etimer.Poster adapter for this scheduler, for
// wiring into etimer.New.
func (s *S) EventPoster() etimer.Poster {
	return eventPoster{s}
}

// Poll sets task's poll flag and the global poll flag. Safe to call from
// an ISR-equivalent context.
func (s *S) Poll(t *task.Task) {
	t.RequestPoll()
	atomic.StoreUint32(&s.globalPoll, 1)
}

// DroppedPosts returns the number of Post calls that found the event
// queue full since the scheduler was created.
func (s *S) DroppedPosts() uint64 {
	return atomic.LoadUint64(&s.droppedPosts)
}

// Run executes one iteration of the main loop:
//  1. while the global poll flag is set: clear it, walk every running
//     task, and synchronously deliver POLL to any with a pending flag.
//  2. service the ptimer subsystem if its hint says a deadline passed.
//  3. if the event queue is non-empty, pop and dispatch exactly one
//     event.
//
// It returns the number of events still queued plus 1 if the global poll
// flag was re-armed during this iteration (e.g. by a handler run in step
// 2 or 3), so callers can decide whether to call Run again immediately or
// sleep until the next external wakeup.
func (s *S) Run() int {
	for atomic.SwapUint32(&s.globalPoll, 0) != 0 {
		s.tasks.ForEachSafe(func(l *list.DList[task.Task], n *list.Node[task.Task]) bool {
			t := n.Owner()
			if t.ClearPoll() {
				s.deliver(t, &task.Event{ID: task.EvPoll, To: t})
			}
			return true
		})
	}

	if s.Ptimers.ShouldSweep() {
		s.Ptimers.Sweep()
	}

	if ev, ok := s.events.Pop(); ok {
		s.deliver(ev.To, &ev)
	}

	outstanding := int(s.events.Count())
	if atomic.LoadUint32(&s.globalPoll) != 0 {
		outstanding++
	}
	return outstanding
}

// RunAs implements ctimer.Runner: it runs fn with current temporarily set
// to context, restoring the previous current task on return (including
// on panic, so a callback panic never corrupts scheduler state).
func (s *S) RunAs(context *task.Task, fn func()) {
	prev := s.current.Swap(context)
	defer s.current.Store(prev)
	fn()
}

// deliver temporarily sets current to t, invokes t's thread function with
// ev, and restores the previous current. If the body returns Terminated,
// t is unlinked from the running list.
func (s *S) deliver(t *task.Task, ev *task.Event) {
	if t == nil || t.Thread == nil {
		return
	}

	_, span := s.Obs.StartSpan(context.Background(), obs.DispatchSpan)
	span.SetTag(obs.TagTaskEvent, eventIDString(ev.ID))
	start := time.Now()

	prev := s.current.Swap(t)
	state := t.Thread(t, ev)
	s.current.Store(prev)

	elapsed := time.Since(start).Nanoseconds()
	if elapsed > t.MaxSliceTime {
		t.MaxSliceTime = elapsed
		s.Obs.SetMaxSlice(elapsed)
	}
	span.Finish()

	if state == task.Terminated {
		s.tasks.Erase(&t.Link)
	}
}

// eventIDString renders an event id for span tagging without pulling in
// fmt's full machinery on the hot path; event ids are a small, dense set.
func eventIDString(id task.EventID) string {
	switch id {
	case task.EvStart:
		return "START"
	case task.EvPoll:
		return "POLL"
	case task.EvContinue:
		return "CONTINUE"
	case task.EvTimeout:
		return "TIMEOUT"
	case task.EvExit:
		return "EXIT"
	default:
		return "APP"
	}
}

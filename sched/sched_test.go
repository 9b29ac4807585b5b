// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package sched

import (
	"errors"
	"testing"

	"github.com/mbacchi/cokernel/ctimer"
	"github.com/mbacchi/cokernel/etimer"
	"github.com/mbacchi/cokernel/internal/errs"
	"github.com/mbacchi/cokernel/task"
	"github.com/mbacchi/cokernel/ticks"
)

func TestStartPushesAndDeliversSynchronously(t *testing.T) {
	c := ticks.NewClock(1000)
	s := New(c)

	var log []string
	tk := &task.Task{}
	tk.Init()
	tk.Thread = func(tsk *task.Task, ev *task.Event) task.State {
		if !tsk.Begin(ev) {
			return tsk.End()
		}
		log = append(log, "got event")
		return tsk.End()
	}

	s.Start(tk, nil)
	if len(log) != 1 {
		t.Fatalf("Start should synchronously deliver START, got log %v", log)
	}
	if tk.Running() {
		t.Fatalf("task returning Terminated from its first dispatch should be unlinked")
	}
}

func TestExitDeliversEventAndUnlinks(t *testing.T) {
	c := ticks.NewClock(1000)
	s := New(c)

	tk := &task.Task{}
	tk.Init()
	var sawExit bool
	tk.Thread = func(tsk *task.Task, ev *task.Event) task.State {
		if !tsk.Begin(ev) {
			sawExit = true
			return task.Terminated
		}
		switch tsk.RP() {
		case 0:
			fallthrough
		case 1:
			if tsk.YieldUntil(1, func() bool { return false }) {
				return task.Waiting
			}
		}
		return task.Waiting
	}

	s.Start(tk, nil)
	if !tk.Running() {
		t.Fatalf("task should still be running after Start (it waits)")
	}

	s.Exit(tk)
	if !sawExit {
		t.Fatalf("Exit should deliver EXIT so the body observes it in Begin")
	}
	if tk.Running() {
		t.Fatalf("task should be unlinked from the running list after Exit")
	}
}

func TestPostQueuesAndRunDrainsOnePerIteration(t *testing.T) {
	c := ticks.NewClock(1000)
	s := New(c)

	var received []interface{}
	tk := &task.Task{}
	tk.Init()
	tk.Thread = func(tsk *task.Task, ev *task.Event) task.State {
		if !tsk.Begin(ev) {
			return task.Terminated
		}
		received = append(received, ev.Data)
		return task.Waiting
	}

	s.Start(tk, nil)
	received = nil // drop the START record, only the posted events matter below

	if !s.Post(tk, task.EvContinue, "a") {
		t.Fatalf("Post should succeed while the queue has room")
	}
	if !s.Post(tk, task.EvContinue, "b") {
		t.Fatalf("Post should succeed while the queue has room")
	}

	s.Run()
	if len(received) != 1 || received[0] != "a" {
		t.Fatalf("Run should dispatch exactly one queued event per iteration, got %v", received)
	}

	s.Run()
	if len(received) != 2 || received[1] != "b" {
		t.Fatalf("second Run should dispatch the second queued event, got %v", received)
	}

	if s.Run() != 0 {
		t.Fatalf("Run should report zero outstanding once the queue and poll flag are both empty")
	}
}

func TestPollDrainsBeforeQueuedEvents(t *testing.T) {
	c := ticks.NewClock(1000)
	s := New(c)

	var order []string
	tk := &task.Task{}
	tk.Init()
	tk.Thread = func(tsk *task.Task, ev *task.Event) task.State {
		if !tsk.Begin(ev) {
			return task.Terminated
		}
		switch ev.ID {
		case task.EvPoll:
			order = append(order, "poll")
		default:
			order = append(order, "queued")
		}
		return task.Waiting
	}
	s.Start(tk, nil)
	order = nil

	s.Post(tk, task.EvContinue, nil)
	s.Poll(tk)

	s.Run()
	if len(order) != 2 || order[0] != "poll" || order[1] != "queued" {
		t.Fatalf("poll should drain before the queued event within the same Run, got %v", order)
	}
}

func TestPostFullQueueReportsFailure(t *testing.T) {
	c := ticks.NewClock(1000)
	s := NewWithCapacity(c, 1)

	tk := &task.Task{}
	tk.Init()
	tk.Thread = func(tsk *task.Task, ev *task.Event) task.State { return task.Waiting }
	tk.SetRP(1) // pretend already running without going through Start

	if !s.Post(tk, task.EvContinue, nil) {
		t.Fatalf("first post into an empty 1-capacity queue should succeed")
	}
	if s.Post(tk, task.EvContinue, nil) {
		t.Fatalf("second post into a full queue should report failure")
	}
	if s.DroppedPosts() != 1 {
		t.Fatalf("DroppedPosts = %d, want 1", s.DroppedPosts())
	}
}

func TestPostErrReturnsErrQueueFull(t *testing.T) {
	c := ticks.NewClock(1000)
	s := NewWithCapacity(c, 1)

	tk := &task.Task{}
	tk.Init()
	tk.Thread = func(tsk *task.Task, ev *task.Event) task.State { return task.Waiting }
	tk.SetRP(1)

	if err := s.PostErr(tk, task.EvContinue, nil); err != nil {
		t.Fatalf("PostErr into an empty queue = %v, want nil", err)
	}
	if err := s.PostErr(tk, task.EvContinue, nil); !errors.Is(err, errs.ErrQueueFull) {
		t.Fatalf("PostErr into a full queue = %v, want ErrQueueFull", err)
	}
}

func TestSchedulerSatisfiesEtimerPoster(t *testing.T) {
	c := ticks.NewClock(1000)
	s := New(c)
	var _ etimer.Poster = s.EventPoster()

	to := &task.Task{}
	to.Init()
	var delivered []interface{}
	to.Thread = func(tsk *task.Task, ev *task.Event) task.State {
		if !tsk.Begin(ev) {
			return task.Terminated
		}
		delivered = append(delivered, ev.Data)
		return task.Waiting
	}
	s.Start(to, nil)
	delivered = nil

	et := etimer.New(s.Ptimers, s.EventPoster(), false)
	et.Start(ticks.New(10), nil, to, task.EvTimeout, "fired")

	c.Advance(10)
	s.Run()

	if len(delivered) != 1 || delivered[0] != "fired" {
		t.Fatalf("scheduler-backed etimer should deliver through Run, got %v", delivered)
	}
}

func TestSchedulerSatisfiesCtimerRunner(t *testing.T) {
	c := ticks.NewClock(1000)
	s := New(c)
	var _ ctimer.Runner = s

	ctx := &task.Task{}
	ctx.Init()

	var sawCurrent *task.Task
	ct := ctimer.New(s.Ptimers, s)
	ct.Start(ticks.New(5), ctx, func(*ctimer.Timer) {
		sawCurrent = s.Current()
	}, nil)

	c.Advance(5)
	s.Run()

	if sawCurrent != ctx {
		t.Fatalf("ctimer callback should observe its context task as Current(), got %v", sawCurrent)
	}
	if s.Current() != nil {
		t.Fatalf("Current() should be nil again once dispatch returns")
	}
}

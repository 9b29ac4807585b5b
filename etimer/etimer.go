// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package etimer implements event timers: a ptimer.Record that, on
// expiry, delivers a fixed event to a target task instead of invoking an
// arbitrary callback. It is a strict composition over ptimer — no
// additional list membership of its own.
package etimer

import (
	"github.com/mbacchi/cokernel/ptimer"
	"github.com/mbacchi/cokernel/task"
	"github.com/mbacchi/cokernel/ticks"
)

// Poster is the scheduler capability an etimer needs: enqueueing an event
// for later delivery, or delivering one synchronously right away. sched.S
// implements this; etimer depends only on the interface to avoid an
// import cycle with the scheduler package.
type Poster interface {
	Post(ev *task.Event) bool
	PostSync(ev *task.Event)
}

// DeliverMode selects how an expired etimer hands its event to the
// scheduler: Deferred posts to the event queue, Synchronous delivers
// immediately. Both are behaviorally equivalent apart from delivery
// timing.
type DeliverMode bool

const (
	Deferred    DeliverMode = false
	Synchronous DeliverMode = true
)

// Timer is an event timer: expiry posts {id, data, from, to} to the
// scheduler's event queue by default, or delivers it synchronously into
// the target task if mode is Synchronous.
type Timer struct {
	rec     ptimer.Record
	running *ptimer.Running
	poster  Poster
	mode    DeliverMode

	ev task.Event
}

// New creates an event timer driven by running and delivered through
// poster, using the given delivery mode.
func New(running *ptimer.Running, poster Poster, mode DeliverMode) *Timer {
	t := &Timer{running: running, poster: poster, mode: mode}
	t.rec.Init()
	return t
}

// Start arms the timer for span ticks; on expiry it delivers an event
// with the given id/data to the "to" task, recording the caller-supplied
// "from" as the event's sender (nil is allowed).
func (t *Timer) Start(span ticks.Ticks, from, to *task.Task, id task.EventID, data interface{}) {
	t.ev = task.Event{ID: id, Data: data, From: from, To: to}
	t.running.Start(&t.rec, span, t.onExpire)
}

// Restart re-captures the timer's start time, keeping its event.
func (t *Timer) Restart() {
	t.running.Restart(&t.rec)
}

// Reset advances the timer's start by its span, for periodic reuse.
func (t *Timer) Reset() {
	t.running.Reset(&t.rec)
}

// Stop cancels the timer; its event will not be delivered.
func (t *Timer) Stop() {
	t.running.Stop(&t.rec)
}

// Expired reports whether the timer's deadline has passed.
func (t *Timer) Expired() bool {
	return t.running.Expired(&t.rec)
}

func (t *Timer) onExpire(*ptimer.Record) {
	ev := t.ev
	if t.mode == Synchronous {
		t.poster.PostSync(&ev)
		return
	}
	t.poster.Post(&ev)
}

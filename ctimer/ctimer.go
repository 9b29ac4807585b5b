// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package ctimer implements callback timers: a ptimer.Record that, on
// expiry, invokes an arbitrary callback with the scheduler's current-task
// pointer temporarily set to a caller-chosen context task. It is a strict
// composition over ptimer — no additional list membership of its own —
// sitting alongside etimer as a second consumer of ptimer's Record type.
package ctimer

import (
	"github.com/mbacchi/cokernel/ptimer"
	"github.com/mbacchi/cokernel/task"
	"github.com/mbacchi/cokernel/ticks"
)

// Runner is the scheduler capability a ctimer needs: running a function
// with the current-task pointer temporarily set to context. sched.S
// implements this; ctimer depends only on the interface to avoid an import
// cycle with the scheduler package.
type Runner interface {
	RunAs(context *task.Task, fn func())
}

// Callback is invoked on expiry with the Timer that fired.
type Callback func(t *Timer)

// Timer is a callback timer: expiry invokes a user callback under a named
// task context, as if that task were currently executing.
type Timer struct {
	rec     ptimer.Record
	running *ptimer.Running
	runner  Runner

	context  *task.Task
	callback Callback
	data     interface{}
}

// New creates a callback timer driven by running and executed through
// runner.
func New(running *ptimer.Running, runner Runner) *Timer {
	t := &Timer{running: running, runner: runner}
	t.rec.Init()
	return t
}

// Start arms the timer for span ticks; on expiry it invokes cb under
// context as the current task, with data available via Data.
func (t *Timer) Start(span ticks.Ticks, context *task.Task, cb Callback, data interface{}) {
	t.context = context
	t.callback = cb
	t.data = data
	t.running.Start(&t.rec, span, t.onExpire)
}

// Restart re-captures the timer's start time, keeping its callback.
func (t *Timer) Restart() {
	t.running.Restart(&t.rec)
}

// Reset advances the timer's start by its span, for periodic reuse.
func (t *Timer) Reset() {
	t.running.Reset(&t.rec)
}

// Stop cancels the timer; its callback will not be invoked.
func (t *Timer) Stop() {
	t.running.Stop(&t.rec)
}

// Expired reports whether the timer's deadline has passed.
func (t *Timer) Expired() bool {
	return t.running.Expired(&t.rec)
}

// Context returns the task the timer was armed to fire under.
func (t *Timer) Context() *task.Task {
	return t.context
}

// Data returns the opaque value passed to Start.
func (t *Timer) Data() interface{} {
	return t.data
}

func (t *Timer) onExpire(*ptimer.Record) {
	cb := t.callback
	if cb == nil {
		return
	}
	t.runner.RunAs(t.context, func() {
		cb(t)
	})
}

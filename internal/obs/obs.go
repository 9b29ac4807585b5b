// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package obs is the kernel's optional STATS instrumentation: metrics,
// trace spans, and lifecycle hooks layered on top of the raw per-task and
// per-subsystem counters (task.Task.MaxSliceTime, ptimer.Running's lap
// count, rtimer's overrun tick) that the core always maintains.
//
// A nil *Observer is valid everywhere one is accepted and turns every
// method into a no-op, giving embedding code a runtime on/off switch
// without a build tag: it either calls New() and wires the result into
// its scheduler, ptimer task, and rtimer slot, or leaves the field nil
// and pays nothing.
package obs

import (
	"context"

	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric keys: event-queue drops, the event queue's high-water mark, the
// longest single task dispatch, the longest ptimer sweep lap, and the
// largest observed rtimer overrun.
const (
	QueueDrops         = metricz.Key("sched.queue.drops")
	MaxQueueCount      = metricz.Key("sched.queue.max_count")
	MaxSliceNanos      = metricz.Key("sched.dispatch.max_slice_ns")
	PtimerMaxLap       = metricz.Key("ptimer.sweep.max_lap")
	RtimerOverrunTicks = metricz.Key("rtimer.fire.overrun_ticks")
)

// Trace span keys.
const (
	DispatchSpan = tracez.Key("sched.dispatch")
	SweepSpan    = tracez.Key("ptimer.sweep")
)

// Span tags.
const (
	TagTaskEvent = tracez.Tag("event.id")
)

// Lifecycle hook keys. Task is carried as interface{} rather than
// *task.Task so this package stays a dependency-free leaf; callers type
// -assert back to *task.Task if they need it.
const (
	TaskStarted = hookz.Key("sched.task.started")
	TaskExited  = hookz.Key("sched.task.exited")
)

// Event is the payload delivered to lifecycle hooks.
type Event struct {
	Task interface{}
}

// Observer bundles a metrics registry, a tracer, and a lifecycle hook bus.
type Observer struct {
	Metrics *metricz.Registry
	Tracer  *tracez.Tracer
	Hooks   *hookz.Hooks[Event]
}

// New creates an Observer with its metric keys pre-registered.
func New() *Observer {
	m := metricz.New()
	m.Counter(QueueDrops)
	m.Gauge(MaxQueueCount)
	m.Gauge(MaxSliceNanos)
	m.Gauge(PtimerMaxLap)
	m.Gauge(RtimerOverrunTicks)
	return &Observer{
		Metrics: m,
		Tracer:  tracez.New(),
		Hooks:   hookz.New[Event](),
	}
}

// Close releases the tracer's and hook bus's background resources. Safe to
// call on a nil Observer.
func (o *Observer) Close() {
	if o == nil {
		return
	}
	if o.Tracer != nil {
		o.Tracer.Close()
	}
	if o.Hooks != nil {
		o.Hooks.Close()
	}
}

// CountDrop increments the event-queue-drop counter.
func (o *Observer) CountDrop() {
	if o == nil {
		return
	}
	o.Metrics.Counter(QueueDrops).Inc()
}

// SetMaxQueueCount publishes a new event-queue high-water mark.
func (o *Observer) SetMaxQueueCount(n int) {
	if o == nil {
		return
	}
	o.Metrics.Gauge(MaxQueueCount).Set(float64(n))
}

// SetMaxSlice publishes the longest observed dispatch slice, in
// nanoseconds.
func (o *Observer) SetMaxSlice(ns int64) {
	if o == nil {
		return
	}
	o.Metrics.Gauge(MaxSliceNanos).Set(float64(ns))
}

// SetPtimerMaxLap publishes the longest ptimer sweep (records walked).
func (o *Observer) SetPtimerMaxLap(n int) {
	if o == nil {
		return
	}
	o.Metrics.Gauge(PtimerMaxLap).Set(float64(n))
}

// SetRtimerOverrun publishes the largest observed gap, in ticks, between
// an rtimer's programmed deadline and the tick at which Fire actually ran.
func (o *Observer) SetRtimerOverrun(ticks int64) {
	if o == nil {
		return
	}
	o.Metrics.Gauge(RtimerOverrunTicks).Set(float64(ticks))
}

// Span wraps a tracez.Span so callers can call SetTag/Finish without a nil
// check: a Span backed by a nil Observer does nothing.
type Span struct{ s *tracez.Span }

// StartSpan begins a trace span under key, returning the possibly-amended
// context and a Span that is safe to use even when o is nil.
func (o *Observer) StartSpan(ctx context.Context, key tracez.Key) (context.Context, Span) {
	if o == nil || o.Tracer == nil {
		return ctx, Span{}
	}
	ctx, s := o.Tracer.StartSpan(ctx, key)
	return ctx, Span{s: s}
}

// SetTag tags the span, a no-op if the span is a nil stand-in.
func (sp Span) SetTag(tag tracez.Tag, value string) {
	if sp.s != nil {
		sp.s.SetTag(tag, value)
	}
}

// Finish ends the span, a no-op if the span is a nil stand-in.
func (sp Span) Finish() {
	if sp.s != nil {
		sp.s.Finish()
	}
}

// EmitTaskStarted notifies hooked listeners that t has started.
func (o *Observer) EmitTaskStarted(t interface{}) {
	if o == nil || o.Hooks == nil {
		return
	}
	_ = o.Hooks.Emit(context.Background(), TaskStarted, Event{Task: t})
}

// EmitTaskExited notifies hooked listeners that t has terminated.
func (o *Observer) EmitTaskExited(t interface{}) {
	if o == nil || o.Hooks == nil {
		return
	}
	_ = o.Hooks.Emit(context.Background(), TaskExited, Event{Task: t})
}

// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package ticks

// Timer is a pure wall-clock timer value: a start tick and a span, with no
// callback and no list membership. It is the building block every other
// timer in the kernel (ptimer, etimer, ctimer) composes over.
type Timer struct {
	start Ticks
	span  Ticks
}

// Start arms the timer against clock's current time.
func (t *Timer) Start(c *Clock, span Ticks) {
	t.start = c.Now()
	t.span = span
}

// Restart re-captures the start time against clock, keeping the span.
func (t *Timer) Restart(c *Clock) {
	t.start = c.Now()
}

// Reset advances start by span, for periodic reuse without drifting
// against the clock the way Restart would.
func (t *Timer) Reset() {
	t.start = t.start.Add(t.span)
}

// StopAt returns the deadline tick (start+span).
func (t Timer) StopAt() Ticks {
	return t.start.Add(t.span)
}

// Expired reports whether the timer's deadline has passed on clock.
func (t Timer) Expired(c *Clock) bool {
	return c.Passed(t.StopAt())
}

// Span returns the configured span.
func (t Timer) Span() Ticks {
	return t.span
}

// StartedAt returns the tick the timer was last (re)started at.
func (t Timer) StartedAt() Ticks {
	return t.start
}

// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package ticks

import (
	"sync/atomic"
	"time"
)

// Clock is the monotonic wall-clock counter consumed by the rest of the
// kernel. It owns no goroutine itself: Advance must be driven by a platform
// tick source (a hardware timer ISR, or the HostDriver below for
// development/testing on top of the real OS clock).
//
// Clock is safe to read concurrently (Now is lock-free); Advance must only
// be called by the single owner of the tick source.
type Clock struct {
	ticksPerSec uint64
	now         uint64 // atomic, raw Ticks value
}

// NewClock creates a Clock ticking at the given rate. ticksPerSec is purely
// informational for Duration/FromDuration conversions; Advance() is what
// actually moves the counter forward.
func NewClock(ticksPerSec uint64) *Clock {
	return &Clock{ticksPerSec: ticksPerSec}
}

// TicksPerSec returns the configured tick rate.
func (c *Clock) TicksPerSec() uint64 {
	return c.ticksPerSec
}

// Now returns the current tick value.
func (c *Clock) Now() Ticks {
	return New(atomic.LoadUint64(&c.now))
}

// Advance moves the counter forward by n ticks. Called from the platform
// tick source only; never from application/task code.
func (c *Clock) Advance(n uint64) Ticks {
	return New(atomic.AddUint64(&c.now, n))
}

// Duration converts a tick count to a time.Duration at this clock's rate.
func (c *Clock) Duration(t Ticks) time.Duration {
	if c.ticksPerSec == 0 {
		return 0
	}
	return time.Duration(t.Val()) * time.Second / time.Duration(c.ticksPerSec)
}

// FromDuration converts a time.Duration to a tick count, rounding up so
// that a non-zero duration never degenerates to a 0-tick (immediately
// expired) timer.
func (c *Clock) FromDuration(d time.Duration) Ticks {
	if c.ticksPerSec == 0 || d <= 0 {
		return New(0)
	}
	n := uint64(d) * c.ticksPerSec / uint64(time.Second)
	if uint64(d)*c.ticksPerSec%uint64(time.Second) != 0 {
		n++
	}
	if n == 0 {
		n = 1
	}
	return New(n)
}

// Passed reports whether t has passed relative to the current time
// (diff(t, now) <= 0).
func (c *Clock) Passed(t Ticks) bool {
	return Diff(t, c.Now()) <= 0
}

// BlockUntil spin-waits until t has passed. Intended for boot-time code
// only; task bodies must never call this (see the kernel's concurrency
// model: the only suspension points are the cooperative task primitives).
func (c *Clock) BlockUntil(t Ticks) {
	for !c.Passed(t) {
		// architectural "do nothing" hint would go here on a real MCU;
		// on the host we just spin.
	}
}

// BlockFor spin-waits for span ticks from now.
func (c *Clock) BlockFor(span Ticks) {
	c.BlockUntil(c.Now().Add(span))
}

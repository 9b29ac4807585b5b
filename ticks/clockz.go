// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package ticks

import (
	"time"

	"github.com/zoobzio/clockz"
)

// ClockzDriver advances a Clock from a clockz.Clock instead of directly
// from the host OS's wall clock the way HostDriver does. Swapping
// clockz.RealClock for clockz.NewFakeClock() lets a test advance kernel
// time deterministically and instantly by calling the fake clock's
// Advance, instead of sleeping on a HostDriver and racing real wall-clock
// jitter.
type ClockzDriver struct {
	clock *Clock
	src   clockz.Clock
	tick  time.Duration
	last  time.Time
}

// NewClockzDriver creates a driver over src, advancing clock by one tick
// for each whole tick duration that elapses on src between Sync calls.
func NewClockzDriver(clock *Clock, src clockz.Clock, tick time.Duration) *ClockzDriver {
	return &ClockzDriver{clock: clock, src: src, tick: tick, last: src.Now()}
}

// Sync advances the kernel Clock by however many whole tick durations have
// elapsed on src since the last tick boundary it accounted for (initially
// the creation time), and returns how many ticks it advanced. A partial
// tick left over is carried into the next Sync, not discarded. Call it after advancing a fake clock in a test,
// or periodically against clockz.RealClock in place of HostDriver.
func (d *ClockzDriver) Sync() uint64 {
	now := d.src.Now()
	elapsed := now.Sub(d.last)
	if elapsed < d.tick {
		return 0
	}
	n := uint64(elapsed / d.tick)
	d.last = d.last.Add(time.Duration(n) * d.tick)
	d.clock.Advance(n)
	return n
}

// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package ticks

import (
	"sync"
	"time"

	"github.com/intuitivelabs/timestamp"
	"github.com/mbacchi/cokernel/internal/klog"
)

// HostDriver advances a Clock from the host OS's real time, for running and
// testing the kernel on a development machine instead of real MCU hardware.
// It plays the role board/driver glue plays for tick sources: external to
// the core, consumed only through Clock.Advance.
//
// It re-derives elapsed ticks from wall-clock deltas rather than trusting a
// fixed-period goroutine wakeup, so that scheduling jitter on the host
// cannot make the kernel's clock drift from real elapsed time.
type HostDriver struct {
	clock *Clock
	tick  time.Duration

	mu        sync.Mutex
	lastTickT timestamp.TS
	refTS     timestamp.TS
	refTicks  Ticks
	badTime   uint32

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewHostDriver creates a driver that advances clock once per tick
// duration, as measured against the real clock.
func NewHostDriver(clock *Clock, tick time.Duration) *HostDriver {
	return &HostDriver{clock: clock, tick: tick, stop: make(chan struct{})}
}

// Start begins a background goroutine that periodically samples real time
// and advances the Clock by the elapsed number of ticks. It is the host
// analogue of timestamp_init() + the interrupt that normally drives the
// tick counter on real hardware.
func (d *HostDriver) Start() {
	now := timestamp.Now()
	d.lastTickT = now
	d.refTS = now
	d.refTicks = d.clock.Now()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		t := time.NewTicker(d.tick)
		defer t.Stop()
		for {
			select {
			case <-d.stop:
				return
			case <-t.C:
				d.poll()
			}
		}
	}()
}

// Stop halts the background goroutine. Safe to call once.
func (d *HostDriver) Stop() {
	close(d.stop)
	d.wg.Wait()
}

// poll samples the real clock and advances d.clock by however many whole
// ticks have elapsed, logging (but not panicking on) clock anomalies.
func (d *HostDriver) poll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := timestamp.Now()
	if now.Before(d.lastTickT) {
		d.badTime++
		if d.badTime > 10 {
			if klog.ERRon() {
				klog.ERR("ticks: host clock went backward %d times by %s,"+
					" re-synchronizing\n", d.badTime, d.lastTickT.Sub(now))
			}
			d.lastTickT = now
			d.refTS = now
			d.refTicks = d.clock.Now()
		}
		return
	}
	d.badTime = 0

	diff := now.Sub(d.lastTickT)
	if diff < d.tick {
		return
	}
	n := uint64(diff / d.tick)
	rest := diff - time.Duration(n)*d.tick
	d.lastTickT = now.Add(-rest)
	d.clock.Advance(n)
}

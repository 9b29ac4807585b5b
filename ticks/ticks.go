// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package ticks implements the kernel's monotonic wall-clock counter: a
// wrap-safe tick value compared via signed subtraction, plus the host-side
// driver that advances it from a real time source.
package ticks

import (
	"strconv"
)

// Bits is the configured width of the tick counter. The kernel spec allows
// 8/16/32/64 bit counters; 32 is wide enough to avoid practical wraparound
// on an MCU running for years at typical tick rates while staying cheap to
// compare on a target without native 64-bit arithmetic.
const Bits = 32

const (
	// MaxDiff is half the counter's range: two ticks can only be ordered
	// if their absolute difference is strictly less than MaxDiff.
	MaxDiff = 1 << (Bits - 1)
	Mask    = (MaxDiff - 1) | MaxDiff
)

// Ticks is a monotonically increasing tick count with no zero/reference
// value. Two Ticks may be compared with EQ/LT/GT/... as long as the true
// difference between them is strictly less than MaxDiff; beyond that, order
// is undefined (the single-wrap guarantee a modular counter provides).
//
// Ticks should only be manipulated through its methods, never by comparing
// the raw value, since a plain compare does not handle wraparound.
type Ticks struct {
	v uint64
}

// New creates a Ticks value from a raw counter reading, masked to Bits.
func New(u uint64) Ticks {
	return Ticks{u & Mask}
}

// Val returns the tick value as a uint64.
func (t Ticks) Val() uint64 {
	return t.v & Mask
}

// EQ returns true if t == u, accounting for wraparound.
func (t Ticks) EQ(u Ticks) bool {
	return (t.v-u.v)&Mask == 0
}

// NE returns true if t != u.
func (t Ticks) NE(u Ticks) bool {
	return !t.EQ(u)
}

// LT returns true if t < u, using the signed interpretation of t-u.
func (t Ticks) LT(u Ticks) bool {
	return (t.v-u.v)&MaxDiff != 0
}

// GT returns true if t > u.
func (t Ticks) GT(u Ticks) bool {
	return !t.LT(u) && t.NE(u)
}

// GE returns true if t >= u.
func (t Ticks) GE(u Ticks) bool {
	return (t.v-u.v)&MaxDiff == 0
}

// LE returns true if t <= u.
func (t Ticks) LE(u Ticks) bool {
	return t.LT(u) || t.EQ(u)
}

// Add returns t+u.
func (t Ticks) Add(u Ticks) Ticks {
	return Ticks{(t.v + u.v) & Mask}
}

// Sub returns t-u.
func (t Ticks) Sub(u Ticks) Ticks {
	return Ticks{(t.v - u.v) & Mask}
}

// AddUint64 returns t+u for a raw tick count u.
func (t Ticks) AddUint64(u uint64) Ticks {
	return Ticks{(t.v + u) & Mask}
}

// SubUint64 returns t-u for a raw tick count u.
func (t Ticks) SubUint64(u uint64) Ticks {
	return Ticks{(t.v - u) & Mask}
}

// Diff returns the signed difference a-b, interpreted modulo the counter
// width, as an int64. EQ/LT/GT and the rest of the comparison helpers are
// all defined in terms of it.
func Diff(a, b Ticks) int64 {
	d := (a.v - b.v) & Mask
	if d&MaxDiff != 0 {
		return int64(d) - int64(Mask) - 1
	}
	return int64(d)
}

// String renders the tick value in decimal, for debugging.
func (t Ticks) String() string {
	return strconv.FormatUint(t.v, 10)
}

// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package ticks

import (
	"math/rand"
	"testing"
	"time"
	"unsafe"
)

func TestTicksConst(t *testing.T) {
	var tk Ticks
	if Bits > unsafe.Sizeof(tk.v)*8 {
		t.Fatalf("bad Bits constant, too big\n")
	}
	if Bits < 8 {
		t.Fatalf("bad Bits constant, too small\n")
	}
	if MaxDiff == 0 || (MaxDiff&(MaxDiff-1) != 0) {
		t.Fatalf("wrong MaxDiff 0x%x, should be 2^k\n", MaxDiff)
	}
	if ((Mask+1)&Mask) != 0 ||
		(MaxDiff-1)&Mask != (MaxDiff-1) ||
		MaxDiff&Mask != MaxDiff {
		t.Fatalf("wrong Mask 0x%x\n", Mask)
	}
}

func tstOp(t *testing.T, p string, v1, v2 uint64) {
	t1 := New(v1)
	t2 := New(v2)

	if !((t1.Val() == v1) == (v1 <= Mask)) {
		t.Errorf(p+"Val for 0x%x (mask 0x%x) => 0x%x failed\n", v1, Mask, t1.Val())
	}
	if !((t2.Val() == v2) == (v2 <= Mask)) {
		t.Errorf(p+"Val for 0x%x (mask 0x%x) => 0x%x failed\n", v2, Mask, t2.Val())
	}

	if t1.EQ(t2) != ((v1 & Mask) == (v2 & Mask)) {
		t.Errorf(p+"EQ for 0x%x <> 0x%x failed (0x%x, 0x%x)\n",
			t1.Val(), t2.Val(), v1, v2)
	}
	if v1 == v2 && !t1.EQ(t2) {
		t.Errorf(p+"EQ2 for 0x%x <> 0x%x failed (0x%x, 0x%x)\n",
			t1.Val(), t2.Val(), v1, v2)
	}
	if ((v1 >= v2) && ((v1 - v2) < MaxDiff)) ||
		((v1 < v2) && ((v2 - v1) < MaxDiff)) {
		if t1.NE(t2) != (v1 != v2) {
			t.Errorf(p+"NE for 0x%x <> 0x%x failed\n", t1.Val(), t2.Val())
		}
		if t1.LT(t2) != (v1 < v2) {
			t.Errorf(p+"LT for 0x%x <> 0x%x failed\n", t1.Val(), t2.Val())
		}
		if t1.LE(t2) != (v1 <= v2) {
			t.Errorf(p+"LE for 0x%x <> 0x%x failed\n", t1.Val(), t2.Val())
		}
		if t1.GT(t2) != (v1 > v2) {
			t.Errorf(p+"GT for 0x%x <> 0x%x failed\n", t1.Val(), t2.Val())
		}
		if t1.GE(t2) != (v1 >= v2) {
			t.Errorf(p+"GE for 0x%x <> 0x%x failed\n", t1.Val(), t2.Val())
		}
		if t1.Add(t2).NE(New(v1 + v2)) {
			t.Errorf(p+"Add for 0x%x <> 0x%x failed\n", t1.Val(), t2.Val())
		}
		if t1.Sub(t2).NE(New(v1 - v2)) {
			t.Errorf(p+"Sub for 0x%x <> 0x%x failed\n", t1.Val(), t2.Val())
		}
		if t1.AddUint64(v2).NE(New(v1 + v2)) {
			t.Errorf(p+"AddUint64 for 0x%x <> 0x%x failed\n", t1.Val(), t2.Val())
		}
		if t1.SubUint64(v2).NE(New(v1 - v2)) {
			t.Errorf(p+"SubUint64 for 0x%x <> 0x%x failed\n", t1.Val(), t2.Val())
		}
		wantDiff := int64(v1) - int64(v2)
		if got := Diff(t1, t2); got != wantDiff {
			t.Errorf(p+"Diff(0x%x,0x%x) = %d, want %d\n", v1, v2, got, wantDiff)
		}
	}
}

func TestTicksOps(t *testing.T) {
	const iterations = 20000
	tstOp(t, "", 1, 2)
	tstOp(t, "", 4, 3)
	tstOp(t, "", MaxDiff-1, 1)
	tstOp(t, "", 1, MaxDiff-1)
	tstOp(t, "", MaxDiff-1, MaxDiff-2)
	tstOp(t, "", MaxDiff-2, MaxDiff-1)
	tstOp(t, "", MaxDiff, 0)
	tstOp(t, "", MaxDiff+1, MaxDiff+2)
	tstOp(t, "", MaxDiff+4, MaxDiff+3)

	for i := 0; i < iterations; i++ {
		v1 := uint64(rand.Int63())
		diff := uint64(rand.Int63n(MaxDiff))
		tstOp(t, "rand+: ", v1, v1+diff)
		tstOp(t, "rand-: ", v1, v1-diff)
	}
	for i := 0; i < iterations; i++ {
		v1 := uint64(rand.Int63())
		v2 := uint64(rand.Int63())
		tstOp(t, "rand2: ", v1, v2)
	}
}

// TestWallClockTimerContract checks that starting a timer with span s at
// t0 implies expired <=> now >= t0+s.
func TestWallClockTimerContract(t *testing.T) {
	c := NewClock(1000)
	start := c.Now()
	span := New(100)

	if c.Passed(start.Add(span)) {
		t.Fatalf("timer reported expired before span elapsed")
	}
	c.Advance(99)
	if c.Passed(start.Add(span)) {
		t.Fatalf("timer expired one tick early")
	}
	c.Advance(1)
	if !c.Passed(start.Add(span)) {
		t.Fatalf("timer did not expire exactly at t0+span")
	}
}

func TestClockDurationRoundTrip(t *testing.T) {
	c := NewClock(1000)
	for _, ms := range []int64{0, 1, 5, 17, 1000, 2500} {
		d := time.Duration(ms) * time.Millisecond
		tk := c.FromDuration(d)
		if ms > 0 && tk.Val() == 0 {
			t.Fatalf("FromDuration(%s) rounded down to 0 ticks", d)
		}
		if got := c.Duration(tk); got != d {
			t.Fatalf("Duration(FromDuration(%s)) = %s, want %s", d, got, d)
		}
	}
}

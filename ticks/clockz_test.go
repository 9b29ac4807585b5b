// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package ticks

import (
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestClockzDriverAdvancesOnWholeTicks(t *testing.T) {
	clock := NewClock(1000)
	fake := clockz.NewFakeClock()
	d := NewClockzDriver(clock, fake, 10*time.Millisecond)

	if n := d.Sync(); n != 0 {
		t.Fatalf("Sync with no elapsed time advanced by %d, want 0", n)
	}

	fake.Advance(35 * time.Millisecond)
	if n := d.Sync(); n != 3 {
		t.Fatalf("Sync after 35ms at a 10ms tick advanced by %d, want 3", n)
	}
	if clock.Now().Val() != 3 {
		t.Fatalf("clock.Now() = %v, want 3", clock.Now().Val())
	}

	fake.Advance(4 * time.Millisecond)
	if n := d.Sync(); n != 0 {
		t.Fatalf("Sync with a partial tick remaining advanced by %d, want 0", n)
	}

	fake.Advance(1 * time.Millisecond)
	if n := d.Sync(); n != 1 {
		t.Fatalf("Sync after the remainder completed a tick advanced by %d, want 1", n)
	}
}

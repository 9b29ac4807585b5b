// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package task

import "sync/atomic"

// Mutex is a non-blocking mutual-exclusion primitive for cooperating
// tasks, generalizing the single-owner lock rtimer.Lock implements for
// its one hardware slot. TryLock never blocks; a task that fails to
// acquire must yield and retry, the same acquire-loop idiom rtimer.Lock
// uses.
type Mutex struct {
	held uint32
}

// TryLock attempts to take the mutex, reporting whether it succeeded.
func (m *Mutex) TryLock() bool {
	return atomic.CompareAndSwapUint32(&m.held, 0, 1)
}

// Unlock releases the mutex.
func (m *Mutex) Unlock() {
	atomic.StoreUint32(&m.held, 0)
}

// Locked reports whether the mutex is currently held.
func (m *Mutex) Locked() bool {
	return atomic.LoadUint32(&m.held) != 0
}

// LockLoop records rp as t's checkpoint and yields until the mutex is
// acquired, mirroring rtimer.Lock.AcquireLoop for general-purpose use.
func (m *Mutex) LockLoop(rp int, t *Task) bool {
	return t.YieldUntil(rp, m.TryLock)
}

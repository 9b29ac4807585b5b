// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package task

import "testing"

func TestMutexTryLockIsExclusive(t *testing.T) {
	var m Mutex
	if m.Locked() {
		t.Fatalf("new mutex reports locked")
	}
	if !m.TryLock() {
		t.Fatalf("first TryLock should succeed")
	}
	if m.TryLock() {
		t.Fatalf("second TryLock should fail while held")
	}
	if !m.Locked() {
		t.Fatalf("mutex should report locked after TryLock")
	}
	m.Unlock()
	if m.Locked() {
		t.Fatalf("mutex should report unlocked after Unlock")
	}
	if !m.TryLock() {
		t.Fatalf("TryLock should succeed again after Unlock")
	}
}

func TestMutexLockLoopYieldsUntilAcquired(t *testing.T) {
	var m Mutex
	m.TryLock() // held by someone else

	var tsk Task
	tsk.Init()

	if !m.LockLoop(7, &tsk) {
		t.Fatalf("LockLoop should block while the mutex is held")
	}
	if tsk.RP() != 7 {
		t.Fatalf("LockLoop should record rp=7, got %d", tsk.RP())
	}

	m.Unlock()
	if m.LockLoop(7, &tsk) {
		t.Fatalf("LockLoop should acquire once the mutex is free")
	}
	if !m.Locked() {
		t.Fatalf("mutex should be held after a successful LockLoop")
	}
}

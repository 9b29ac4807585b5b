// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package task

import "testing"

// counterThread waits for EvStart, yields once, then counts EvContinue
// events until it has seen 3, then terminates.
func counterThread(count *int) ThreadFunc {
	return func(t *Task, ev *Event) State {
		if !t.Begin(ev) {
			return Terminated
		}
		switch t.RP() {
		case 0:
			fallthrough
		case 1:
			if t.WaitEventID(1, ev, EvStart) {
				return Waiting
			}
			fallthrough
		case 2:
			if t.Yield(3) {
				return Waiting
			}
			fallthrough
		case 3:
			if t.WaitEventID(3, ev, EvContinue) {
				return Waiting
			}
			*count++
			if *count < 3 {
				t.SetRP(3)
				return Waiting
			}
			return t.End()
		}
		return Waiting
	}
}

func TestTaskLifecycle(t *testing.T) {
	var count int
	tk := &Task{Thread: counterThread(&count)}
	tk.Init()

	if tk.Running() {
		t.Fatalf("fresh task should not be Running")
	}

	if st := tk.Thread(tk, &Event{ID: EvStart, To: tk}); st != Waiting {
		t.Fatalf("after START: state = %v, want Waiting", st)
	}
	if !tk.Running() {
		t.Fatalf("task should be Running after START")
	}

	// count reaches 1 and 2 on the next two EvContinue deliveries...
	for i := 0; i < 2; i++ {
		if st := tk.Thread(tk, &Event{ID: EvContinue, To: tk}); st != Waiting {
			t.Fatalf("iteration %d: state = %v, want Waiting", i, st)
		}
	}
	// ...and the third delivery brings count to 3 and terminates the task.
	if st := tk.Thread(tk, &Event{ID: EvContinue, To: tk}); st != Terminated {
		t.Fatalf("final event: state = %v, want Terminated", st)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
	if !tk.Terminated() {
		t.Fatalf("task should report Terminated")
	}
}

func TestTaskExitFromBegin(t *testing.T) {
	var count int
	tk := &Task{Thread: counterThread(&count)}
	tk.Init()

	tk.Thread(tk, &Event{ID: EvStart, To: tk})
	if st := tk.Thread(tk, &Event{ID: EvExit, To: tk}); st != Terminated {
		t.Fatalf("EXIT mid-flight: state = %v, want Terminated", st)
	}
	if !tk.Terminated() {
		t.Fatalf("task should report Terminated after EXIT")
	}
}

func TestTaskRestart(t *testing.T) {
	body := func(t *Task, ev *Event) State {
		if !t.Begin(ev) {
			return Terminated
		}
		switch t.RP() {
		case 0:
			fallthrough
		case 1:
			if t.WaitEventID(1, ev, EvStart) {
				return Waiting
			}
			return t.Restart()
		}
		return Waiting
	}
	tk := &Task{Thread: body}
	tk.Init()

	tk.Thread(tk, &Event{ID: EvStart, To: tk})
	if tk.RP() != 0 {
		t.Fatalf("RP() after Restart = %d, want 0 (initial)", tk.RP())
	}
	if tk.Terminated() {
		t.Fatalf("restarted task should not report Terminated")
	}
}

func TestSpawnDrivesChildToCompletion(t *testing.T) {
	childSteps := 0
	child := func(c *PT, ev *Event) State {
		switch c.RP() {
		case 0:
			childSteps++
			c.SetRP(1)
			return Waiting
		case 1:
			childSteps++
			c.SetRP(2)
			return Waiting
		case 2:
			childSteps++
			return Terminated
		}
		return Waiting
	}

	var pt PT
	parentDone := false
	body := func(t *Task, ev *Event) State {
		if !t.Begin(ev) {
			return Terminated
		}
		switch t.RP() {
		case 0:
			fallthrough
		case 1:
			if t.Spawn(1, &pt, child, ev) {
				return Waiting
			}
			parentDone = true
			return t.End()
		}
		return Waiting
	}

	tk := &Task{Thread: body}
	tk.Init()
	for i := 0; i < 3 && !parentDone; i++ {
		tk.Thread(tk, &Event{ID: EvContinue, To: tk})
	}
	if !parentDone {
		t.Fatalf("parent did not complete after child terminated")
	}
	if childSteps != 3 {
		t.Fatalf("childSteps = %d, want 3", childSteps)
	}
}

func TestPollRequestLatch(t *testing.T) {
	tk := &Task{}
	tk.Init()
	if tk.PollRequested() {
		t.Fatalf("fresh task should not have a poll pending")
	}
	tk.RequestPoll()
	if !tk.PollRequested() {
		t.Fatalf("poll request should be latched")
	}
	if !tk.ClearPoll() {
		t.Fatalf("ClearPoll should report the prior latched value")
	}
	if tk.PollRequested() {
		t.Fatalf("poll request should be cleared")
	}
}

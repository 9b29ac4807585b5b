// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package obs

import (
	"context"
	"testing"
	"time"
)

func TestNilObserverIsANoop(t *testing.T) {
	var o *Observer
	o.CountDrop()
	o.SetMaxQueueCount(5)
	o.SetMaxSlice(100)
	o.SetPtimerMaxLap(2)
	o.SetRtimerOverrun(1)
	o.EmitTaskStarted("t1")
	o.EmitTaskExited("t1")
	o.Close()

	_, span := o.StartSpan(context.Background(), DispatchSpan)
	span.SetTag(TagTaskEvent, "START")
	span.Finish()
}

func TestObserverRecordsMetrics(t *testing.T) {
	o := New()
	defer o.Close()

	o.CountDrop()
	if got := o.Metrics.Counter(QueueDrops).Value(); got != 1 {
		t.Fatalf("QueueDrops = %v, want 1", got)
	}

	o.SetMaxQueueCount(42)
	if got := o.Metrics.Gauge(MaxQueueCount).Value(); got != 42 {
		t.Fatalf("MaxQueueCount = %v, want 42", got)
	}
}

func TestTaskLifecycleHooks(t *testing.T) {
	o := New()
	defer o.Close()

	started := make(chan Event, 1)
	if _, err := o.Hooks.Hook(TaskStarted, func(ctx context.Context, ev Event) error {
		started <- ev
		return nil
	}); err != nil {
		t.Fatalf("Hook(TaskStarted) error: %v", err)
	}

	o.EmitTaskStarted("t1")
	select {
	case ev := <-started:
		if ev.Task != "t1" {
			t.Fatalf("got task %v, want t1", ev.Task)
		}
	case <-time.After(time.Second):
		t.Fatalf("TaskStarted hook was not invoked")
	}
}

// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package errs collects the kernel's sentinel errors, the way the
// corpus's root-level errors.go does for its wtimer API.
package errs

import "errors"

var (
	// ErrQueueFull is returned by a post that found the event queue at
	// capacity; the event is dropped.
	ErrQueueFull = errors.New("event queue full")

	// ErrRtimerBusy is returned by Lock.TryAcquire's caller-visible
	// counterpart when the rtimer slot is already owned.
	ErrRtimerBusy = errors.New("rtimer slot already armed")

	// ErrTimerStopped marks an operation attempted on a ptimer/etimer/
	// ctimer record that is not currently linked into a running list.
	ErrTimerStopped = errors.New("called on a stopped timer")

	// ErrInvalidParameters reports malformed constructor/start arguments
	// (e.g. a zero span).
	ErrInvalidParameters = errors.New("invalid parameters")
)

// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

package fxp16

// dom is the package's per-call domain-error indicator, set by operations
// documented as raising DOM (log of a non-positive argument, tan at
// +-pi/2, ilogb(0)) and left for the caller to inspect with Errno. It is
// never read by the scheduler or any other kernel package; fxp16 is a
// pure computational dependency.
//
// This mirrors errno in the source library rather than returning a
// (value, error) pair from every call, which would touch every call site
// in this package. A multi-threaded host would need one dom per caller
// (goroutine-local); this single-threaded kernel does not.
var dom bool

// Errno reports whether DOM is currently set. Like C's errno, it is not
// cleared by successful calls; callers that care should clear it first
// with ClearErrno and check Errno immediately after the operation in
// question.
func Errno() bool {
	return dom
}

// ClearErrno clears the domain-error indicator.
func ClearErrno() {
	dom = false
}

func setDOM() {
	dom = true
}

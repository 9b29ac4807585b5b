// Copyright 2021 Intuitive Labs GmbH. All rights reserved.
//
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE.txt file in the root of the source
// tree.

// Package klog is the kernel's internal logging facade. Every package in
// this module logs through here instead of calling slog directly, so the
// level and output can be reconfigured for the whole kernel from one
// place, the way a platform's printk is a single external collaborator
// kept out of the core's scope.
package klog

import (
	"github.com/intuitivelabs/slog"
)

// Log is the package-wide logger. Embedded kernels typically want one
// logger for the whole core; init sets it to LWARN, and SetLevel changes
// that.
var Log slog.Log

func init() {
	Log.Init("cokernel", slog.LWARN, slog.LWARN, 0)
}

// SetLevel changes both the generic and "BUG"-class log levels.
func SetLevel(l slog.LogLevel) {
	slog.SetLevel(&Log, l)
}

// DBGon reports whether debug-level logging is enabled.
func DBGon() bool {
	return Log.DBGon()
}

// ERRon reports whether error-level logging is enabled.
func ERRon() bool {
	return Log.ERRon()
}

// DBG logs a debug message.
func DBG(f string, a ...interface{}) {
	Log.DBG(f, a...)
}

// ERR logs an error message.
func ERR(f string, a ...interface{}) {
	Log.ERR(f, a...)
}

// BUG logs an internal-invariant-violation message. Unlike PANIC, the
// kernel keeps running afterwards; BUG is for conditions that indicate a
// caller bug but are locally recoverable.
func BUG(f string, a ...interface{}) {
	Log.BUG(f, a...)
}

// PANIC logs and then panics; reserved for invariant violations that make
// it unsafe to continue (e.g. intrusive list corruption).
func PANIC(f string, a ...interface{}) {
	Log.PANIC(f, a...)
}

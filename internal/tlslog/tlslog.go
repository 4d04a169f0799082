// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tlslog defines the minimal leveled-logging interface the
// [kowi.dev/asn1/handshake] package accepts for progress tracing. Neither
// the ASN.1 decoder nor the handshake sequencer logs anything by default: a
// security-critical parser and a protocol state machine should not write
// about attacker-controlled input unless a caller has opted in.
//
// The interface is a tiny provider the caller can implement with whatever
// logging library it already uses, plus a std-log-backed default so a
// Context works out of the box with logging enabled.
package tlslog

import (
	"log"
	"os"
)

// Logger is the leveled-logging interface [kowi.dev/asn1/handshake.Context]
// accepts. Only Debugf is used today (handshake step tracing); the
// interface is kept this small rather than plumbing Warn/Error paths the
// sequencer itself never exercises (every hard failure already surfaces as
// a returned error, never as a log line).
type Logger interface {
	Debugf(format string, args ...any)
}

// StdLogger adapts the standard library's [log.Logger] to [Logger].
type StdLogger struct {
	*log.Logger
}

// NewStdLogger returns a [StdLogger] writing to os.Stderr with the given
// prefix, for callers that want handshake tracing without wiring in their
// own logging library.
func NewStdLogger(prefix string) StdLogger {
	return StdLogger{log.New(os.Stderr, prefix, log.LstdFlags)}
}

// Debugf implements [Logger].
func (l StdLogger) Debugf(format string, args ...any) {
	l.Printf("[D] "+format, args...)
}

// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package handshake implements a TLS 1.3 handshake sequencer: a
// table-driven state machine that walks an ordered list of
// handshake messages appropriate to the negotiated [Variant] (HelloRetry,
// PSK, client certificate, client certificate verify), dispatching to
// caller-supplied send/recv callbacks and a [Transport] that owns the actual
// record-layer I/O.
//
// As with [kowi.dev/asn1/template], the core idea is a small interpreter
// over static, read-only tables rather than a hand-written sequence of
// if-statements: [action] describes what a given handshake message is (its
// wire type, its sender, whether it requires a transcript-hash snapshot) and
// sequenceTables describes, per [Variant], the order in which those messages
// appear. Perform walks the table exactly once per call, suspending at the
// transport boundary and resuming from the same position on retry.
//
// Cryptographic primitives (hashing, signing, key derivation, AEAD),
// certificate validation and transport I/O are not this package's concern;
// they are reached only through the [Transport] and [Transcript] interfaces
// and the message builder/parser callbacks in [Callbacks].
package handshake

// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package handshake

import (
	"bytes"
	"errors"
	"fmt"

	"kowi.dev/asn1/cursor"
	"kowi.dev/asn1/internal/tlslog"
)

// Alert is a fatal TLS alert description (RFC 8446 §6). The sequencer itself
// queues one only on the receive path: an unexpected message type, a
// [RecvFunc] returning an error, or trailing data left over after a RecvFunc
// returns.
type Alert uint8

const (
	AlertUnexpectedMessage Alert = 10
	AlertDecodeError       Alert = 50
)

// Transport is the record-layer boundary the sequencer suspends at. It owns
// everything about actually moving bytes: framing, encryption, and
// retransmission. Transport I/O is explicitly out of scope for this package
// (see package doc); Context only ever calls through this interface.
type Transport interface {
	// Send transmits a complete handshake message (the 1-byte type + 3-byte
	// length header, followed by body). Implementations may return
	// [WouldBlock] to have Perform suspend and retry the same msg later.
	Send(msg []byte) (Result, error)
	// Recv returns the next complete handshake message's type and body
	// (header already stripped). Implementations may return [WouldBlock] if
	// no full message is available yet.
	Recv() (msgType HandshakeType, body []byte, result Result, err error)
	// SendAlert transmits a fatal alert and tears down the connection.
	SendAlert(Alert) (Result, error)
	// HandshakeCompleted notifies the record layer that the handshake
	// finished successfully and application-data framing may begin.
	HandshakeCompleted()
}

// Transcript is the running hash of every handshake message sent or
// received so far, used for key derivation and Finished verification.
// Hashing itself is a cryptographic primitive and out of scope for this
// package (see package doc); Context only records into and snapshots from
// one.
type Transcript interface {
	Write(msg []byte)
	Sum() []byte
}

// Context holds the state of one handshake sequencing session: the
// negotiated Variant and Role, the current position in that Variant's
// sequence table, and the collaborators the action callbacks and the
// [Transport]/[Transcript] boundary are reached through. A Context is tied
// to exactly one logical session; external synchronization across
// goroutines is the caller's responsibility.
type Context struct {
	Variant Variant
	Role    Role

	Transport  Transport
	Transcript Transcript
	// NegotiatedVersion, when non-nil, is consulted after every message
	// whose type matched what was expected (once action.recv has actually
	// run); if it reports a version below TLS 1.3, Perform returns
	// [UseLegacy] in preference to any alert that recv queued. A message of
	// the wrong type is reported as [AlertUnexpectedMessage] immediately
	// instead, without ever reaching this check.
	NegotiatedVersion func() (below13 bool)
	// Logger, if set, receives handshake-progress tracing. Perform itself
	// never logs; this is purely for callers that want visibility into
	// which step is active.
	Logger tlslog.Logger

	callbacks map[MessageID]Callbacks

	index     int
	alert     Alert
	hasAlert  bool
	completed bool

	pendingMsg []byte // built but not yet fully sent

	// TranscriptHash is the most recent snapshot taken at a
	// sendPreserve/recvPreserve point. Each snapshot overwrites the
	// previous one; it is not keyed per message.
	TranscriptHash []byte
}

// NewContext creates a Context for the given Variant and local Role, wiring
// cb as the send/recv/sent callbacks for each [MessageID] cb supplies an
// entry for. A MessageID with no entry in cb uses a nil send/recv, which is
// only valid for messages the local Role never originates or receives under
// this Variant ([ValidateCallbacks] checks this; NewContext does not call it).
func NewContext(variant Variant, role Role, cb map[MessageID]Callbacks) *Context {
	return &Context{Variant: variant, Role: role, callbacks: cb}
}

// QueueAlert records an alert to send on the next loop iteration of Perform.
// A send/recv callback can call it instead of returning a hard error for
// cases it wants to report as a specific alert rather than a bare failure.
func (ctx *Context) QueueAlert(a Alert) {
	ctx.alert = a
	ctx.hasAlert = true
}

// Completed reports whether Perform has already returned [Success] for this
// Context.
func (ctx *Context) Completed() bool {
	return ctx.completed
}

// Perform drives the handshake state machine: it repeatedly
// dispatches the active message's send or receive path, advancing to the
// next table entry after each successful step, until the table's terminal
// MessageApplicationData entry is reached or a non-Success result requires
// the caller to act (propagate a failure, retry after WouldBlock, or fall
// back to a legacy handshake after UseLegacy).
func (ctx *Context) Perform() (Result, error) {
	for {
		id, ok := activeMessage(ctx.Variant, ctx.index)
		if !ok {
			return Failure, fmt.Errorf("handshake: no action for variant %v at index %d", ctx.Variant, ctx.index)
		}
		act, ok := actionTable[id]
		if !ok {
			return Failure, fmt.Errorf("handshake: no action table entry for %v", id)
		}

		if act.complete {
			ctx.completed = true
			ctx.Transport.HandshakeCompleted()
			return Success, nil
		}

		if ctx.hasAlert {
			return ctx.emitAlert()
		}

		var res Result
		var err error
		if act.sender == ctx.Role {
			res, err = ctx.sendAction(id, act)
		} else {
			res, err = ctx.recvAction(id, act)
		}
		if res != Success {
			return res, err
		}

		ctx.index++
		if _, ok := activeMessage(ctx.Variant, ctx.index); !ok {
			if ctx.Variant == 0 {
				return NegotiationComplete, nil
			}
			return Failure, errors.New("handshake: state machine exhausted without reaching APPLICATION_DATA")
		}
	}
}

// emitAlert sends the queued alert and terminates the handshake. A
// WouldBlock from the transport propagates unchanged with the alert still
// queued, so a retried Perform re-emits it.
func (ctx *Context) emitAlert() (Result, error) {
	res, err := ctx.Transport.SendAlert(ctx.alert)
	if res != Success {
		return res, err
	}
	return Failure, fmt.Errorf("handshake: aborted with alert %d", ctx.alert)
}

func (ctx *Context) log(format string, args ...any) {
	if ctx.Logger != nil {
		ctx.Logger.Debugf(format, args...)
	}
}

// sendAction implements the send path: lazily build the message
// the first time this step is entered, transmit it (possibly across several
// calls if the Transport reports WouldBlock), record it into the
// transcript, snapshot the transcript hash if requested, and run the
// post-send hook.
func (ctx *Context) sendAction(id MessageID, act *action) (Result, error) {
	if ctx.pendingMsg == nil {
		cb := ctx.callbacks[id]
		if cb.Send == nil {
			return Failure, fmt.Errorf("handshake: no send callback registered for %v", id)
		}
		var body bytes.Buffer
		if err := cb.Send(ctx, &body); err != nil {
			return Failure, err
		}
		if ctx.hasAlert {
			return ctx.emitAlert()
		}
		ctx.pendingMsg = frameMessage(act.handshakeType, body.Bytes())
	}

	res, err := ctx.Transport.Send(ctx.pendingMsg)
	if res != Success {
		return res, err
	}

	ctx.log("handshake: sent %v", id)
	if ctx.Transcript != nil {
		ctx.Transcript.Write(ctx.pendingMsg)
	}
	if act.sendPreserve && ctx.Transcript != nil {
		ctx.TranscriptHash = ctx.Transcript.Sum()
	}

	ctx.pendingMsg = nil

	cb := ctx.callbacks[id]
	if cb.Sent != nil {
		if err := cb.Sent(ctx); err != nil {
			return Failure, err
		}
	}
	return Success, nil
}

// recvAction implements the receive path.
func (ctx *Context) recvAction(id MessageID, act *action) (Result, error) {
	msgType, body, res, err := ctx.Transport.Recv()
	if res != Success {
		return res, err
	}

	if act.recvPreserve && ctx.Transcript != nil {
		ctx.TranscriptHash = ctx.Transcript.Sum()
	}
	if ctx.Transcript != nil {
		ctx.Transcript.Write(frameMessage(msgType, body))
	}

	// There is no way to know in advance whether the server will send a
	// CertificateRequest, so receiving a bare Certificate while expecting
	// CertificateRequest is accepted rather than treated as a mismatch. A
	// genuine mismatch returns the alert immediately: the recv callback is
	// never invoked and the version check below never runs.
	if msgType != act.handshakeType &&
		!(msgType == HandshakeTypeCertificate && act.handshakeType == HandshakeTypeCertificateRequest) {
		ctx.QueueAlert(AlertUnexpectedMessage)
		return ctx.emitAlert()
	}

	cb := ctx.callbacks[id]
	if cb.Recv == nil {
		return Failure, fmt.Errorf("handshake: no recv callback registered for %v", id)
	}
	c := cursor.New(body)
	if err := cb.Recv(ctx, &c); err != nil {
		ctx.QueueAlert(AlertDecodeError)
	} else if !c.IsEmpty() {
		ctx.QueueAlert(AlertDecodeError)
	} else {
		ctx.log("handshake: received %v", id)
	}

	// The post-receive version check runs once action.recv has actually
	// been invoked, even if it rejected the message: a pre-1.3 peer is
	// reported via UseLegacy in preference to whatever alert recv queued.
	if ctx.NegotiatedVersion != nil && ctx.NegotiatedVersion() {
		return UseLegacy, nil
	}
	if ctx.hasAlert {
		return ctx.emitAlert()
	}
	return Success, nil
}

// frameMessage prepends the 1-byte handshake type and 3-byte big-endian
// length header RFC 8446 §4 requires around every handshake message body.
func frameMessage(t HandshakeType, body []byte) []byte {
	n := len(body)
	msg := make([]byte, 4+n)
	msg[0] = byte(t)
	msg[1] = byte(n >> 16)
	msg[2] = byte(n >> 8)
	msg[3] = byte(n)
	copy(msg[4:], body)
	return msg
}

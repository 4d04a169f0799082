// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package handshake

import (
	"bytes"

	"kowi.dev/asn1/cursor"
)

// Role identifies which side of the handshake local code is playing.
type Role uint8

const (
	RoleClient Role = iota
	RoleServer
)

// Result is the outcome of one step of [Context.Perform]: a positive
// result versus a suspension the caller should retry later versus a hard
// failure.
type Result int

const (
	// Failure is a terminal, non-retryable error. Perform does not resume
	// after returning Failure; the Context must be discarded.
	Failure Result = iota
	// Success means the step (or, from Perform itself, the whole
	// handshake) completed; the caller should continue as normal.
	Success
	// WouldBlock means the [Transport] could not complete the requested
	// send or receive without blocking. The position in the sequence table
	// is left unchanged (a message already built for sending is kept and
	// sent as is on retry), so calling Perform again later resumes at the
	// same point.
	WouldBlock
	// UseLegacy means the peer turned out not to be negotiating TLS 1.3
	// after all, discovered via [Context.NegotiatedVersion] right after
	// processing the first server response. The caller should fall back to
	// its legacy-version handshake path.
	UseLegacy
	// NegotiationComplete means a Context running the bootstrap Variant 0
	// sequence reached its end (ServerHello processed). TLS 1.3 parameter
	// negotiation fixes the real Variant only once ServerHello has been
	// seen, so Variant 0's table stops there instead of continuing on to
	// MessageApplicationData; the caller builds a new Context for the now-
	// known Variant and calls Perform on it to continue the handshake.
	NegotiationComplete
)

// SendFunc builds the body of an outgoing handshake message by writing it to
// buf. It may call [Context.QueueAlert] to queue an alert instead of
// producing a message.
type SendFunc func(ctx *Context, buf *bytes.Buffer) error

// SentFunc runs once a message built by a [SendFunc] has been fully
// transmitted and recorded into the transcript; it corresponds to the
// original's per-action `sent` hook (e.g. installing new traffic keys right
// after the client's Finished went out).
type SentFunc func(ctx *Context) error

// RecvFunc parses the body of an incoming handshake message from c. Any
// bytes c does not consume are reported as TRAILING_DATA by the caller, so a
// RecvFunc need not check for trailing data itself.
type RecvFunc func(ctx *Context, c *cursor.Cursor) error

// action describes one handshake message: its wire [HandshakeType], which
// [Role] sends it, whether it is the table's terminal action, and at which
// points the transcript hash must be snapshotted. The callbacks that build
// or parse a message's content live in [Callbacks], supplied per [Context]
// via [NewContext] rather than baked into this table, since building and
// parsing handshake message bodies is cryptographic/certificate territory
// this package does not implement (see package doc).
type action struct {
	handshakeType HandshakeType
	sender        Role
	complete      bool
	sendPreserve  bool // send_preserve_transcript_hash
	recvPreserve  bool // recv_preserve_transcript_hash
}

// actionTable maps every [MessageID] that can appear in a sequence table to
// its action. MessageApplicationData's entry is the table's sole terminal
// action (complete = true).
var actionTable = map[MessageID]*action{
	MessageClientHello:               {handshakeType: HandshakeTypeClientHello, sender: RoleClient},
	MessageClientHelloRetry:          {handshakeType: HandshakeTypeClientHello, sender: RoleClient},
	MessageClientEndOfEarlyData:      {handshakeType: HandshakeTypeEndOfEarlyData, sender: RoleClient},
	MessageClientCertificate:         {handshakeType: HandshakeTypeCertificate, sender: RoleClient, sendPreserve: true},
	MessageClientCertificateVerify:   {handshakeType: HandshakeTypeCertificateVerify, sender: RoleClient, recvPreserve: true},
	MessageClientFinished:            {handshakeType: HandshakeTypeFinished, sender: RoleClient, recvPreserve: true},
	MessageServerHello:               {handshakeType: HandshakeTypeServerHello, sender: RoleServer},
	MessageServerHelloRetryRequest:   {handshakeType: HandshakeTypeServerHello, sender: RoleServer},
	MessageServerEncryptedExtensions: {handshakeType: HandshakeTypeEncryptedExtensions, sender: RoleServer},
	MessageServerCertificate:         {handshakeType: HandshakeTypeCertificate, sender: RoleServer, sendPreserve: true},
	MessageServerCertificateRequest:  {handshakeType: HandshakeTypeCertificateRequest, sender: RoleServer},
	MessageServerCertificateVerify:   {handshakeType: HandshakeTypeCertificateVerify, sender: RoleServer, recvPreserve: true},
	MessageServerFinished:            {handshakeType: HandshakeTypeFinished, sender: RoleServer, recvPreserve: true, sendPreserve: true},
	MessageApplicationData:           {complete: true},
}

// Callbacks bundles the send/recv/sent functions a caller supplies for one
// [MessageID]. [NewContext] stores these per-Context, alongside the shared,
// immutable [actionTable].
type Callbacks struct {
	Send SendFunc
	Sent SentFunc
	Recv RecvFunc
}

// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package handshake

// MessageID names one step of a handshake sequence table. It is the
// symbolic key the action table and the sequence tables are both indexed
// by.
type MessageID uint8

//go:generate stringer -type=MessageID -trimprefix=Message

const (
	// MessageInvalid marks an index past the end of the active sequence
	// table; it never appears in a sequence table itself.
	MessageInvalid MessageID = iota

	MessageClientHello
	MessageClientHelloRetry
	MessageClientEndOfEarlyData
	MessageClientCertificate
	MessageClientCertificateVerify
	MessageClientFinished

	MessageServerHello
	MessageServerHelloRetryRequest
	MessageServerEncryptedExtensions
	MessageServerCertificate
	MessageServerCertificateRequest
	MessageServerCertificateVerify
	MessageServerFinished

	// MessageApplicationData is the terminal entry of every sequence table:
	// its action carries Complete = true and no send/recv of its own.
	MessageApplicationData
)

// HandshakeType is the one-byte message type carried in the TLS handshake
// record header (RFC 8446 §4), used to verify that a received message
// matches what the active [action] expected.
type HandshakeType uint8

// The handshake message types this package's action table dispatches on.
// Types defined by RFC 8446 that never appear as the expected type of an
// [action] (HelloRetryRequest is wire-identical to ServerHello and
// distinguished by its random field, NewSessionTicket and KeyUpdate are
// post-handshake messages) are omitted.
const (
	HandshakeTypeClientHello         HandshakeType = 1
	HandshakeTypeServerHello         HandshakeType = 2
	HandshakeTypeEndOfEarlyData      HandshakeType = 5
	HandshakeTypeEncryptedExtensions HandshakeType = 8
	HandshakeTypeCertificate         HandshakeType = 11
	HandshakeTypeCertificateRequest  HandshakeType = 13
	HandshakeTypeCertificateVerify   HandshakeType = 15
	HandshakeTypeFinished            HandshakeType = 20
)

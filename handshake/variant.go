// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package handshake

// Variant is a bitset of the negotiated handshake properties that select
// which sequence table [Context.Perform] walks: whether a HelloRetryRequest
// round-trip happened, whether a pre-shared key was used, and whether the
// server asked for (and the client sent) a client certificate.
type Variant uint8

const (
	// Negotiated indicates that TLS 1.3 parameter negotiation has already
	// completed and the full message sequence (rather than just the
	// initial ClientHello/HelloRetryRequest/ServerHello exchange used to
	// get there) should run. Zero (no flags set) selects that initial,
	// pre-negotiation bootstrap sequence, which ends at ServerHello rather
	// than MessageApplicationData: see [NegotiationComplete].
	Negotiated Variant = 1 << iota
	// WithoutHRR indicates the server did not send a HelloRetryRequest, so
	// the sequence omits MessageServerHelloRetryRequest/ClientHelloRetry.
	WithoutHRR
	// WithoutCR indicates the server did not request a client certificate,
	// so the sequence omits MessageServerCertificateRequest and (since no
	// certificate was requested) MessageClientCertificate.
	WithoutCR
	// WithPSK indicates a pre-shared key was negotiated: no certificate
	// exchange of any kind takes place in either direction.
	WithPSK
	// WithCCV indicates the client sent a certificate and therefore must
	// also send a CertificateVerify (CCV, "client certificate verify").
	WithCCV
)

// sequenceTables maps each supported [Variant] combination to the ordered
// list of [MessageID]s that make up its handshake, terminated by
// MessageApplicationData in every table except the bootstrap Variant 0 one
// (see below). A Variant combination absent from this map has no
// valid handshake sequence and causes [Context.Perform] to fail immediately.
//
// Combinations with no meaningful handshake (e.g. WithPSK together with
// WithCCV, which RFC 8446 never produces since PSK mode skips certificates
// entirely) are simply absent.
var sequenceTables = map[Variant][]MessageID{
	// Bootstrap: runs before any Variant flag is known. Perform stops after
	// ServerHello with [NegotiationComplete] rather than continuing on, since
	// whether WithoutHRR/WithoutCR/WithPSK/WithCCV apply is only known once
	// the server's response has been inspected.
	0: {
		MessageClientHello,
		MessageServerHelloRetryRequest,
		MessageClientHelloRetry,
		MessageServerHello,
	},
	Negotiated: {
		MessageClientHello,
		MessageServerHelloRetryRequest,
		MessageClientHelloRetry,
		MessageServerHello,
		MessageServerEncryptedExtensions,
		MessageServerCertificateRequest,
		MessageServerCertificate,
		MessageServerCertificateVerify,
		MessageServerFinished,
		MessageClientCertificate,
		MessageClientFinished,
		MessageApplicationData,
	},
	Negotiated | WithoutHRR: {
		MessageClientHello,
		MessageServerHello,
		MessageServerEncryptedExtensions,
		MessageServerCertificateRequest,
		MessageServerCertificate,
		MessageServerCertificateVerify,
		MessageServerFinished,
		MessageClientCertificate,
		MessageClientFinished,
		MessageApplicationData,
	},
	Negotiated | WithoutCR: {
		MessageClientHello,
		MessageServerHelloRetryRequest,
		MessageClientHelloRetry,
		MessageServerHello,
		MessageServerEncryptedExtensions,
		MessageServerCertificate,
		MessageServerCertificateVerify,
		MessageServerFinished,
		MessageClientFinished,
		MessageApplicationData,
	},
	Negotiated | WithoutHRR | WithoutCR: {
		MessageClientHello,
		MessageServerHello,
		MessageServerEncryptedExtensions,
		MessageServerCertificate,
		MessageServerCertificateVerify,
		MessageServerFinished,
		MessageClientFinished,
		MessageApplicationData,
	},
	Negotiated | WithPSK: {
		MessageClientHello,
		MessageServerHelloRetryRequest,
		MessageClientHelloRetry,
		MessageServerHello,
		MessageServerEncryptedExtensions,
		MessageServerFinished,
		MessageClientFinished,
		MessageApplicationData,
	},
	Negotiated | WithoutHRR | WithPSK: {
		MessageClientHello,
		MessageServerHello,
		MessageServerEncryptedExtensions,
		MessageServerFinished,
		MessageClientFinished,
		MessageApplicationData,
	},
	Negotiated | WithCCV: {
		MessageClientHello,
		MessageServerHelloRetryRequest,
		MessageClientHelloRetry,
		MessageServerHello,
		MessageServerEncryptedExtensions,
		MessageServerCertificateRequest,
		MessageServerCertificate,
		MessageServerCertificateVerify,
		MessageServerFinished,
		MessageClientCertificate,
		MessageClientCertificateVerify,
		MessageClientFinished,
		MessageApplicationData,
	},
	Negotiated | WithoutHRR | WithCCV: {
		MessageClientHello,
		MessageServerHello,
		MessageServerEncryptedExtensions,
		MessageServerCertificateRequest,
		MessageServerCertificate,
		MessageServerCertificateVerify,
		MessageServerFinished,
		MessageClientCertificate,
		MessageClientCertificateVerify,
		MessageClientFinished,
		MessageApplicationData,
	},
}

// activeMessage returns the MessageID at the given index of variant's
// sequence table, and false if variant has no table or index runs past its
// end.
func activeMessage(variant Variant, index int) (MessageID, bool) {
	seq, ok := sequenceTables[variant]
	if !ok || index < 0 || index >= len(seq) {
		return MessageInvalid, false
	}
	return seq[index], true
}

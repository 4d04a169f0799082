// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package template

import "kowi.dev/asn1"

// Value is a decoded ASN.1 value produced by the template interpreter. There
// is no fixed Go type per ASN.1 type the way a reflection-based decoder would
// use: Data holds whichever concrete representation matches Tag, and callers
// type-switch on it. Ownership is hierarchical: a Value's children (if any)
// are reachable only through it; there is no shared mutable state between
// sibling decodes.
type Value struct {
	// Tag is the tag actually observed on the wire (after any IMPLICIT
	// override has already been applied at the encoding level).
	Tag         asn1.Tag
	Constructed bool

	// Data holds the decoded payload. Its concrete type depends on Tag:
	//
	//   bool                  BOOLEAN
	//   *big.Int              INTEGER (also ENUMERATED values too large for int64)
	//   asn1.Enumerated       ENUMERATED that fits an int64
	//   asn1.Null             NULL
	//   []byte                OCTET STRING
	//   asn1.ObjectIdentifier OBJECT IDENTIFIER
	//   asn1.RelativeOID      RELATIVE-OID
	//   asn1.BitString        BIT STRING
	//   asn1.UTF8String, asn1.NumericString, asn1.PrintableString,
	//   asn1.IA5String, asn1.VisibleString, asn1.BMPString,
	//   asn1.UniversalString  the corresponding string type
	//   RawString             any other string/time type, stored verbatim
	//   Other                 SEQUENCE, SET or OTHER retained verbatim
	//   Selection             a decoded CHOICE
	//   Aggregate             a decoded SEQUENCE, SET, SEQUENCE OF or SET OF
	Data any
}

// Aggregate is the Data of a decoded [Sequence] or [NdefSequence], and of a
// field marked [FlagSequenceOf] or [FlagSetOf]. Children holds one entry per
// field (or per repeated element) in order; an OPTIONAL field that was not
// present is represented by a nil entry rather than being omitted, so sibling
// indices always line up with the field descriptor list.
//
// Raw is the verbatim header+content span of the whole SEQUENCE/SET as
// encountered on the wire, used by callers that need to re-verify a signature
// over the original bytes (e.g. a certificate's TBSCertificate). It is unset
// for SEQUENCE OF/SET OF aggregates, which have no single template-level
// "whole object" a signature would cover.
type Aggregate struct {
	Children []*Value
	Raw      []byte
}

// Selection is the Data of a decoded [Choice]: Index identifies which
// alternative in the descriptor's Fields list was selected.
type Selection struct {
	Index int
	Value *Value
}

// Other is the Data of a primitive SEQUENCE, SET or OTHER item: rather than
// being decomposed into fields, the entire encoding (header and content) is
// retained verbatim for the caller to re-decode with a more specific
// descriptor, or to re-serialize unchanged.
type Other struct {
	Tag         asn1.Tag
	Constructed bool
	Raw         []byte // the full identifier+length+content encoding
}

// RawString is the Data of any string or time universal type that has no
// dedicated constructor (TeletexString, GeneralizedTime, Date, Duration, and
// so on): the content octets, verbatim, tagged with the universal type the
// item descriptor asked for (for ANY and MSTRING items, the one observed on
// the wire; under an IMPLICIT tag, the descriptor's UType). The template interpreter does not attempt to parse
// these; it leaves that to a caller that knows the exact expected subtype.
type RawString struct {
	UType asn1.Tag
	Bytes []byte
}

// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asn1

import "strings"

// Kind classifies the failures the decoder (see [kowi.dev/asn1/tlv] and
// [kowi.dev/asn1/template]) can report. Each detector records exactly one
// Kind; enclosing frames do not change the Kind, they wrap the error and
// attach Field/Type context (see [Error]).
type Kind uint8

//go:generate stringer -type=Kind -trimprefix=Kind

// Format errors: the byte stream itself is malformed.
const (
	_ Kind = iota
	KindBadObjectHeader
	KindTooLong
	KindWrongTag
	KindSequenceNotConstructed
	KindSequenceLengthMismatch
	KindUnexpectedEOC
	KindMissingEOC
	KindExplicitTagNotConstructed
	KindBMPStringIsWrongLength
	KindUniversalStringIsWrongLength
	KindNullIsWrongLength
	KindBooleanIsWrongLength

	// Content errors: the stream is well-formed BER but violates the shape
	// the item descriptor demands.
	KindNestedASN1String
	KindNestedTooDeep
	KindFieldMissing
	KindNoMatchingChoiceType
	KindMStringNotUniversal
	KindMStringWrongTag

	// Template errors: the item/field descriptor tree itself is invalid.
	KindBadTemplate
	KindIllegalTaggedAny
	KindIllegalOptionalAny
	KindIllegalOptionsOnItemTemplate

	// Resource errors. KindMallocFailure is reserved for callers (e.g. an
	// Extern decode function backed by manually managed memory); the decoder
	// itself never reports it, since a failed Go allocation panics instead of
	// returning.
	KindMallocFailure

	// Aggregate errors: wrapping wrappers produced by enclosing frames.
	KindNestedASN1Error
	KindAuxError
)

// Error is the structured error type produced throughout decoding. A chain of
// Errors linked by Unwrap models the annotated error stack described in the
// error handling design: the innermost Error carries the Kind that actually
// describes what went wrong, and every enclosing frame wraps it in an Error of
// Kind [KindNestedASN1Error] carrying the Field and/or Type name of the
// template frame that was active when the inner error propagated.
type Error struct {
	Kind  Kind
	Field string // name of the field descriptor active when the error occurred, if any
	Type  string // name of the item descriptor active when the error occurred, if any
	Tag   Tag    // the tag being processed, if known
	Err   error  // the underlying cause; nil for a leaf Error
}

// New creates a leaf [Error] of the given kind with a plain message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Err: errString(msg)}
}

// Newf is like [New] but wraps err as the cause instead of a plain message.
func Newf(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Wrap annotates err with the field and/or type name of the enclosing
// template frame, producing a [KindNestedASN1Error] wrapper. field or typ may
// be empty if not applicable. If err is nil, Wrap returns nil.
func Wrap(field, typ string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindNestedASN1Error, Field: field, Type: typ, Err: err}
}

func (e *Error) Error() string {
	var s strings.Builder
	if e.Kind != KindNestedASN1Error {
		s.WriteString(e.Kind.String())
	}
	if e.Field != "" || e.Type != "" {
		if s.Len() > 0 {
			s.WriteString(" ")
		}
		s.WriteString("(")
		if e.Type != "" {
			s.WriteString("type=")
			s.WriteString(e.Type)
		}
		if e.Field != "" {
			if e.Type != "" {
				s.WriteString(" ")
			}
			s.WriteString("field=")
			s.WriteString(e.Field)
		}
		s.WriteString(")")
	}
	if e.Err != nil {
		if s.Len() > 0 {
			s.WriteString(": ")
		}
		s.WriteString(e.Err.Error())
	}
	return s.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RootKind walks the Unwrap chain starting at err and returns the Kind of the
// innermost [*Error], i.e. the primary failure kind rather than any enclosing
// [KindNestedASN1Error] wrapper. It returns false if err does not wrap an
// [*Error].
func RootKind(err error) (Kind, bool) {
	var last *Error
	for err != nil {
		e, ok := err.(*Error)
		if !ok {
			break
		}
		last = e
		err = e.Err
	}
	if last == nil {
		return 0, false
	}
	return last.Kind, true
}

type errString string

func (e errString) Error() string { return string(e) }

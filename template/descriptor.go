// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package template implements a static, descriptor-driven BER decoder: rather
// than walking a Go struct via reflection, it walks a hand-built tree of
// [ItemDescriptor] and [FieldDescriptor] values that describes the shape of
// an ASN.1 type, the way OpenSSL's tasn_dec.c walks an ASN1_ITEM/ASN1_TEMPLATE
// tree. There is no code generation and no struct tag parsing: callers build
// the descriptor tree once (typically as package-level variables) and reuse
// it across every [Decode] call.
package template

import (
	"kowi.dev/asn1"
	"kowi.dev/asn1/cursor"
)

// ItemDescriptor describes the shape of a single ASN.1 type. It is a sealed
// interface; the only implementations are [*Primitive], [*MString],
// [*Choice], [*Sequence], [*NdefSequence], [*Extern] and [*ItemTemplate].
type ItemDescriptor interface {
	itemDescriptor()
}

// Primitive describes a leaf ASN.1 type identified by a single universal tag:
// BOOLEAN, INTEGER, NULL, OCTET STRING, an individual string or time type, or
// one of the two pseudo-types [asn1.TagANY] (resolve the concrete type from
// whatever tag is observed) and [asn1.TagOther] (store the encoding verbatim
// regardless of tag).
type Primitive struct {
	Name  string // used only to annotate errors
	UType asn1.Tag
	Funcs *PrimitiveFuncs // nil selects the built-in constructor for UType
}

func (*Primitive) itemDescriptor() {}

// MString describes an ASN.1 type that accepts any one of several string-like
// universal tags (what OpenSSL calls a "multi-string"), such as
// DisplayText ::= CHOICE { ia5String IA5String, visibleString VisibleString }
// collapsed into a single slot rather than a full CHOICE.
type MString struct {
	Name      string
	Permitted []asn1.Tag // universal tags this field accepts
}

func (*MString) itemDescriptor() {}

// Choice describes an ASN.1 CHOICE type: the fields are tried in order and the
// first one whose tag matches is selected.
type Choice struct {
	Name   string
	Fields []FieldDescriptor
	Pre    func() error        // called before any alternative is tried
	Post   func(*Value) error  // called after an alternative was selected
}

func (*Choice) itemDescriptor() {}

// Sequence describes an ASN.1 SEQUENCE or SET type with a fixed, ordered list
// of fields, using the definite-length form only. Tag defaults to
// [asn1.TagSequence] when zero; set it to [asn1.TagSet] to describe a SET.
type Sequence struct {
	Name   string
	Tag    asn1.Tag
	Fields []FieldDescriptor
	Pre    func() error
	Post   func(*Value) error
}

func (*Sequence) itemDescriptor() {}

// NdefSequence is identical to [Sequence] except that, in addition to the
// definite-length form, it also accepts the constructed indefinite-length
// form (terminated by an end-of-contents marker).
type NdefSequence struct {
	Sequence
}

func (*NdefSequence) itemDescriptor() {}

// Extern delegates decoding of a field entirely to an external function, for
// subtypes the template interpreter has no built-in notion of. Decode must
// advance c past exactly the bytes it consumed; when optional is true it may
// report absent instead of an error to mean "this value was not present".
type Extern struct {
	Name   string
	Decode func(c *cursor.Cursor, optional bool) (value *Value, absent bool, err error)
}

func (*Extern) itemDescriptor() {}

// ItemTemplate names a single [FieldDescriptor] as a standalone item, so a
// SEQUENCE OF/SET OF, or an EXPLICIT/IMPLICIT wrapper, can be decoded as its
// own type and reused elsewhere (e.g. as the element type of another
// SEQUENCE OF, or behind an ANY) without restating Field's flags at every
// use site.
//
// Field's own flags are the only ones that take effect: the tagOverride and
// optional a caller decoding this item passes in can't be merged into
// Field's flags, so decoding such a use rejects it outright with
// [asn1.KindIllegalOptionsOnItemTemplate] rather than silently ignoring it.
type ItemTemplate struct {
	Name  string
	Field FieldDescriptor
}

func (*ItemTemplate) itemDescriptor() {}

// PrimitiveFuncs lets an item descriptor replace the built-in constructor for
// a universal type.
type PrimitiveFuncs struct {
	// Decode receives the content octets (for UType SEQUENCE, SET or OTHER,
	// the full verbatim encoding including the header) together with the
	// constructed bit and tag of the header that was read, and must produce
	// the Go value to store in Value.Data.
	Decode func(content []byte, constructed bool, observed asn1.Tag) (any, error)
}

// FieldFlag is a bitset of the modifiers a [FieldDescriptor] can carry.
type FieldFlag uint16

const (
	// FlagOptional marks a field as OPTIONAL: if its expected tag does not
	// match what's observed, decoding continues with the field unset rather
	// than failing. Never valid together with an ANY item (use
	// [FlagOptional] on the CHOICE or SEQUENCE enclosing it instead).
	FlagOptional FieldFlag = 1 << iota
	// FlagExplicit wraps the field in an additional EXPLICIT context/
	// application/private tag given by Tag.
	FlagExplicit
	// FlagImplicit replaces the field's natural tag with Tag. Not valid on
	// CHOICE or MSTRING items, which have no single natural tag to replace.
	FlagImplicit
	// FlagSequenceOf treats Item as the element type of a SEQUENCE OF.
	FlagSequenceOf
	// FlagSetOf treats Item as the element type of a SET OF.
	FlagSetOf
)

// FieldDescriptor describes one slot in a [Choice], [Sequence] or
// [NdefSequence], or the outermost field passed to [DecodeField].
type FieldDescriptor struct {
	Name  string
	Flags FieldFlag
	Tag   asn1.Tag       // meaningful only together with FlagExplicit or FlagImplicit
	Item  ItemDescriptor // the field's own type, or the element type if SEQUENCE/SET OF

	// ADB ("ASN1 definition by"), when non-nil, resolves Item dynamically
	// from the values already decoded by the preceding fields of the
	// enclosing SEQUENCE, in declaration order. This replaces the pointer-
	// offset + switch that a reflection-based decoder would use to pick a
	// field's type based on a sibling discriminator (e.g. an OID naming an
	// algorithm, or a type tag naming a variant).
	ADB func(siblings Aggregate) ItemDescriptor
}

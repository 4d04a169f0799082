// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package template

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"kowi.dev/asn1"
	"kowi.dev/asn1/cursor"
)

func TestDecode_Null(t *testing.T) {
	v, n, err := Decode([]byte{0x05, 0x00}, &Primitive{Name: "x", UType: asn1.TagNull})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2", n)
	}
	if _, ok := v.Data.(asn1.Null); !ok {
		t.Errorf("Data = %#v, want asn1.Null", v.Data)
	}
}

func TestDecode_Null_WrongLength(t *testing.T) {
	_, _, err := Decode([]byte{0x05, 0x01, 0x00}, &Primitive{Name: "x", UType: asn1.TagNull})
	var e *asn1.Error
	if !errors.As(err, &e) {
		t.Fatalf("error = %v, want *asn1.Error", err)
	}
	if k, _ := asn1.RootKind(err); k != asn1.KindNullIsWrongLength {
		t.Errorf("RootKind = %v, want KindNullIsWrongLength", k)
	}
}

func TestDecode_Boolean(t *testing.T) {
	v, _, err := Decode([]byte{0x01, 0x01, 0xff}, &Primitive{Name: "x", UType: asn1.TagBoolean})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if v.Data != true {
		t.Errorf("Data = %v, want true", v.Data)
	}
}

func TestDecode_Boolean_WrongLength(t *testing.T) {
	_, _, err := Decode([]byte{0x01, 0x00}, &Primitive{Name: "x", UType: asn1.TagBoolean})
	if k, _ := asn1.RootKind(err); k != asn1.KindBooleanIsWrongLength {
		t.Errorf("RootKind = %v, want KindBooleanIsWrongLength", k)
	}
}

func TestDecode_Integer(t *testing.T) {
	tests := map[string]struct {
		in   []byte
		want int64
	}{
		"positive requiring leading zero": {[]byte{0x02, 0x02, 0x00, 0x80}, 128},
		"negative":                        {[]byte{0x02, 0x01, 0x80}, -128},
		"small positive":                  {[]byte{0x02, 0x01, 0x05}, 5},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v, _, err := Decode(tt.in, &Primitive{Name: "x", UType: asn1.TagInteger})
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			got, ok := v.Data.(*big.Int)
			if !ok || got.Int64() != tt.want {
				t.Errorf("Data = %v, want %d", v.Data, tt.want)
			}
		})
	}
}

func TestDecode_IndefiniteSequenceOfInteger(t *testing.T) {
	in := []byte{0x30, 0x80, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02, 0x00, 0x00}
	f := FieldDescriptor{
		Name:  "x",
		Flags: FlagSequenceOf,
		Item:  &Primitive{Name: "elem", UType: asn1.TagInteger},
	}
	v, n, err := DecodeField(in, f)
	if err != nil {
		t.Fatalf("DecodeField() error = %v", err)
	}
	if n != len(in) {
		t.Errorf("n = %d, want %d", n, len(in))
	}
	agg, ok := v.Data.(Aggregate)
	if !ok || len(agg.Children) != 2 {
		t.Fatalf("Data = %#v, want 2-element Aggregate", v.Data)
	}
	want := []int64{1, 2}
	for i, child := range agg.Children {
		got := child.Data.(*big.Int)
		if got.Int64() != want[i] {
			t.Errorf("element %d = %v, want %d", i, got, want[i])
		}
	}
}

func TestDecode_NestedTooDeep(t *testing.T) {
	// A self-referential NDEF-SEQUENCE descriptor: each level's single
	// OPTIONAL field is another instance of the same sequence.
	nested := &NdefSequence{Sequence{Name: "x"}}
	nested.Fields = []FieldDescriptor{
		{Name: "inner", Flags: FlagOptional, Item: nested},
	}

	// 31 nested indefinite-length constructed SEQUENCE headers with no EOCs:
	// recursion hits the depth guard before it ever needs one.
	var in []byte
	for range 31 {
		in = append(in, 0x30, 0x80)
	}
	_, _, err := Decode(in, nested)
	if k, _ := asn1.RootKind(err); k != asn1.KindNestedTooDeep {
		t.Errorf("RootKind = %v, want KindNestedTooDeep, err = %v", k, err)
	}
}

func TestDecode_Choice(t *testing.T) {
	choice := &Choice{
		Name: "x",
		Fields: []FieldDescriptor{
			{Name: "i", Item: &Primitive{Name: "i", UType: asn1.TagInteger}},
			{Name: "s", Item: &Primitive{Name: "s", UType: asn1.TagUTF8String}},
		},
	}
	v, _, err := Decode([]byte{0x0C, 0x03, 0x66, 0x6F, 0x6F}, choice)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	sel, ok := v.Data.(Selection)
	if !ok {
		t.Fatalf("Data = %#v, want Selection", v.Data)
	}
	if sel.Index != 1 {
		t.Errorf("Index = %d, want 1", sel.Index)
	}
	if sel.Value.Data != asn1.UTF8String("foo") {
		t.Errorf("Value.Data = %v, want \"foo\"", sel.Value.Data)
	}
}

func TestDecode_Choice_NoMatch(t *testing.T) {
	choice := &Choice{
		Name: "x",
		Fields: []FieldDescriptor{
			{Name: "i", Item: &Primitive{Name: "i", UType: asn1.TagInteger}},
			{Name: "s", Item: &Primitive{Name: "s", UType: asn1.TagUTF8String}},
		},
	}
	_, _, err := Decode([]byte{0x05, 0x00}, choice)
	if k, _ := asn1.RootKind(err); k != asn1.KindNoMatchingChoiceType {
		t.Errorf("RootKind = %v, want KindNoMatchingChoiceType", k)
	}
}

func TestDecode_OptionalFieldAbsent(t *testing.T) {
	// SEQUENCE { INTEGER, [0] INTEGER OPTIONAL, INTEGER } with the optional
	// field's TLV removed: the other two fields must still decode correctly.
	seq := &Sequence{
		Name: "x",
		Fields: []FieldDescriptor{
			{Name: "a", Item: &Primitive{Name: "a", UType: asn1.TagInteger}},
			{Name: "b", Flags: FlagOptional | FlagImplicit, Tag: asn1.ClassContextSpecific | 0, Item: &Primitive{Name: "b", UType: asn1.TagInteger}},
			{Name: "c", Item: &Primitive{Name: "c", UType: asn1.TagInteger}},
		},
	}
	in := []byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x03}
	v, _, err := Decode(in, seq)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	agg := v.Data.(Aggregate)
	if len(agg.Children) != 3 {
		t.Fatalf("len(Children) = %d, want 3", len(agg.Children))
	}
	if agg.Children[1] != nil {
		t.Errorf("Children[1] = %v, want nil (absent)", agg.Children[1])
	}
	if got := agg.Children[0].Data.(*big.Int).Int64(); got != 1 {
		t.Errorf("Children[0] = %d, want 1", got)
	}
	if got := agg.Children[2].Data.(*big.Int).Int64(); got != 3 {
		t.Errorf("Children[2] = %d, want 3", got)
	}
}

func TestDecode_FieldMissing(t *testing.T) {
	seq := &Sequence{
		Name: "x",
		Fields: []FieldDescriptor{
			{Name: "a", Item: &Primitive{Name: "a", UType: asn1.TagInteger}},
			{Name: "b", Item: &Primitive{Name: "b", UType: asn1.TagInteger}},
		},
	}
	in := []byte{0x30, 0x03, 0x02, 0x01, 0x01}
	_, _, err := Decode(in, seq)
	if k, _ := asn1.RootKind(err); k != asn1.KindFieldMissing {
		t.Errorf("RootKind = %v, want KindFieldMissing, err = %v", k, err)
	}
}

func TestDecodeField_Explicit(t *testing.T) {
	// [5] EXPLICIT INTEGER, value 7.
	in := []byte{0xA5, 0x03, 0x02, 0x01, 0x07}
	f := FieldDescriptor{
		Name:  "x",
		Flags: FlagExplicit,
		Tag:   asn1.ClassContextSpecific | 5,
		Item:  &Primitive{Name: "x", UType: asn1.TagInteger},
	}
	v, n, err := DecodeField(in, f)
	if err != nil {
		t.Fatalf("DecodeField() error = %v", err)
	}
	if n != len(in) {
		t.Errorf("n = %d, want %d", n, len(in))
	}
	if got := v.Data.(*big.Int).Int64(); got != 7 {
		t.Errorf("Data = %d, want 7", got)
	}
}

func TestDecodeField_Implicit(t *testing.T) {
	// [3] IMPLICIT INTEGER, value 9.
	in := []byte{0x83, 0x01, 0x09}
	f := FieldDescriptor{
		Name:  "x",
		Flags: FlagImplicit,
		Tag:   asn1.ClassContextSpecific | 3,
		Item:  &Primitive{Name: "x", UType: asn1.TagInteger},
	}
	v, _, err := DecodeField(in, f)
	if err != nil {
		t.Fatalf("DecodeField() error = %v", err)
	}
	if got := v.Data.(*big.Int).Int64(); got != 9 {
		t.Errorf("Data = %d, want 9", got)
	}
}

func TestDecodeField_IllegalOptionalAny(t *testing.T) {
	f := FieldDescriptor{
		Name:  "x",
		Flags: FlagOptional,
		Item:  &Primitive{Name: "x", UType: asn1.TagANY},
	}
	_, _, err := DecodeField([]byte{0x05, 0x00}, f)
	if k, _ := asn1.RootKind(err); k != asn1.KindIllegalOptionalAny {
		t.Errorf("RootKind = %v, want KindIllegalOptionalAny", k)
	}
}

func TestDecode_AnyNonUniversalStoredVerbatim(t *testing.T) {
	in := []byte{0xA0, 0x03, 0x01, 0x01, 0xFF} // [0] constructed, content = BOOLEAN TRUE
	v, n, err := Decode(in, &Primitive{Name: "x", UType: asn1.TagANY})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if n != len(in) {
		t.Errorf("n = %d, want %d", n, len(in))
	}
	other, ok := v.Data.(Other)
	if !ok {
		t.Fatalf("Data = %#v, want Other", v.Data)
	}
	if len(other.Raw) != len(in) {
		t.Errorf("len(Raw) = %d, want %d", len(other.Raw), len(in))
	}
}

func TestDecode_SequenceRawSpan(t *testing.T) {
	// SEQUENCE { INTEGER 1, INTEGER 2 } preceded and followed by bytes that
	// must not leak into the captured span.
	body := []byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02}
	in := append(append([]byte{0xFF}, body...), 0xFF)

	seq := &Sequence{
		Name: "x",
		Fields: []FieldDescriptor{
			{Name: "a", Item: &Primitive{Name: "a", UType: asn1.TagInteger}},
			{Name: "b", Item: &Primitive{Name: "b", UType: asn1.TagInteger}},
		},
	}
	v, n, err := Decode(in[1:], seq)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if n != len(body) {
		t.Errorf("n = %d, want %d", n, len(body))
	}
	agg, ok := v.Data.(Aggregate)
	if !ok {
		t.Fatalf("Data = %#v, want Aggregate", v.Data)
	}
	if !bytes.Equal(agg.Raw, body) {
		t.Errorf("Raw = %#v, want %#v", agg.Raw, body)
	}
}

func TestDecode_Extern(t *testing.T) {
	// A toy external type that just counts the leading 0xFF bytes of content,
	// standing in for a subtype the interpreter has no built-in notion of
	// (e.g. a length-prefixed binary blob decoded by hand).
	item := &Extern{
		Name: "ff-run",
		Decode: func(c *cursor.Cursor, optional bool) (*Value, bool, error) {
			n := 0
			for {
				save := *c
				b, ok := c.ReadByte()
				if !ok || b != 0xFF {
					*c = save
					break
				}
				n++
			}
			return &Value{Tag: asn1.TagOther, Data: n}, false, nil
		},
	}
	v, n, err := Decode([]byte{0xFF, 0xFF, 0xFF, 0x00}, item)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if n != 3 {
		t.Errorf("n = %d, want 3", n)
	}
	if got := v.Data.(int); got != 3 {
		t.Errorf("Data = %d, want 3", got)
	}
}

func TestDecode_SequencePrePostHooks(t *testing.T) {
	var preCalled bool
	var postValue *Value
	seq := &Sequence{
		Name: "x",
		Pre:  func() error { preCalled = true; return nil },
		Post: func(v *Value) error { postValue = v; return nil },
		Fields: []FieldDescriptor{
			{Name: "a", Item: &Primitive{Name: "a", UType: asn1.TagInteger}},
		},
	}
	in := []byte{0x30, 0x03, 0x02, 0x01, 0x07}
	v, _, err := Decode(in, seq)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !preCalled {
		t.Error("Pre was not called")
	}
	if postValue != v {
		t.Error("Post was not called with the decoded Value")
	}
}

func TestDecode_SequencePostError(t *testing.T) {
	seq := &Sequence{
		Name: "x",
		Post: func(v *Value) error { return errors.New("rejected") },
		Fields: []FieldDescriptor{
			{Name: "a", Item: &Primitive{Name: "a", UType: asn1.TagInteger}},
		},
	}
	in := []byte{0x30, 0x03, 0x02, 0x01, 0x07}
	_, _, err := Decode(in, seq)
	if err == nil {
		t.Fatal("expected Decode() to propagate the Post error")
	}
	if k, _ := asn1.RootKind(err); k != asn1.KindAuxError {
		t.Errorf("RootKind = %v, want KindAuxError", k)
	}
}

func TestDecode_SequenceOfRawUnset(t *testing.T) {
	// SEQUENCE OF INTEGER has no single template-level "whole object" a
	// signature would cover, so Raw stays nil.
	in := []byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02}
	f := FieldDescriptor{
		Name:  "x",
		Flags: FlagSequenceOf,
		Item:  &Primitive{Name: "elem", UType: asn1.TagInteger},
	}
	v, _, err := DecodeField(in, f)
	if err != nil {
		t.Fatalf("DecodeField() error = %v", err)
	}
	agg := v.Data.(Aggregate)
	if agg.Raw != nil {
		t.Errorf("Raw = %#v, want nil", agg.Raw)
	}
}

func TestDecode_ItemTemplate(t *testing.T) {
	// A standalone "SEQUENCE OF INTEGER" type, named once and reused as the
	// top-level item rather than restated at every field that needs it.
	intSeq := &ItemTemplate{
		Name: "IntSeq",
		Field: FieldDescriptor{
			Name:  "elems",
			Flags: FlagSequenceOf,
			Item:  &Primitive{Name: "elem", UType: asn1.TagInteger},
		},
	}
	in := []byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02}
	v, n, err := Decode(in, intSeq)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if n != len(in) {
		t.Errorf("n = %d, want %d", n, len(in))
	}
	agg, ok := v.Data.(Aggregate)
	if !ok || len(agg.Children) != 2 {
		t.Fatalf("Data = %#v, want 2-element Aggregate", v.Data)
	}
}

func TestDecode_ItemTemplate_IllegalImplicit(t *testing.T) {
	// Wrapping an ItemTemplate field in IMPLICIT tagging asks decode_item to
	// merge a tagOverride into a template whose own field already carries
	// its flags; that's rejected rather than silently dropped or merged.
	intSeq := &ItemTemplate{
		Name: "IntSeq",
		Field: FieldDescriptor{
			Name:  "elems",
			Flags: FlagSequenceOf,
			Item:  &Primitive{Name: "elem", UType: asn1.TagInteger},
		},
	}
	outer := FieldDescriptor{
		Name:  "wrapped",
		Flags: FlagImplicit,
		Tag:   asn1.ClassContextSpecific | 0x1F, // arbitrary context tag number
		Item:  intSeq,
	}
	_, _, err := DecodeField([]byte{0x30, 0x00}, outer)
	if k, _ := asn1.RootKind(err); k != asn1.KindIllegalOptionsOnItemTemplate {
		t.Errorf("RootKind = %v, want KindIllegalOptionsOnItemTemplate, err = %v", k, err)
	}
}

func TestDecode_ItemTemplate_IllegalOptional(t *testing.T) {
	intSeq := &ItemTemplate{
		Name: "IntSeq",
		Field: FieldDescriptor{
			Name:  "elems",
			Flags: FlagSequenceOf,
			Item:  &Primitive{Name: "elem", UType: asn1.TagInteger},
		},
	}
	choice := &Choice{
		Name: "x",
		Fields: []FieldDescriptor{
			{Name: "wrapped", Item: intSeq},
		},
	}
	// Trying an ItemTemplate as a CHOICE alternative always decodes it with
	// optional=true, which an ItemTemplate rejects outright.
	_, _, err := Decode([]byte{0x30, 0x00}, choice)
	if k, _ := asn1.RootKind(err); k != asn1.KindIllegalOptionsOnItemTemplate {
		t.Errorf("RootKind = %v, want KindIllegalOptionsOnItemTemplate, err = %v", k, err)
	}
}

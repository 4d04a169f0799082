// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package template

import (
	"kowi.dev/asn1"
	"kowi.dev/asn1/cursor"
	"kowi.dev/asn1/tlv"
)

// Decode parses input according to item and returns the decoded value
// together with the number of bytes of input it consumed. item describes the
// outermost value directly, with no IMPLICIT/EXPLICIT/OPTIONAL wrapper; use
// [DecodeField] if the outermost value needs one.
func Decode(input []byte, item ItemDescriptor) (*Value, int, error) {
	c := cursor.New(input)
	start := c
	v, _, err := decodeItem(&c, item, nil, false, 0)
	if err != nil {
		return nil, 0, err
	}
	return v, c.OffsetSince(start), nil
}

// DecodeField parses input according to field, honoring its OPTIONAL,
// EXPLICIT/IMPLICIT and SEQUENCE OF/SET OF modifiers. It returns a nil Value
// with no error if field is OPTIONAL and was not present.
func DecodeField(input []byte, field FieldDescriptor) (*Value, int, error) {
	c := cursor.New(input)
	start := c
	v, absent, err := decodeField(&c, &field, field.Flags&FlagOptional != 0, 0)
	if err != nil {
		return nil, 0, err
	}
	if absent {
		return nil, 0, nil
	}
	return v, c.OffsetSince(start), nil
}

// decodeItem dispatches on the concrete type of item. tagOverride, when
// non-nil, replaces the tag the item would otherwise expect (IMPLICIT
// tagging); optional selects whether a tag mismatch is a hard error or a
// reported absence.
func decodeItem(c *cursor.Cursor, item ItemDescriptor, tagOverride *asn1.Tag, optional bool, depth int) (*Value, bool, error) {
	depth++
	if depth > maxConstructedNest {
		return nil, false, asn1.New(asn1.KindNestedTooDeep, "item descriptor nested too deep")
	}
	switch it := item.(type) {
	case *Extern:
		v, absent, err := it.Decode(c, optional)
		if err != nil {
			return nil, false, asn1.Wrap(it.Name, "", err)
		}
		return v, absent, nil
	case *Primitive:
		return decodePrimitive(c, it, tagOverride, optional, depth)
	case *MString:
		if tagOverride != nil {
			return nil, false, asn1.New(asn1.KindBadTemplate, "MSTRING item cannot carry an IMPLICIT tag")
		}
		return decodeMString(c, it, optional, depth)
	case *Choice:
		if tagOverride != nil {
			return nil, false, asn1.New(asn1.KindBadTemplate, "CHOICE item cannot carry an IMPLICIT tag")
		}
		return decodeChoice(c, it, optional, depth)
	case *Sequence:
		return decodeSequence(c, it, false, tagOverride, optional, depth)
	case *NdefSequence:
		return decodeSequence(c, &it.Sequence, true, tagOverride, optional, depth)
	case *ItemTemplate:
		return decodeItemTemplate(c, it, tagOverride, optional, depth)
	default:
		return nil, false, asn1.New(asn1.KindBadTemplate, "unknown item descriptor kind")
	}
}

// decodeItemTemplate decodes an [ItemTemplate]: tagOverride and optional
// come from the caller that reached this item (an enclosing field's IMPLICIT tag or trial-optional
// decode), and there is nowhere to fold them into it.Field's own flags, so
// either one being set here is a template bug rather than something to
// merge or ignore.
func decodeItemTemplate(c *cursor.Cursor, it *ItemTemplate, tagOverride *asn1.Tag, optional bool, depth int) (*Value, bool, error) {
	if tagOverride != nil || optional {
		return nil, false, asn1.Wrap(it.Name, "", asn1.New(asn1.KindIllegalOptionsOnItemTemplate, "tagging and OPTIONAL are illegal on an item template"))
	}
	v, absent, err := decodeField(c, &it.Field, it.Field.Flags&FlagOptional != 0, depth)
	if err != nil {
		return nil, false, asn1.Wrap(it.Name, "", err)
	}
	return v, absent, nil
}

// decodeField implements the per-field logic: template
// validation, the EXPLICIT wrapper, the IMPLICIT tag override, and dispatch
// into SEQUENCE OF/SET OF handling or a plain item decode.
func decodeField(c *cursor.Cursor, f *FieldDescriptor, optional bool, depth int) (*Value, bool, error) {
	if f.Flags&FlagExplicit != 0 && f.Flags&FlagImplicit != 0 {
		return nil, false, asn1.New(asn1.KindBadTemplate, "a field cannot be both EXPLICIT and IMPLICIT")
	}
	if f.Flags&FlagSequenceOf != 0 && f.Flags&FlagSetOf != 0 {
		return nil, false, asn1.New(asn1.KindBadTemplate, "a field cannot be both SEQUENCE OF and SET OF")
	}
	if p, ok := f.Item.(*Primitive); ok && p.UType == asn1.TagANY {
		if f.Flags&FlagOptional != 0 {
			return nil, false, asn1.New(asn1.KindIllegalOptionalAny, "an ANY field cannot be OPTIONAL")
		}
		if f.Flags&(FlagExplicit|FlagImplicit) != 0 {
			return nil, false, asn1.New(asn1.KindIllegalTaggedAny, "an ANY field cannot be tagged")
		}
	}
	if _, ok := f.Item.(*MString); ok && f.Flags&FlagImplicit != 0 {
		return nil, false, asn1.New(asn1.KindBadTemplate, "an MSTRING field cannot be IMPLICIT")
	}
	if _, ok := f.Item.(*Choice); ok && f.Flags&FlagImplicit != 0 {
		return nil, false, asn1.New(asn1.KindBadTemplate, "a CHOICE field cannot be IMPLICIT")
	}

	if f.Flags&FlagExplicit != 0 {
		return decodeExplicit(c, f, optional, depth)
	}

	var override *asn1.Tag
	if f.Flags&FlagImplicit != 0 {
		t := f.Tag
		override = &t
	}
	if f.Flags&(FlagSequenceOf|FlagSetOf) != 0 {
		return decodeRepeated(c, f, override, optional, depth)
	}
	return decodeItem(c, f.Item, override, optional, depth)
}

// decodeExplicit reads the EXPLICIT wrapper tag given by f.Tag, then decodes
// f's underlying item (with no tag override of its own) from its content.
func decodeExplicit(c *cursor.Cursor, f *FieldDescriptor, optional bool, depth int) (*Value, bool, error) {
	h, absent, err := tlv.ReadHeader(c, &f.Tag, optional)
	if absent {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !h.Constructed {
		return nil, false, asn1.New(asn1.KindExplicitTagNotConstructed, "EXPLICIT tag must use the constructed encoding")
	}

	var content cursor.Cursor
	if h.Indefinite {
		content = *c
	} else {
		sub, ok := c.ReadFixed(h.Length)
		if !ok {
			return nil, false, asn1.New(asn1.KindTooLong, "declared length exceeds remaining input")
		}
		content = sub
	}

	inner := *f
	inner.Flags &^= FlagExplicit

	var v *Value
	if inner.Flags&(FlagSequenceOf|FlagSetOf) != 0 {
		v, _, err = decodeRepeated(&content, &inner, nil, false, depth)
	} else {
		v, _, err = decodeItem(&content, inner.Item, nil, false, depth)
	}
	if err != nil {
		return nil, false, err
	}

	if h.Indefinite {
		isEOC, err := peekEOC(&content)
		if err != nil {
			return nil, false, err
		}
		if !isEOC {
			return nil, false, asn1.New(asn1.KindMissingEOC, "expected end-of-contents closing EXPLICIT wrapper")
		}
		*c = content
	} else if !content.IsEmpty() {
		return nil, false, asn1.New(asn1.KindSequenceLengthMismatch, "trailing data inside EXPLICIT wrapper")
	}
	return v, false, nil
}

// decodePrimitive reads a leaf value, including the ANY pseudo-type's
// dynamic dispatch.
func decodePrimitive(c *cursor.Cursor, item *Primitive, tagOverride *asn1.Tag, optional bool, depth int) (*Value, bool, error) {
	if item.UType == asn1.TagANY {
		return decodeAny(c, depth)
	}

	rawStart := *c
	var expect *asn1.Tag
	switch {
	case tagOverride != nil:
		expect = tagOverride
	case item.UType == asn1.TagOther:
		// OTHER accepts whatever tag is present; it exists to capture an
		// encoding verbatim, not to constrain it.
		expect = nil
	default:
		u := item.UType
		expect = &u
	}

	h, absent, err := tlv.ReadHeader(c, expect, optional)
	if absent {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, asn1.Wrap(item.Name, "", err)
	}
	content, err := decodePrimitiveContent(c, rawStart, h, item.UType, depth)
	if err != nil {
		return nil, false, asn1.Wrap(item.Name, "", err)
	}
	v, err := constructPrimitive(item, h, content)
	if err != nil {
		return nil, false, asn1.Wrap(item.Name, "", err)
	}
	return v, false, nil
}

// decodeAny decodes an ANY slot: the tag actually observed determines how the
// content is interpreted, with no expectation placed on the cursor. A
// non-UNIVERSAL class is stored verbatim as [Other] rather than resolved
// through the universal constructor table.
func decodeAny(c *cursor.Cursor, depth int) (*Value, bool, error) {
	rawStart := *c
	h, _, err := tlv.ReadHeader(c, nil, false)
	if err != nil {
		return nil, false, err
	}
	if h.Tag == asn1.TagReserved && !h.Constructed && h.Length == 0 {
		return nil, false, asn1.New(asn1.KindUnexpectedEOC, "end-of-contents marker where a value was expected")
	}
	if h.Tag.Class() != asn1.ClassUniversal {
		if h.Indefinite {
			if err := findEnd(c, depth); err != nil {
				return nil, false, err
			}
		} else if !c.Skip(h.Length) {
			return nil, false, asn1.New(asn1.KindTooLong, "declared length exceeds remaining input")
		}
		n := c.OffsetSince(rawStart)
		raw := append([]byte(nil), rawStart.Bytes()[:n:n]...)
		return &Value{Tag: h.Tag, Constructed: h.Constructed, Data: Other{Tag: h.Tag, Constructed: h.Constructed, Raw: raw}}, false, nil
	}
	content, err := decodePrimitiveContent(c, rawStart, h, h.Tag, depth)
	if err != nil {
		return nil, false, err
	}
	data, err := defaultConstruct(h.Tag, h, content)
	if err != nil {
		return nil, false, err
	}
	return &Value{Tag: h.Tag, Constructed: h.Constructed, Data: data}, false, nil
}

// decodeMString decodes a multi-string slot: any of the descriptor's
// permitted universal string tags is accepted.
func decodeMString(c *cursor.Cursor, item *MString, optional bool, depth int) (*Value, bool, error) {
	start := *c
	h, _, err := tlv.ReadHeader(c, nil, false)
	if err != nil {
		return nil, false, asn1.Wrap(item.Name, "", err)
	}

	permitted := false
	for _, t := range item.Permitted {
		if h.Tag == t {
			permitted = true
			break
		}
	}
	if h.Tag.Class() != asn1.ClassUniversal || !permitted {
		if optional {
			*c = start
			return nil, true, nil
		}
		kind := asn1.KindMStringWrongTag
		if h.Tag.Class() != asn1.ClassUniversal {
			kind = asn1.KindMStringNotUniversal
		}
		return nil, false, asn1.Wrap(item.Name, "", asn1.New(kind, "tag not permitted for this multi-string"))
	}

	content, err := decodePrimitiveContent(c, start, h, h.Tag, depth)
	if err != nil {
		return nil, false, asn1.Wrap(item.Name, "", err)
	}
	data, err := defaultConstruct(h.Tag, h, content)
	if err != nil {
		return nil, false, asn1.Wrap(item.Name, "", err)
	}
	return &Value{Tag: h.Tag, Constructed: h.Constructed, Data: data}, false, nil
}

// decodeChoice decodes a CHOICE: fields are tried in order as trial-optional
// decodes; the first to match wins.
func decodeChoice(c *cursor.Cursor, item *Choice, optional bool, depth int) (*Value, bool, error) {
	if item.Pre != nil {
		if err := item.Pre(); err != nil {
			return nil, false, asn1.Wrap(item.Name, "", asn1.Newf(asn1.KindAuxError, err))
		}
	}
	for i := range item.Fields {
		f := &item.Fields[i]
		v, absent, err := decodeField(c, f, true, depth)
		if err != nil {
			return nil, false, asn1.Wrap(f.Name, item.Name, err)
		}
		if absent {
			continue
		}
		cv := &Value{Tag: v.Tag, Constructed: v.Constructed, Data: Selection{Index: i, Value: v}}
		if item.Post != nil {
			if err := item.Post(cv); err != nil {
				return nil, false, asn1.Wrap(item.Name, "", asn1.Newf(asn1.KindAuxError, err))
			}
		}
		return cv, false, nil
	}
	if optional {
		return nil, true, nil
	}
	return nil, false, asn1.New(asn1.KindNoMatchingChoiceType, "no CHOICE alternative matched")
}

// decodeSequence decodes a SEQUENCE or SET with a fixed field list. ndef
// selects whether the indefinite-length form is accepted in addition to the
// definite-length form.
func decodeSequence(c *cursor.Cursor, item *Sequence, ndef bool, tagOverride *asn1.Tag, optional bool, depth int) (*Value, bool, error) {
	expectTag := item.Tag
	if expectTag == 0 {
		expectTag = asn1.TagSequence
	}
	if tagOverride != nil {
		expectTag = *tagOverride
	}

	rawStart := *c
	h, absent, err := tlv.ReadHeader(c, &expectTag, optional)
	if absent {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, asn1.Wrap(item.Name, "", err)
	}
	if !h.Constructed {
		return nil, false, asn1.Wrap(item.Name, "", asn1.New(asn1.KindSequenceNotConstructed, "SEQUENCE/SET must use the constructed encoding"))
	}
	if h.Indefinite && !ndef {
		return nil, false, asn1.Wrap(item.Name, "", asn1.New(asn1.KindSequenceLengthMismatch, "indefinite length not permitted here"))
	}

	var content cursor.Cursor
	eocNeeded := h.Indefinite
	if h.Indefinite {
		content = *c
	} else {
		sub, ok := c.ReadFixed(h.Length)
		if !ok {
			return nil, false, asn1.Wrap(item.Name, "", asn1.New(asn1.KindTooLong, "declared length exceeds remaining input"))
		}
		content = sub
	}

	if item.Pre != nil {
		if err := item.Pre(); err != nil {
			return nil, false, asn1.Wrap(item.Name, "", asn1.Newf(asn1.KindAuxError, err))
		}
	}

	children := make([]*Value, 0, len(item.Fields))
	for i := range item.Fields {
		f := item.Fields[i]

		if content.IsEmpty() {
			break
		}
		isEOC, err := peekEOC(&content)
		if err != nil {
			return nil, false, asn1.Wrap(f.Name, item.Name, err)
		}
		if isEOC {
			if !eocNeeded {
				return nil, false, asn1.Wrap(item.Name, "", asn1.New(asn1.KindUnexpectedEOC, "end-of-contents marker in definite-length encoding"))
			}
			eocNeeded = false
			break
		}

		if f.ADB != nil {
			f.Item = f.ADB(Aggregate{Children: children})
		}

		fieldOptional := f.Flags&FlagOptional != 0
		if i == len(item.Fields)-1 {
			// The last field is attempted as if it were required even when
			// marked OPTIONAL: with bytes still present, a tag mismatch
			// there is treated as a hard error rather than silently leaving
			// the field unset. Whether the field is truly OPTIONAL still
			// governs the "was it present at all" check below.
			fieldOptional = false
		}

		v, fieldAbsent, err := decodeField(&content, &f, fieldOptional, depth)
		if err != nil {
			return nil, false, asn1.Wrap(f.Name, item.Name, err)
		}
		if fieldAbsent {
			children = append(children, nil)
			continue
		}
		children = append(children, v)
	}

	if eocNeeded {
		isEOC, err := peekEOC(&content)
		if err != nil {
			return nil, false, asn1.Wrap(item.Name, "", err)
		}
		if !isEOC {
			return nil, false, asn1.Wrap(item.Name, "", asn1.New(asn1.KindMissingEOC, "expected end-of-contents"))
		}
		*c = content
	} else if h.Indefinite {
		*c = content
	} else if !content.IsEmpty() {
		return nil, false, asn1.Wrap(item.Name, "", asn1.New(asn1.KindSequenceLengthMismatch, "trailing data in SEQUENCE/SET"))
	}

	for i := len(children); i < len(item.Fields); i++ {
		if item.Fields[i].Flags&FlagOptional == 0 {
			return nil, false, asn1.Wrap(item.Fields[i].Name, item.Name, asn1.New(asn1.KindFieldMissing, "required field missing"))
		}
		children = append(children, nil)
	}

	n := c.OffsetSince(rawStart)
	raw := append([]byte(nil), rawStart.Bytes()[:n:n]...)
	v := &Value{Tag: h.Tag, Constructed: true, Data: Aggregate{Children: children, Raw: raw}}

	if item.Post != nil {
		if err := item.Post(v); err != nil {
			return nil, false, asn1.Wrap(item.Name, "", asn1.Newf(asn1.KindAuxError, err))
		}
	}
	return v, false, nil
}

// decodeRepeated decodes a SEQUENCE OF/SET OF, reading elements of
// f.Item until the declared length (or, for indefinite length, the
// end-of-contents marker) is exhausted.
func decodeRepeated(c *cursor.Cursor, f *FieldDescriptor, tagOverride *asn1.Tag, optional bool, depth int) (*Value, bool, error) {
	wantTag := asn1.TagSequence
	if f.Flags&FlagSetOf != 0 {
		wantTag = asn1.TagSet
	}
	if tagOverride != nil {
		wantTag = *tagOverride
	}

	h, absent, err := tlv.ReadHeader(c, &wantTag, optional)
	if absent {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, asn1.Wrap(f.Name, "", err)
	}
	if !h.Constructed {
		return nil, false, asn1.Wrap(f.Name, "", asn1.New(asn1.KindSequenceNotConstructed, "SEQUENCE OF/SET OF must use the constructed encoding"))
	}

	var content cursor.Cursor
	eocNeeded := h.Indefinite
	if h.Indefinite {
		content = *c
	} else {
		sub, ok := c.ReadFixed(h.Length)
		if !ok {
			return nil, false, asn1.Wrap(f.Name, "", asn1.New(asn1.KindTooLong, "declared length exceeds remaining input"))
		}
		content = sub
	}

	var elems []*Value
	for {
		if content.IsEmpty() {
			break
		}
		isEOC, err := peekEOC(&content)
		if err != nil {
			return nil, false, asn1.Wrap(f.Name, "", err)
		}
		if isEOC {
			if !eocNeeded {
				return nil, false, asn1.Wrap(f.Name, "", asn1.New(asn1.KindUnexpectedEOC, "end-of-contents marker in definite-length encoding"))
			}
			eocNeeded = false
			break
		}
		v, _, err := decodeItem(&content, f.Item, nil, false, depth)
		if err != nil {
			return nil, false, asn1.Wrap(f.Name, "", err)
		}
		elems = append(elems, v)
	}

	if eocNeeded {
		return nil, false, asn1.Wrap(f.Name, "", asn1.New(asn1.KindMissingEOC, "expected end-of-contents"))
	}
	if h.Indefinite {
		*c = content
	} else if !content.IsEmpty() {
		return nil, false, asn1.Wrap(f.Name, "", asn1.New(asn1.KindSequenceLengthMismatch, "trailing data in SEQUENCE OF/SET OF"))
	}
	return &Value{Tag: h.Tag, Constructed: true, Data: Aggregate{Children: elems}}, false, nil
}

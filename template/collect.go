// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package template

import (
	"kowi.dev/asn1"
	"kowi.dev/asn1/cursor"
	"kowi.dev/asn1/tlv"
)

// maxStringNest bounds how deeply a constructed string encoding may nest
// further constructed fragments inside itself before [collect] gives up with
// [asn1.KindNestedASN1String].
const maxStringNest = 5

// maxConstructedNest bounds general item-descriptor recursion in decode.go.
// [findEnd] also gives up with [asn1.KindNestedTooDeep] when it is entered at
// a depth beyond it; the nesting of indefinite-length values inside the span
// findEnd skips is counted iteratively and is not bounded by it.
const maxConstructedNest = 30

// decodePrimitiveContent extracts the content octets of a primitive encoding
// described by h, whose identifier+length octets have already been consumed
// from c by the caller (rawStart is a snapshot of c from just before that
// read). For utype SEQUENCE, SET or OTHER the "content" is instead the full
// verbatim header+body span, copied into a fresh slice for the caller to
// store or re-decode later. For any other type, a constructed encoding is
// flattened via [collect]; a primitive encoding is simply the next h.Length
// bytes.
func decodePrimitiveContent(c *cursor.Cursor, rawStart cursor.Cursor, h tlv.Header, utype asn1.Tag, depth int) ([]byte, error) {
	switch utype {
	case asn1.TagSequence, asn1.TagSet, asn1.TagOther:
		if h.Indefinite {
			if err := findEnd(c, depth); err != nil {
				return nil, err
			}
		} else if !c.Skip(h.Length) {
			return nil, asn1.New(asn1.KindTooLong, "declared length exceeds remaining input")
		}
		n := c.OffsetSince(rawStart)
		raw := rawStart.Bytes()[:n:n]
		return append([]byte(nil), raw...), nil
	default:
		if h.Constructed {
			return collect(c, h, 1)
		}
		sub, ok := c.ReadFixed(h.Length)
		if !ok {
			return nil, asn1.New(asn1.KindTooLong, "declared length exceeds remaining input")
		}
		return sub.Bytes(), nil
	}
}

// findEnd walks forward from c, which must sit just after an indefinite-
// length constructed header, to the position just past the matching
// end-of-contents marker, advancing c to that position. It does not
// interpret the skipped content in any way beyond recognizing nested
// indefinite-length constructed headers (so its own EOC markers are
// accounted for) and definite-length headers (whose content it skips whole).
func findEnd(c *cursor.Cursor, depth int) error {
	if depth > maxConstructedNest {
		return asn1.New(asn1.KindNestedTooDeep, "constructed nesting exceeds limit")
	}
	nesting := 1
	for nesting > 0 {
		if c.IsEmpty() {
			return asn1.New(asn1.KindMissingEOC, "indefinite-length encoding missing end-of-contents")
		}
		h, _, err := tlv.ReadHeader(c, nil, false)
		if err != nil {
			return err
		}
		switch {
		case h.Tag == asn1.TagReserved && !h.Constructed && h.Length == 0:
			nesting--
		case h.Indefinite:
			nesting++
		default:
			if !c.Skip(h.Length) {
				return asn1.New(asn1.KindTooLong, "declared length exceeds remaining input")
			}
		}
	}
	return nil
}

// collect implements the "Collect" step of the constructed-string handling:
// it flattens a constructed encoding of a primitive string type (h, already
// consumed from the enclosing cursor) into one contiguous byte buffer, per
// Rec. ITU-T X.690 §8.23.3/8.21. Every fragment must carry a UNIVERSAL class
// tag; the fragment's own tag number is not otherwise checked.
func collect(c *cursor.Cursor, h tlv.Header, nest int) ([]byte, error) {
	if nest > maxStringNest {
		return nil, asn1.New(asn1.KindNestedASN1String, "constructed string nested too deep")
	}
	if h.Indefinite {
		return collectIndefinite(c, nest)
	}
	sub, ok := c.ReadFixed(h.Length)
	if !ok {
		return nil, asn1.New(asn1.KindTooLong, "declared length exceeds remaining input")
	}
	return collectDefinite(&sub, nest)
}

func collectDefinite(c *cursor.Cursor, nest int) ([]byte, error) {
	var buf []byte
	for !c.IsEmpty() {
		h, _, err := tlv.ReadHeader(c, nil, false)
		if err != nil {
			return nil, err
		}
		frag, err := collectFragment(c, h, nest)
		if err != nil {
			return nil, err
		}
		buf = append(buf, frag...)
	}
	return buf, nil
}

func collectIndefinite(c *cursor.Cursor, nest int) ([]byte, error) {
	var buf []byte
	for {
		h, _, err := tlv.ReadHeader(c, nil, false)
		if err != nil {
			return nil, err
		}
		if h.Tag == asn1.TagReserved && !h.Constructed && h.Length == 0 {
			return buf, nil
		}
		frag, err := collectFragment(c, h, nest)
		if err != nil {
			return nil, err
		}
		buf = append(buf, frag...)
	}
}

// collectFragment handles one already-consumed header h nested inside a
// constructed string.
func collectFragment(c *cursor.Cursor, h tlv.Header, nest int) ([]byte, error) {
	if h.Tag.Class() != asn1.ClassUniversal {
		return nil, asn1.New(asn1.KindNestedASN1String, "non-universal class nested in constructed string")
	}
	if !h.Constructed {
		sub, ok := c.ReadFixed(h.Length)
		if !ok {
			return nil, asn1.New(asn1.KindTooLong, "declared length exceeds remaining input")
		}
		return sub.Bytes(), nil
	}
	return collect(c, h, nest+1)
}

// peekEOC reports whether the next header in c is an end-of-contents marker.
// If it is, c is advanced past it (the marker is consumed) and true is
// returned; otherwise c is left exactly where it was so the caller can go on
// to read whatever value actually comes next.
func peekEOC(c *cursor.Cursor) (bool, error) {
	save := *c
	h, _, err := tlv.ReadHeader(c, nil, false)
	if err != nil {
		*c = save
		return false, err
	}
	if h.Tag == asn1.TagReserved && !h.Constructed && h.Length == 0 {
		return true, nil
	}
	*c = save
	return false, nil
}

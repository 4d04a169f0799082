// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strings"

	"kowi.dev/asn1"
	"kowi.dev/asn1/cursor"
	"kowi.dev/asn1/template"
	"kowi.dev/asn1/tlv"
)

// anyItem is the generic top-level descriptor: decode whatever tag is
// encountered, with no expectation about the type, exactly the item
// descriptor an implementation reaching for [template.Decode] without a
// concrete schema in hand would reach for.
var anyItem = &template.Primitive{Name: "value", UType: asn1.TagANY}

// dump decodes data as a single ANY-typed value and prints its tree to w,
// recursively re-expanding any SEQUENCE/SET content that the template
// interpreter stored verbatim (see [template.Other]) as a nested sequence of
// ANY elements, up to maxDepth levels. Content under a non-UNIVERSAL tag
// (such as an EXPLICIT wrapper) is printed as one verbatim value and not
// expanded.
func dump(w io.Writer, data []byte, maxDepth int) error {
	v, n, err := template.Decode(data, anyItem)
	if err != nil {
		return err
	}
	if err := printValue(w, v, 0, maxDepth); err != nil {
		return err
	}
	if n != len(data) {
		fmt.Fprintf(w, "# %d trailing byte(s) not consumed\n", len(data)-n)
	}
	return nil
}

func printValue(w io.Writer, v *template.Value, depth, maxDepth int) error {
	indent := strings.Repeat("  ", depth)
	switch data := v.Data.(type) {
	case template.Other:
		fmt.Fprintf(w, "%s%s (%d bytes)\n", indent, v.Tag, len(data.Raw))
		if data.Tag != asn1.TagSequence && data.Tag != asn1.TagSet {
			return nil
		}
		if depth >= maxDepth {
			fmt.Fprintf(w, "%s  ... (max depth reached)\n", indent)
			return nil
		}
		children, err := expandConstructed(data.Raw)
		if err != nil {
			fmt.Fprintf(w, "%s  <not further decodable: %v>\n", indent, err)
			return nil
		}
		for _, c := range children {
			if err := printValue(w, c, depth+1, maxDepth); err != nil {
				return err
			}
		}
		return nil
	default:
		fmt.Fprintf(w, "%s%s %v\n", indent, v.Tag, data)
		return nil
	}
}

// expandConstructed reinterprets raw (a verbatim SEQUENCE/SET span,
// identifier octets included) as a sequence of ANY-typed elements.
func expandConstructed(raw []byte) ([]*template.Value, error) {
	c := cursor.New(raw)
	h, _, err := tlv.ReadHeader(&c, nil, false)
	if err != nil {
		return nil, err
	}

	if h.Indefinite {
		return nil, fmt.Errorf("asn1dump: recursive expansion of indefinite-length content is not supported")
	}
	content, ok := c.ReadFixed(h.Length)
	if !ok {
		return nil, fmt.Errorf("asn1dump: declared length exceeds remaining input")
	}

	var children []*template.Value
	for !content.IsEmpty() {
		v, n, err := template.Decode(content.Bytes(), anyItem)
		if err != nil {
			return nil, err
		}
		children = append(children, v)
		if !content.Skip(n) {
			return nil, fmt.Errorf("asn1dump: internal error advancing past decoded element")
		}
	}
	return children, nil
}

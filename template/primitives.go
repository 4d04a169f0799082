// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package template

import (
	"math/big"
	"strings"
	"unicode/utf16"

	"kowi.dev/asn1"
	"kowi.dev/asn1/cursor"
	"kowi.dev/asn1/internal/vlq"
	"kowi.dev/asn1/tlv"
)

// constructPrimitive builds a [Value] from the content octets of a primitive
// encoding, using item's Funcs override if set or the built-in constructor
// table otherwise.
func constructPrimitive(item *Primitive, h tlv.Header, content []byte) (*Value, error) {
	if item.Funcs != nil {
		data, err := item.Funcs.Decode(content, h.Constructed, h.Tag)
		if err != nil {
			return nil, err
		}
		return &Value{Tag: h.Tag, Constructed: h.Constructed, Data: data}, nil
	}
	data, err := defaultConstruct(item.UType, h, content)
	if err != nil {
		return nil, err
	}
	return &Value{Tag: h.Tag, Constructed: h.Constructed, Data: data}, nil
}

// defaultConstruct is the built-in constructor table: it maps a
// universal type plus content octets to a Go value. utype is the type the
// template asked for (item.UType), which governs how content is interpreted
// even when an IMPLICIT override means h.Tag itself isn't a universal tag at
// all. h.Tag is what ends up in the resulting Value.
func defaultConstruct(utype asn1.Tag, h tlv.Header, content []byte) (any, error) {
	switch utype {
	case asn1.TagNull:
		if len(content) != 0 {
			return nil, asn1.New(asn1.KindNullIsWrongLength, "NULL content must be empty")
		}
		return asn1.Null{}, nil
	case asn1.TagBoolean:
		if len(content) != 1 {
			return nil, asn1.New(asn1.KindBooleanIsWrongLength, "BOOLEAN content must be exactly one octet")
		}
		return content[0] != 0, nil
	case asn1.TagInteger:
		return decodeIntegerContent(content)
	case asn1.TagEnumerated:
		return decodeEnumerated(content)
	case asn1.TagOID:
		return decodeOID(content)
	case asn1.TagRelativeOID:
		return decodeRelativeOID(content)
	case asn1.TagBitString:
		return decodeBitString(content)
	case asn1.TagBMPString:
		return decodeBMPString(content)
	case asn1.TagUniversalString:
		return decodeUniversalString(content)
	case asn1.TagUTF8String:
		return asn1.UTF8String(content), nil
	case asn1.TagNumericString:
		return asn1.NumericString(content), nil
	case asn1.TagPrintableString:
		return asn1.PrintableString(content), nil
	case asn1.TagIA5String:
		return asn1.IA5String(content), nil
	case asn1.TagVisibleString:
		return asn1.VisibleString(content), nil
	case asn1.TagOctetString:
		return append([]byte(nil), content...), nil
	case asn1.TagSequence, asn1.TagSet, asn1.TagOther:
		// content here is the full verbatim span (header+body), produced by
		// decodePrimitiveContent's special case for these three utypes.
		return Other{Tag: h.Tag, Constructed: h.Constructed, Raw: content}, nil
	default:
		return RawString{UType: utype, Bytes: append([]byte(nil), content...)}, nil
	}
}

// decodeIntegerContent parses a two's-complement big-endian INTEGER body.
func decodeIntegerContent(content []byte) (*big.Int, error) {
	if len(content) == 0 {
		return nil, asn1.New(asn1.KindBadObjectHeader, "INTEGER content must not be empty")
	}
	n := new(big.Int).SetBytes(content)
	if content[0]&0x80 != 0 {
		full := new(big.Int).Lsh(big.NewInt(1), uint(len(content))*8)
		n.Sub(n, full)
	}
	return n, nil
}

// decodeEnumerated parses an ENUMERATED body the same way as INTEGER, but
// returns the more convenient asn1.Enumerated representation when the value
// fits an int64.
func decodeEnumerated(content []byte) (any, error) {
	n, err := decodeIntegerContent(content)
	if err != nil {
		return nil, err
	}
	if n.IsInt64() {
		return asn1.Enumerated(n.Int64()), nil
	}
	return n, nil
}

// decodeOID parses a BER OBJECT IDENTIFIER body: a stream of base-128
// subidentifiers, with the first subidentifier encoding the first two arcs
// as x*40+y per Rec. ITU-T X.690 §8.19.4.
func decodeOID(content []byte) (asn1.ObjectIdentifier, error) {
	if len(content) == 0 {
		return nil, asn1.New(asn1.KindBadObjectHeader, "OBJECT IDENTIFIER content must not be empty")
	}
	arcs, err := readSubidentifiers(content)
	if err != nil {
		return nil, err
	}
	first := arcs[0]
	oid := make(asn1.ObjectIdentifier, 0, len(arcs)+1)
	switch {
	case first < 40:
		oid = append(oid, 0, uint(first))
	case first < 80:
		oid = append(oid, 1, uint(first-40))
	default:
		oid = append(oid, 2, uint(first-80))
	}
	for _, a := range arcs[1:] {
		oid = append(oid, uint(a))
	}
	return oid, nil
}

// decodeRelativeOID parses a RELATIVE-OID body: a plain stream of base-128
// subidentifiers, without the x*40+y combination OBJECT IDENTIFIER uses for
// its first two arcs.
func decodeRelativeOID(content []byte) (asn1.RelativeOID, error) {
	if len(content) == 0 {
		return nil, asn1.New(asn1.KindBadObjectHeader, "RELATIVE-OID content must not be empty")
	}
	arcs, err := readSubidentifiers(content)
	if err != nil {
		return nil, err
	}
	oid := make(asn1.RelativeOID, len(arcs))
	for i, a := range arcs {
		oid[i] = uint(a)
	}
	return oid, nil
}

// readSubidentifiers splits content into its base-128 VLQ subidentifiers.
func readSubidentifiers(content []byte) ([]uint64, error) {
	c := cursor.New(content)
	var arcs []uint64
	for !c.IsEmpty() {
		v, err := vlq.ReadMinimal[uint64](&c)
		if err != nil {
			return nil, asn1.Newf(asn1.KindBadObjectHeader, err)
		}
		arcs = append(arcs, v)
	}
	return arcs, nil
}

// decodeBitString parses a BIT STRING body: a leading unused-bits count
// octet (0-7) followed by the bit data.
func decodeBitString(content []byte) (asn1.BitString, error) {
	if len(content) == 0 {
		return asn1.BitString{}, asn1.New(asn1.KindBadObjectHeader, "BIT STRING content must not be empty")
	}
	unused := content[0]
	if unused > 7 {
		return asn1.BitString{}, asn1.New(asn1.KindBadObjectHeader, "BIT STRING unused-bits count out of range")
	}
	bits := content[1:]
	if len(bits) == 0 && unused != 0 {
		return asn1.BitString{}, asn1.New(asn1.KindBadObjectHeader, "BIT STRING declares unused bits but has no content")
	}
	return asn1.BitString{
		Bytes:     append([]byte(nil), bits...),
		BitLength: len(bits)*8 - int(unused),
	}, nil
}

// decodeBMPString parses a BMPString body: UTF-16BE code units, no surrogate
// pairs used prior to the 1998 edition but tolerated here.
func decodeBMPString(content []byte) (asn1.BMPString, error) {
	if len(content)%2 != 0 {
		return "", asn1.New(asn1.KindBMPStringIsWrongLength, "BMPString content length must be even")
	}
	units := make([]uint16, len(content)/2)
	for i := range units {
		units[i] = uint16(content[2*i])<<8 | uint16(content[2*i+1])
	}
	return asn1.BMPString(utf16.Decode(units)), nil
}

// decodeUniversalString parses a UniversalString body: UTF-32BE code points.
func decodeUniversalString(content []byte) (asn1.UniversalString, error) {
	if len(content)%4 != 0 {
		return "", asn1.New(asn1.KindUniversalStringIsWrongLength, "UniversalString content length must be a multiple of 4")
	}
	var sb strings.Builder
	for i := 0; i < len(content); i += 4 {
		r := rune(content[i])<<24 | rune(content[i+1])<<16 | rune(content[i+2])<<8 | rune(content[i+3])
		sb.WriteRune(r)
	}
	return asn1.UniversalString(sb.String()), nil
}

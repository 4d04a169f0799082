// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tlv decodes a single BER identifier-and-length octet group (a
// "header") from a [cursor.Cursor]. It knows nothing about content octets or
// about the template-driven interpretation of a decoded value tree; that is
// the job of [kowi.dev/asn1/template].
package tlv

import (
	"math"

	"kowi.dev/asn1"
	"kowi.dev/asn1/cursor"
	"kowi.dev/asn1/internal/vlq"
)

// Header is the result of decoding one BER identifier+length octet group.
// Length is only meaningful when Indefinite is false.
type Header struct {
	Tag         asn1.Tag // combined class and tag number
	Constructed bool
	Indefinite  bool
	Length      int // content length in bytes; meaningless if Indefinite
}

// Match reports whether h carries exactly the (class, number) pair packed into
// want: the same comparison [ReadHeader] applies when given an expected tag.
func (h Header) Match(want asn1.Tag) bool {
	return h.Tag == want
}

// ReadHeader decodes one BER header from c, advancing c past the identifier
// and length octets on success.
//
// want selects the matching mode:
//   - If want is nil, the read always attempts to succeed, reporting whatever
//     tag was actually observed. This is the "no expectation" mode used for
//     ANY, MSTRING and OTHER items and for walking unconstrained content.
//   - If want is non-nil and the observed tag does not equal *want: if
//     optional is true, ReadHeader reports absent=true, err=nil and
//     leaves c unmodified past the point of mismatch (c is rewound to where
//     it started); if optional is false, ReadHeader fails with
//     [asn1.KindWrongTag].
//
// On any hard error c is left in a valid but unspecified position; callers
// that need the original position restored should operate on a copy.
func ReadHeader(c *cursor.Cursor, want *asn1.Tag, optional bool) (h Header, absent bool, err error) {
	start := *c

	b, ok := c.ReadByte()
	if !ok {
		return Header{}, false, asn1.New(asn1.KindBadObjectHeader, "truncated identifier octet")
	}
	class := asn1.Tag(b>>6) << 62
	constructed := b&0x20 != 0
	var number uint64
	if b&0x1f == 0x1f {
		number, err = vlq.ReadMinimal[uint64](c)
		if err != nil {
			return Header{}, false, asn1.Newf(asn1.KindBadObjectHeader, err)
		}
	} else {
		number = uint64(b & 0x1f)
	}
	if number > math.MaxInt32 {
		return Header{}, false, asn1.New(asn1.KindTooLong, "tag number exceeds signed 32-bit range")
	}
	tag := class | asn1.Tag(number)

	if want != nil && tag != *want {
		if optional {
			*c = start
			return Header{}, true, nil
		}
		return Header{}, false, &asn1.Error{Kind: asn1.KindWrongTag, Tag: tag}
	}

	lb, ok := c.ReadByte()
	if !ok {
		return Header{}, false, asn1.New(asn1.KindBadObjectHeader, "truncated length octet")
	}

	h = Header{Tag: tag, Constructed: constructed}
	switch {
	case lb&0x80 == 0:
		h.Length = int(lb)
	case lb == 0x80:
		if !constructed {
			return Header{}, false, asn1.New(asn1.KindBadObjectHeader, "indefinite length on primitive encoding")
		}
		h.Indefinite = true
	default:
		n := int(lb & 0x7f)
		if n > 4 {
			// Lengths are bounded to the signed 32-bit range below, which
			// four octets already cover; more than four length octets are
			// rejected without being read, even if leading zero octets
			// would keep the value small.
			return Header{}, false, asn1.New(asn1.KindTooLong, "length octet count too large")
		}
		length := 0
		for range n {
			lbyte, ok := c.ReadByte()
			if !ok {
				return Header{}, false, asn1.New(asn1.KindBadObjectHeader, "truncated long-form length")
			}
			length = length<<8 | int(lbyte)
		}
		if length < 0 || length > math.MaxInt32 {
			return Header{}, false, asn1.New(asn1.KindTooLong, "length exceeds signed 32-bit range")
		}
		h.Length = length
	}

	if !h.Indefinite && c.Remaining() < h.Length {
		return Header{}, false, asn1.New(asn1.KindTooLong, "declared length exceeds remaining input")
	}
	return h, false, nil
}

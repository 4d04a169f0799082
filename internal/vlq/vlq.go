// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vlq implements [Variable-length quantity] encoding as used in BER
// long-form tag numbers. A VLQ is a base-128 representation of an unsigned
// integer, using the eighth bit of each octet to mark continuation. VLQ is
// identical to [LEB128] except in endianness.
//
// [Variable-length quantity]: https://en.wikipedia.org/wiki/Variable-length_quantity
// [LEB128]: https://en.wikipedia.org/wiki/LEB128
package vlq

import (
	"errors"
	"math/bits"
	"unsafe"

	"kowi.dev/asn1/cursor"
)

var (
	// ErrNotMinimal indicates a VLQ whose leading octet is 0x80, which BER
	// forbids: Rec. ITU-T X.690 §8.1.2.4.2(c) requires the encoding to be
	// minimal.
	ErrNotMinimal = errors.New("vlq is not minimally encoded")
	// ErrOverflow indicates a VLQ too large for the requested result type.
	ErrOverflow = errors.New("vlq too large for target type")
	// ErrTruncated indicates the cursor ran out of bytes mid-VLQ.
	ErrTruncated = errors.New("vlq truncated")
)

// ReadMinimal parses a VLQ from c, advancing c past the bytes it consumed. It
// fails with [ErrNotMinimal] if the encoding starts with a 0x80 byte (a
// non-minimal leading zero digit), and with [ErrOverflow] if the decoded value
// does not fit in T. On any failure c is left exactly where the first invalid
// or unreadable byte was encountered; callers that need strict non-advancement
// semantics should operate on a copy of c.
func ReadMinimal[T ~uint32 | ~uint64](c *cursor.Cursor) (T, error) {
	b, ok := c.ReadByte()
	if !ok {
		return 0, ErrTruncated
	}
	if b == 0x80 {
		return 0, ErrNotMinimal
	}

	ret := T(b & 0x7f)
	numBits := bits.Len8(b & 0x7f)

	for b&0x80 != 0 {
		b, ok = c.ReadByte()
		if !ok {
			return 0, ErrTruncated
		}
		ret <<= 7
		ret |= T(b & 0x7f)

		if numBits == 0 {
			numBits = bits.Len8(b & 0x7f)
		} else {
			numBits += 7
		}
		if numBits > int(unsafe.Sizeof(ret)*8) {
			return 0, ErrOverflow
		}
	}
	return ret, nil
}

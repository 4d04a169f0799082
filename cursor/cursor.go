// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cursor implements an immutable view over a byte slice, used by
// [kowi.dev/asn1/tlv] and [kowi.dev/asn1/template] as the unit of
// position tracking and restoration during decoding.
//
// Unlike a stream reader, a Cursor never buffers or reallocates: it is
// nothing more than a slice header, so taking a snapshot to retry a read
// differently (as the template interpreter's OPTIONAL handling and CHOICE
// trial-decoding require) is a plain struct copy.
package cursor

// A Cursor is an immutable view over the remaining, unread portion of a byte
// slice. The zero Cursor is empty. Reads never mutate the underlying array;
// advancing a Cursor reslices it to a later starting point, so earlier
// snapshots keep observing the bytes they were taken over.
//
// Cursor values are cheap to copy: a Cursor is exactly one slice header.
type Cursor struct {
	data []byte
}

// New returns a Cursor over all of data. The Cursor does not copy data; the
// caller must not mutate data while the Cursor (or any value derived from it)
// is in use.
func New(data []byte) Cursor {
	return Cursor{data: data}
}

// Remaining returns the number of unread bytes in c.
func (c Cursor) Remaining() int {
	return len(c.data)
}

// IsEmpty reports whether c has no unread bytes left.
func (c Cursor) IsEmpty() bool {
	return len(c.data) == 0
}

// Bytes returns the unread bytes of c as a slice. The returned slice aliases
// c's underlying array and must not be modified.
func (c Cursor) Bytes() []byte {
	return c.data
}

// ReadByte reads and consumes a single byte from c. It reports false without
// modifying c if c is empty.
func (c *Cursor) ReadByte() (b byte, ok bool) {
	if len(c.data) == 0 {
		return 0, false
	}
	b = c.data[0]
	c.data = c.data[1:]
	return b, true
}

// PeekU16 returns the next two bytes of c as a big-endian uint16 without
// consuming them. It reports false if fewer than two bytes remain.
func (c Cursor) PeekU16() (v uint16, ok bool) {
	if len(c.data) < 2 {
		return 0, false
	}
	return uint16(c.data[0])<<8 | uint16(c.data[1]), true
}

// ReadFixed consumes exactly n bytes from c and returns them as a new Cursor
// scoped to just that span. It reports false without modifying c if fewer
// than n bytes remain, or if n is negative.
func (c *Cursor) ReadFixed(n int) (sub Cursor, ok bool) {
	if n < 0 || len(c.data) < n {
		return Cursor{}, false
	}
	sub = Cursor{data: c.data[:n:n]}
	c.data = c.data[n:]
	return sub, true
}

// Skip advances c past n bytes without returning them. It reports false
// without modifying c if fewer than n bytes remain, or if n is negative.
func (c *Cursor) Skip(n int) bool {
	if n < 0 || len(c.data) < n {
		return false
	}
	c.data = c.data[n:]
	return true
}

// OffsetSince returns the number of bytes that have been consumed from orig to
// reach c's current position. orig must be a snapshot taken earlier from the
// same underlying slice (or an ancestor of it); the result is otherwise
// meaningless.
func (c Cursor) OffsetSince(orig Cursor) int {
	return len(orig.data) - len(c.data)
}

/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package wire

import "encoding/binary"

// Cursor is a bounds-checked read/write cursor over a fixed byte buffer.
// All decode paths in this package go through a Cursor so that malformed
// wire input never causes an out-of-bounds slice access.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps buf for sequential reads and writes starting at position 0.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Position returns the current read/write offset.
func (c *Cursor) Position() int {
	return c.pos
}

// SetPosition moves the cursor to an absolute offset without bounds checking.
func (c *Cursor) SetPosition(pos int) {
	c.pos = pos
}

// Reset moves the cursor back to the start of the buffer.
func (c *Cursor) Reset() {
	c.pos = 0
}

// Capacity returns the total length of the underlying buffer.
func (c *Cursor) Capacity() int {
	return len(c.buf)
}

// Remaining returns the number of unread/unwritten bytes left in the buffer.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// HasRemaining reports whether any bytes are left.
func (c *Cursor) HasRemaining() bool {
	return c.Remaining() > 0
}

func (c *Cursor) Advance(n int) {
	c.pos += n
}

// Peek returns a view of the next n bytes without advancing the cursor.
// It panics if n bytes are not available; callers that accept untrusted
// lengths must check Remaining first.
func (c *Cursor) Peek(n int) []byte {
	return c.buf[c.pos : c.pos+n]
}

// GetU32LE reads a little-endian uint32, panicking if too few bytes remain.
func (c *Cursor) GetU32LE() uint32 {
	v := binary.LittleEndian.Uint32(c.buf[c.pos : c.pos+4])
	c.pos += 4
	return v
}

// TryGetU32LE reads a little-endian uint32, returning ErrBufferTooSmall if
// fewer than 4 bytes remain.
func (c *Cursor) TryGetU32LE() (uint32, error) {
	if c.Remaining() < 4 {
		return 0, NewBufferTooSmall(4, c.Remaining())
	}
	return c.GetU32LE(), nil
}

// GetU32 reads a big-endian uint32, panicking if too few bytes remain.
func (c *Cursor) GetU32() uint32 {
	v := binary.BigEndian.Uint32(c.buf[c.pos : c.pos+4])
	c.pos += 4
	return v
}

// TryGetU32 reads a big-endian uint32, returning ErrBufferTooSmall if fewer
// than 4 bytes remain.
func (c *Cursor) TryGetU32() (uint32, error) {
	if c.Remaining() < 4 {
		return 0, NewBufferTooSmall(4, c.Remaining())
	}
	return c.GetU32(), nil
}

// GetU64LE reads a little-endian uint64, panicking if too few bytes remain.
func (c *Cursor) GetU64LE() uint64 {
	v := binary.LittleEndian.Uint64(c.buf[c.pos : c.pos+8])
	c.pos += 8
	return v
}

// TryGetU64LE reads a little-endian uint64, returning ErrBufferTooSmall if
// fewer than 8 bytes remain.
func (c *Cursor) TryGetU64LE() (uint64, error) {
	if c.Remaining() < 8 {
		return 0, NewBufferTooSmall(8, c.Remaining())
	}
	return c.GetU64LE(), nil
}

// GetU64 reads a big-endian uint64, panicking if too few bytes remain.
func (c *Cursor) GetU64() uint64 {
	v := binary.BigEndian.Uint64(c.buf[c.pos : c.pos+8])
	c.pos += 8
	return v
}

// TryGetU64 reads a big-endian uint64, returning ErrBufferTooSmall if fewer
// than 8 bytes remain.
func (c *Cursor) TryGetU64() (uint64, error) {
	if c.Remaining() < 8 {
		return 0, NewBufferTooSmall(8, c.Remaining())
	}
	return c.GetU64(), nil
}

// CopyToSlice copies len(dst) bytes into dst, panicking if too few remain.
func (c *Cursor) CopyToSlice(dst []byte) {
	copy(dst, c.buf[c.pos:c.pos+len(dst)])
	c.pos += len(dst)
}

// TryCopyToSlice copies len(dst) bytes into dst, returning ErrBufferTooSmall
// if too few bytes remain.
func (c *Cursor) TryCopyToSlice(dst []byte) error {
	if c.Remaining() < len(dst) {
		return NewBufferTooSmall(len(dst), c.Remaining())
	}
	c.CopyToSlice(dst)
	return nil
}

// GetFixed reads exactly n bytes into a newly allocated slice.
func (c *Cursor) GetFixed(n int) []byte {
	out := make([]byte, n)
	c.CopyToSlice(out)
	return out
}

// TryGetFixed reads exactly n bytes into a newly allocated slice, returning
// ErrBufferTooSmall if too few bytes remain.
func (c *Cursor) TryGetFixed(n int) ([]byte, error) {
	if c.Remaining() < n {
		return nil, NewBufferTooSmall(n, c.Remaining())
	}
	return c.GetFixed(n), nil
}

// PutFixed writes src verbatim, panicking if too little room remains.
func (c *Cursor) PutFixed(src []byte) {
	copy(c.buf[c.pos:c.pos+len(src)], src)
	c.pos += len(src)
}

// TryPutFixed writes src verbatim, returning ErrBufferTooSmall if too little
// room remains.
func (c *Cursor) TryPutFixed(src []byte) error {
	if c.Remaining() < len(src) {
		return NewBufferTooSmall(len(src), c.Remaining())
	}
	c.PutFixed(src)
	return nil
}

// PutSlice is an alias for PutFixed kept for readability at call sites that
// write variable-length payloads (paths, padding) rather than fixed tags.
func (c *Cursor) PutSlice(src []byte) {
	c.PutFixed(src)
}

// TryPutSlice is the checked form of PutSlice.
func (c *Cursor) TryPutSlice(src []byte) error {
	return c.TryPutFixed(src)
}

// PutU32LE writes v as little-endian, panicking if too little room remains.
func (c *Cursor) PutU32LE(v uint32) {
	binary.LittleEndian.PutUint32(c.buf[c.pos:c.pos+4], v)
	c.pos += 4
}

// TryPutU32LE is the checked form of PutU32LE.
func (c *Cursor) TryPutU32LE(v uint32) error {
	if c.Remaining() < 4 {
		return NewBufferTooSmall(4, c.Remaining())
	}
	c.PutU32LE(v)
	return nil
}

// PutU32 writes v as big-endian, panicking if too little room remains.
func (c *Cursor) PutU32(v uint32) {
	binary.BigEndian.PutUint32(c.buf[c.pos:c.pos+4], v)
	c.pos += 4
}

// TryPutU32 is the checked form of PutU32.
func (c *Cursor) TryPutU32(v uint32) error {
	if c.Remaining() < 4 {
		return NewBufferTooSmall(4, c.Remaining())
	}
	c.PutU32(v)
	return nil
}

// PutU64LE writes v as little-endian, panicking if too little room remains.
func (c *Cursor) PutU64LE(v uint64) {
	binary.LittleEndian.PutUint64(c.buf[c.pos:c.pos+8], v)
	c.pos += 8
}

// TryPutU64LE is the checked form of PutU64LE.
func (c *Cursor) TryPutU64LE(v uint64) error {
	if c.Remaining() < 8 {
		return NewBufferTooSmall(8, c.Remaining())
	}
	c.PutU64LE(v)
	return nil
}

// PutU64 writes v as big-endian, panicking if too little room remains.
func (c *Cursor) PutU64(v uint64) {
	binary.BigEndian.PutUint64(c.buf[c.pos:c.pos+8], v)
	c.pos += 8
}

// TryPutU64 is the checked form of PutU64.
func (c *Cursor) TryPutU64(v uint64) error {
	if c.Remaining() < 8 {
		return NewBufferTooSmall(8, c.Remaining())
	}
	c.PutU64(v)
	return nil
}

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

// FrameMagic is the big-endian ASCII string "ROUGHTIM" that opens every
// framed message exchanged over a stream transport.
const FrameMagic uint64 = 0x524f55474854494d

// FrameOverhead is the byte cost of the magic number plus the length
// prefix, not counting the framed body itself.
const FrameOverhead = 12

// MinimumFrameSize is the smallest legal value of the length prefix; it
// equals the minimum possible encoded Response size.
const MinimumFrameSize = 404

// WireMessage is implemented by every message shape that can be framed for
// stream transport (currently only Response and the Request variants).
type WireMessage interface {
	WireSize() int
	ToWire(c *Cursor) error
}

// EncodeFrame writes the ROUGHTIM magic, a little-endian length prefix, then
// the message body.
func EncodeFrame(m WireMessage) ([]byte, error) {
	size := m.WireSize()
	buf := make([]byte, FrameOverhead+size)
	c := NewCursor(buf)
	c.PutU64(FrameMagic)
	c.PutU32LE(uint32(size))
	if err := m.ToWire(c); err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodeFrame validates the magic and length prefix of a framed message and
// returns the cursor positioned at the start of the body along with the
// declared body length.
func DecodeFrame(buf []byte) (*Cursor, int, error) {
	c := NewCursor(buf)
	magic, err := c.TryGetU64()
	if err != nil {
		return nil, 0, err
	}
	if magic != FrameMagic {
		return nil, 0, NewUnexpectedMagic(magic)
	}
	length, err := c.TryGetU32LE()
	if err != nil {
		return nil, 0, err
	}
	remaining := c.Remaining()
	if int(length) < MinimumFrameSize || remaining < MinimumFrameSize {
		got := remaining
		if int(length) < got {
			got = int(length)
		}
		return nil, 0, NewUnexpectedFraming(got)
	}
	if int(length) > remaining {
		return nil, 0, NewBufferTooSmall(int(length), remaining)
	}
	return c, int(length), nil
}

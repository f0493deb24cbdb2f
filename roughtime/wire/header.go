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

// Header is the common tag/offset table shared by every Roughtime message
// shape (CERT, DELE, RequestPlain, RequestSrv, SignedResponse, Response).
// Unlike the original implementation, which generates one type per arity via
// a macro, a single Header holds a variable number of tags and derives
// offsets dynamically; callers that need a fixed shape validate the decoded
// Tags/Offsets against the constants for that shape.
type Header struct {
	Tags    []Tag
	Offsets []uint32 // len(Offsets) == len(Tags)-1
}

// NewHeader builds a header from tags, computing offsets by summing the
// wire sizes of the preceding fields. sizes must have the same length as
// tags and gives the wire size of each tagged value in order.
func NewHeader(tags []Tag, sizes []int) *Header {
	offsets := make([]uint32, 0, len(tags)-1)
	var running uint32
	for i := 0; i < len(tags)-1; i++ {
		running += uint32(sizes[i])
		offsets = append(offsets, running)
	}
	return &Header{Tags: tags, Offsets: offsets}
}

// WireSize returns the byte size of the encoded header: 4 bytes for
// num_tags, 4 bytes per offset, 4 bytes per tag.
func (h *Header) WireSize() int {
	return 4 + 4*len(h.Offsets) + 4*len(h.Tags)
}

func (h *Header) ToWire(c *Cursor) error {
	if err := c.TryPutU32LE(uint32(len(h.Tags))); err != nil {
		return err
	}
	for _, off := range h.Offsets {
		if err := c.TryPutU32LE(off); err != nil {
			return err
		}
	}
	for _, tag := range h.Tags {
		if err := c.TryPutU32(uint32(tag)); err != nil {
			return err
		}
	}
	return nil
}

// HeaderFromWireArity decodes a header with exactly numTags tags, failing
// with ErrMismatchedNumTags if the wire value disagrees. It validates offset
// alignment, offset ordering, tag validity, tag ordering and (given
// totalLen) offset bounds, exactly mirroring the original decode algorithm.
func HeaderFromWireArity(c *Cursor, numTags int, totalLen int) (*Header, error) {
	got, err := c.TryGetU32LE()
	if err != nil {
		return nil, err
	}
	if int(got) != numTags {
		return nil, NewMismatchedNumTags(numTags, int(got))
	}
	return headerFromWireBody(c, numTags, totalLen)
}

// HeaderFromWire decodes a header whose arity is not known in advance,
// reading num_tags directly off the wire.
func HeaderFromWire(c *Cursor, totalLen int) (*Header, error) {
	got, err := c.TryGetU32LE()
	if err != nil {
		return nil, err
	}
	return headerFromWireBody(c, int(got), totalLen)
}

// PeekNumTags reads num_tags without consuming it, used by Request decoding
// to dispatch between RequestPlain (4 tags) and RequestSrv (5 tags).
func PeekNumTags(c *Cursor) (uint32, error) {
	if c.Remaining() < 4 {
		return 0, NewBufferTooSmall(4, c.Remaining())
	}
	pos := c.Position()
	v, err := c.TryGetU32LE()
	c.SetPosition(pos)
	return v, err
}

func headerFromWireBody(c *Cursor, numTags int, totalLen int) (*Header, error) {
	numOffsets := numTags - 1
	offsets := make([]uint32, 0, numOffsets)
	var prevOffset uint32
	for i := 0; i < numOffsets; i++ {
		off, err := c.TryGetU32LE()
		if err != nil {
			return nil, err
		}
		if off%4 != 0 {
			return nil, NewUnalignedOffset(i, off)
		}
		if off < prevOffset {
			return nil, NewUnorderedOffset(i, off)
		}
		offsets = append(offsets, off)
		prevOffset = off
	}

	tags := make([]Tag, 0, numTags)
	var prevTag Tag
	for i := 0; i < numTags; i++ {
		v, err := c.TryGetU32()
		if err != nil {
			return nil, err
		}
		tag, err := TagFromWire(v)
		if err != nil {
			return nil, err
		}
		if i > 0 && tag.Less(prevTag) {
			return nil, NewUnorderedTag(i, tag)
		}
		tags = append(tags, tag)
		prevTag = tag
	}

	h := &Header{Tags: tags, Offsets: offsets}
	if err := h.checkOffsetBounds(totalLen); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Header) checkOffsetBounds(totalLen int) error {
	for i, off := range h.Offsets {
		if int(off) > totalLen {
			return NewOutOfBoundsOffset(i, off)
		}
	}
	return nil
}

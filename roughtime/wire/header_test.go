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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := NewHeader([]Tag{SIG, DELE}, []int{64, 24})
	require.Equal(t, []uint32{64}, h.Offsets)
	require.Equal(t, 4+4*1+4*2, h.WireSize())

	buf := make([]byte, h.WireSize())
	c := NewCursor(buf)
	require.NoError(t, h.ToWire(c))

	c.Reset()
	decoded, err := HeaderFromWireArity(c, 2, h.WireSize()+64+24)
	require.NoError(t, err)
	require.Equal(t, h.Tags, decoded.Tags)
	require.Equal(t, h.Offsets, decoded.Offsets)
}

func TestHeaderMismatchedArity(t *testing.T) {
	h := NewHeader([]Tag{SIG, DELE}, []int{64, 24})
	buf := make([]byte, h.WireSize())
	c := NewCursor(buf)
	require.NoError(t, h.ToWire(c))

	c.Reset()
	_, err := HeaderFromWireArity(c, 3, 1000)
	require.Error(t, err)
	var wireErr *Error
	require.ErrorAs(t, err, &wireErr)
	require.Equal(t, ErrMismatchedNumTags, wireErr.Kind)
}

func TestHeaderRejectsUnalignedOffset(t *testing.T) {
	// num_tags=2, one offset (not a multiple of 4), two tags.
	buf := make([]byte, 4+4+8)
	c := NewCursor(buf)
	require.NoError(t, c.TryPutU32LE(2))
	require.NoError(t, c.TryPutU32LE(5))
	require.NoError(t, c.TryPutU32(uint32(SIG)))
	require.NoError(t, c.TryPutU32(uint32(DELE)))

	c.Reset()
	_, err := HeaderFromWireArity(c, 2, 1000)
	require.Error(t, err)
	var wireErr *Error
	require.ErrorAs(t, err, &wireErr)
	require.Equal(t, ErrUnalignedOffset, wireErr.Kind)
}

func TestHeaderRejectsUnorderedTag(t *testing.T) {
	// DELE sorts after SIG in wire order; putting DELE first, SIG second
	// violates strictly-increasing wire order.
	buf := make([]byte, 4+4+8)
	c := NewCursor(buf)
	require.NoError(t, c.TryPutU32LE(2))
	require.NoError(t, c.TryPutU32LE(24))
	require.NoError(t, c.TryPutU32(uint32(DELE)))
	require.NoError(t, c.TryPutU32(uint32(SIG)))

	c.Reset()
	_, err := HeaderFromWireArity(c, 2, 1000)
	require.Error(t, err)
	var wireErr *Error
	require.ErrorAs(t, err, &wireErr)
	require.Equal(t, ErrUnorderedTag, wireErr.Kind)
}

func TestHeaderRejectsOutOfBoundsOffset(t *testing.T) {
	h := NewHeader([]Tag{SIG, DELE}, []int{64, 24})
	buf := make([]byte, h.WireSize())
	c := NewCursor(buf)
	require.NoError(t, h.ToWire(c))

	c.Reset()
	_, err := HeaderFromWireArity(c, 2, 10)
	require.Error(t, err)
	var wireErr *Error
	require.ErrorAs(t, err, &wireErr)
	require.Equal(t, ErrOutOfBoundsOffset, wireErr.Kind)
}

func TestPeekNumTagsDoesNotAdvance(t *testing.T) {
	h := NewHeader([]Tag{SIG, DELE}, []int{64, 24})
	buf := make([]byte, h.WireSize())
	c := NewCursor(buf)
	require.NoError(t, h.ToWire(c))

	c.Reset()
	n, err := PeekNumTags(c)
	require.NoError(t, err)
	require.Equal(t, uint32(2), n)
	require.Equal(t, 0, c.Position())
}

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

func TestCursorU32RoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	c := NewCursor(buf)
	require.NoError(t, c.TryPutU32LE(0xdeadbeef))
	require.NoError(t, c.TryPutU32(0x01020304))
	require.Equal(t, 8, c.Position())

	c.Reset()
	v, err := c.TryGetU32LE()
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), v)

	v, err = c.TryGetU32()
	require.NoError(t, err)
	require.Equal(t, uint32(0x01020304), v)
}

func TestCursorU64RoundTrip(t *testing.T) {
	buf := make([]byte, 16)
	c := NewCursor(buf)
	require.NoError(t, c.TryPutU64LE(123456789))
	require.NoError(t, c.TryPutU64(987654321))

	c.Reset()
	v, err := c.TryGetU64LE()
	require.NoError(t, err)
	require.Equal(t, uint64(123456789), v)

	v, err = c.TryGetU64()
	require.NoError(t, err)
	require.Equal(t, uint64(987654321), v)
}

func TestCursorTooSmall(t *testing.T) {
	buf := make([]byte, 2)
	c := NewCursor(buf)
	_, err := c.TryGetU32LE()
	require.Error(t, err)
	var wireErr *Error
	require.ErrorAs(t, err, &wireErr)
	require.Equal(t, ErrBufferTooSmall, wireErr.Kind)
	require.Equal(t, 4, wireErr.Wanted)
	require.Equal(t, 2, wireErr.Got)
}

func TestCursorRemainingAndHasRemaining(t *testing.T) {
	c := NewCursor(make([]byte, 4))
	require.True(t, c.HasRemaining())
	require.Equal(t, 4, c.Remaining())
	c.Advance(4)
	require.False(t, c.HasRemaining())
	require.Equal(t, 0, c.Remaining())
}

func TestCursorFixedRoundTrip(t *testing.T) {
	buf := make([]byte, 5)
	c := NewCursor(buf)
	require.NoError(t, c.TryPutFixed([]byte{1, 2, 3, 4, 5}))

	c.Reset()
	out, err := c.TryGetFixed(5)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4, 5}, out)
}

func TestCursorPeekDoesNotAdvance(t *testing.T) {
	c := NewCursor([]byte{9, 9, 9, 9})
	peeked := c.Peek(2)
	require.Equal(t, []byte{9, 9}, peeked)
	require.Equal(t, 0, c.Position())
}

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

func TestTagFromWireKnownAndUnknown(t *testing.T) {
	tag, err := TagFromWire(uint32(SIG))
	require.NoError(t, err)
	require.Equal(t, SIG, tag)

	_, err = TagFromWire(0x11223344)
	require.Error(t, err)
	var wireErr *Error
	require.ErrorAs(t, err, &wireErr)
	require.Equal(t, ErrInvalidTag, wireErr.Kind)
}

func TestTagString(t *testing.T) {
	require.Equal(t, "SIG", SIG.String())
	require.Equal(t, "NONC", NONC.String())
	require.Equal(t, "UNKNOWN", Tag(0x11223344).String())
}

func TestTagIsNested(t *testing.T) {
	require.True(t, CERT.IsNested())
	require.True(t, DELE.IsNested())
	require.True(t, SREP.IsNested())
	require.False(t, SIG.IsNested())
	require.False(t, NONC.IsNested())
}

// TestTagWireOrdering confirms the RFC 5.2 ordering quirk: as numeric tag
// constants SIG (0x53494700) is greater than NONC (0x4e4f4e43), but wire
// ordering compares the little-endian reinterpretation of the wire bytes,
// not the big-endian constant, so SIG sorts before NONC and the ordering
// among a header's tags is not simply Tag value order.
func TestTagWireOrdering(t *testing.T) {
	require.True(t, SIG.Less(NONC))
	require.False(t, NONC.Less(SIG))
	require.False(t, SIG.Less(SIG))
}

func TestTagWireValueRoundTrip(t *testing.T) {
	b := SIG.WireValue()
	require.Equal(t, [4]byte{'S', 'I', 'G', 0}, b)
}

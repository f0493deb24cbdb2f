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

// Tag identifies the type of a tagged value in a Roughtime message header.
// The underlying numeric value is the big-endian interpretation of the tag's
// four ASCII wire bytes, matching how the bytes appear on the wire.
// Ordering a list of tags, however, compares the little-endian
// reinterpretation of that same value: RFC 5.2 specifies tags must appear in
// strictly increasing order of their wire byte representation read as a
// little-endian integer, not the big-endian constant used to name them.
type Tag uint32

const (
	Invalid       Tag = 0x00000000
	SIG           Tag = 0x53494700
	VER           Tag = 0x56455200
	SRV           Tag = 0x53525600
	NONC          Tag = 0x4e4f4e43
	DELE          Tag = 0x44454c45
	TYPE          Tag = 0x54595045
	PATH          Tag = 0x50415448
	RADI          Tag = 0x52414449
	PUBK          Tag = 0x5055424b
	MIDP          Tag = 0x4d494450
	SREP          Tag = 0x53524550
	VERS          Tag = 0x56455253
	MINT          Tag = 0x4d494e54
	ROOT          Tag = 0x524f4f54
	CERT          Tag = 0x43455254
	MAXT          Tag = 0x4d415854
	INDX          Tag = 0x494e4458
	ZZZZ          Tag = 0x5a5a5a5a
	PAD           Tag = 0x504144ff
)

var tagNames = map[Tag]string{
	Invalid: "INVALID",
	SIG:     "SIG",
	VER:     "VER",
	SRV:     "SRV",
	NONC:    "NONC",
	DELE:    "DELE",
	TYPE:    "TYPE",
	PATH:    "PATH",
	RADI:    "RADI",
	PUBK:    "PUBK",
	MIDP:    "MIDP",
	SREP:    "SREP",
	VERS:    "VERS",
	MINT:    "MINT",
	ROOT:    "ROOT",
	CERT:    "CERT",
	MAXT:    "MAXT",
	INDX:    "INDX",
	ZZZZ:    "ZZZZ",
	PAD:     "PAD",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// WireValue returns the big-endian byte encoding of the tag, i.e. the four
// ASCII bytes as they appear on the wire.
func (t Tag) WireValue() [4]byte {
	var b [4]byte
	b[0] = byte(t >> 24)
	b[1] = byte(t >> 16)
	b[2] = byte(t >> 8)
	b[3] = byte(t)
	return b
}

// wireOrder returns the little-endian reinterpretation of the tag's wire
// bytes. This is the value used to check header tag ordering; it is not the
// same as the numeric Tag constant.
func (t Tag) wireOrder() uint32 {
	w := t.WireValue()
	return uint32(w[0]) | uint32(w[1])<<8 | uint32(w[2])<<16 | uint32(w[3])<<24
}

// Less reports whether t sorts before other under the wire ordering rule
// used by header tag validation.
func (t Tag) Less(other Tag) bool {
	return t.wireOrder() < other.wireOrder()
}

// IsNested reports whether the tag's value is itself a fully encoded nested
// message rather than a plain scalar or fixed-size field. Only CERT, DELE
// and SREP carry nested messages.
func (t Tag) IsNested() bool {
	return t == CERT || t == DELE || t == SREP
}

// TagFromWire decodes a big-endian uint32 into a known Tag, failing with
// ErrInvalidTag if the value does not correspond to a tag this
// implementation recognizes.
func TagFromWire(value uint32) (Tag, error) {
	t := Tag(value)
	if _, ok := tagNames[t]; !ok {
		return Invalid, NewInvalidTag(value)
	}
	return t, nil
}

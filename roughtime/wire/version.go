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

import "fmt"

// ProtocolVersion identifies which Roughtime wire dialect a message uses.
// Google and RfcDraft14 differ only in the DELE signature context prefix;
// the SREP prefix is shared by both.
type ProtocolVersion uint32

const (
	Google     ProtocolVersion = 0x00000000
	RfcDraft14 ProtocolVersion = 0x8000000c
	InvalidVer ProtocolVersion = 0xffffffff
)

// DefaultProtocolVersion is the version used when a request or response
// does not explicitly negotiate one.
const DefaultProtocolVersion = RfcDraft14

var delePrefixGoogle = []byte("RoughTime v1 delegation signature--\x00")
var delePrefixRfc14 = []byte("RoughTime v1 delegation signature\x00")
var srepPrefix = []byte("RoughTime v1 response signature\x00")

// DelePrefix returns the signature context prefix used when signing or
// verifying a DELE certificate under this version. It panics for
// InvalidVer, matching the original implementation's behavior of treating
// that sentinel as unreachable in correctly validated code paths.
func (v ProtocolVersion) DelePrefix() []byte {
	switch v {
	case Google:
		return delePrefixGoogle
	case RfcDraft14:
		return delePrefixRfc14
	default:
		panic(fmt.Sprintf("no delegation prefix for protocol version 0x%08x", uint32(v)))
	}
}

// SrepPrefix returns the signature context prefix used when signing or
// verifying a SignedResponse under this version.
func (v ProtocolVersion) SrepPrefix() []byte {
	return srepPrefix
}

func (v ProtocolVersion) String() string {
	switch v {
	case Google:
		return "google-roughtime"
	case RfcDraft14:
		return "ietf-roughtime"
	default:
		return fmt.Sprintf("0x%08x", uint32(v))
	}
}

// ParseProtocolVersion accepts the same aliases as the original CLI parser:
// "0" or "google-roughtime" for Google, "1", "14" or "ietf-roughtime" for
// RfcDraft14.
func ParseProtocolVersion(s string) (ProtocolVersion, error) {
	switch s {
	case "0", "google-roughtime":
		return Google, nil
	case "1", "14", "ietf-roughtime":
		return RfcDraft14, nil
	default:
		return InvalidVer, fmt.Errorf("unrecognized protocol version %q", s)
	}
}

func (v ProtocolVersion) WireSize() int { return 4 }

func (v ProtocolVersion) ToWire(c *Cursor) error {
	return c.TryPutU32LE(uint32(v))
}

func ProtocolVersionFromWire(c *Cursor) (ProtocolVersion, error) {
	val, err := c.TryGetU32LE()
	if err != nil {
		return 0, err
	}
	return ProtocolVersion(val), nil
}

// VersionList is the shared backing type for RequestedVersions (VER) and
// SupportedVersions (VERS): a small, capacity-bounded, non-decreasing list
// of protocol versions.
type VersionList struct {
	versions []ProtocolVersion
}

// MaxVersions mirrors RFC 5.2's 32-entry cap on a single VER/VERS list.
const MaxVersions = 32

// NewVersionList truncates versions beyond MaxVersions silently, matching
// the original implementation's constructor.
func NewVersionList(versions []ProtocolVersion) *VersionList {
	if len(versions) > MaxVersions {
		versions = versions[:MaxVersions]
	}
	cp := make([]ProtocolVersion, len(versions))
	copy(cp, versions)
	return &VersionList{versions: cp}
}

func (l *VersionList) Versions() []ProtocolVersion {
	return l.versions
}

func (l *VersionList) WireSize() int {
	return 4 * len(l.versions)
}

func (l *VersionList) ToWire(c *Cursor) error {
	for _, v := range l.versions {
		if err := v.ToWire(c); err != nil {
			return err
		}
	}
	return nil
}

// VersionListFromWireN decodes up to n bytes worth of versions (n/4 of
// them), enforcing non-decreasing order and rejecting duplicates per this
// implementation's stricter reading of RFC 5.2's "no duplicates" rule for
// VERS (see DESIGN.md for why this differs from the reference decoder,
// which only enforces non-decreasing order and explicitly tolerates
// duplicates).
func VersionListFromWireN(c *Cursor, n int) (*VersionList, error) {
	count := n / 4
	if count > MaxVersions {
		count = MaxVersions
	}
	versions := make([]ProtocolVersion, 0, count)
	prior := Google
	for i := 0; i < count; i++ {
		v, err := ProtocolVersionFromWire(c)
		if err != nil {
			return nil, err
		}
		if i > 0 && v < prior {
			return nil, NewUnorderedVersion(i, uint32(v))
		}
		if i > 0 && v == prior {
			return nil, NewUnorderedVersion(i, uint32(v))
		}
		versions = append(versions, v)
		prior = v
	}
	return &VersionList{versions: versions}, nil
}

// DefaultRequestedVersions is the VER value a request carries when the
// client does not explicitly negotiate a version list.
func DefaultRequestedVersions() *VersionList {
	return NewVersionList([]ProtocolVersion{RfcDraft14})
}

// DefaultSupportedVersions is the VERS value a SignedResponse carries when
// unset.
func DefaultSupportedVersions() *VersionList {
	return NewVersionList(nil)
}

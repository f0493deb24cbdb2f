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
	"crypto/sha512"
	"encoding/hex"
	"fmt"
)

// MessageType is the closed two-value discriminant carried by the TYPE tag.
type MessageType uint32

const (
	MessageRequest  MessageType = 0x00000000
	MessageResponse MessageType = 0x00000001
	MessageInvalid  MessageType = 0xffffffff
)

func (t MessageType) WireSize() int { return 4 }

func (t MessageType) ToWire(c *Cursor) error {
	return c.TryPutU32LE(uint32(t))
}

func MessageTypeFromWire(c *Cursor) (MessageType, error) {
	v, err := c.TryGetU32LE()
	if err != nil {
		return MessageInvalid, err
	}
	switch v {
	case uint32(MessageRequest):
		return MessageRequest, nil
	case uint32(MessageResponse):
		return MessageResponse, nil
	default:
		return MessageInvalid, NewInvalidMessageType(v)
	}
}

// Nonce is the client's 32-byte per-request randomness, or for a chained
// measurement, the prior response's hash.
type Nonce [32]byte

func (n Nonce) WireSize() int { return 32 }

func (n Nonce) ToWire(c *Cursor) error {
	return c.TryPutFixed(n[:])
}

func NonceFromWire(c *Cursor) (Nonce, error) {
	var n Nonce
	err := c.TryCopyToSlice(n[:])
	return n, err
}

func (n Nonce) String() string {
	return hex.EncodeToString(n[:])
}

// Signature is a 64-byte Ed25519 signature.
type Signature [64]byte

func (s Signature) WireSize() int { return 64 }

func (s Signature) ToWire(c *Cursor) error {
	return c.TryPutFixed(s[:])
}

func SignatureFromWire(c *Cursor) (Signature, error) {
	var s Signature
	err := c.TryCopyToSlice(s[:])
	return s, err
}

func (s Signature) String() string {
	return hex.EncodeToString(s[:])
}

// PublicKey is a 32-byte Ed25519 public key.
type PublicKey [32]byte

func (p PublicKey) WireSize() int { return 32 }

func (p PublicKey) ToWire(c *Cursor) error {
	return c.TryPutFixed(p[:])
}

func PublicKeyFromWire(c *Cursor) (PublicKey, error) {
	var p PublicKey
	err := c.TryCopyToSlice(p[:])
	return p, err
}

// PublicKeyFromSlice validates the slice length, returning ErrWrongTagSize
// if it is not exactly 32 bytes. Used when a public key is constructed from
// untrusted-length input outside the wire decode path, e.g. a config file
// or command-line flag.
func PublicKeyFromSlice(b []byte) (PublicKey, error) {
	var p PublicKey
	if len(b) != 32 {
		return p, NewWrongTagSize(32, len(b))
	}
	copy(p[:], b)
	return p, nil
}

func (p PublicKey) String() string {
	return hex.EncodeToString(p[:])
}

// MerkleRoot is the 32-byte root of a Merkle batch, carried in the ROOT tag.
type MerkleRoot [32]byte

func (r MerkleRoot) WireSize() int { return 32 }

func (r MerkleRoot) ToWire(c *Cursor) error {
	return c.TryPutFixed(r[:])
}

func MerkleRootFromWire(c *Cursor) (MerkleRoot, error) {
	var r MerkleRoot
	err := c.TryCopyToSlice(r[:])
	return r, err
}

// SrvCommitment is H(0xff || long_term_public_key), indicating which server
// identity a client expects to verify its response against.
type SrvCommitment [32]byte

// HashPrefixSrv is the domain-separation byte prepended to the public key
// before hashing to produce a SrvCommitment.
const HashPrefixSrv = 0xff

func (s SrvCommitment) WireSize() int { return 32 }

func (s SrvCommitment) ToWire(c *Cursor) error {
	return c.TryPutFixed(s[:])
}

func SrvCommitmentFromWire(c *Cursor) (SrvCommitment, error) {
	var s SrvCommitment
	err := c.TryCopyToSlice(s[:])
	return s, err
}

func SrvCommitmentFromSlice(b []byte) (SrvCommitment, error) {
	var s SrvCommitment
	if len(b) != 32 {
		return s, NewWrongTagSize(32, len(b))
	}
	copy(s[:], b)
	return s, nil
}

// MakeSrvCommitment computes SHA-512(0xFF || pubkey)[0:32], the value a
// RequestSrv's SRV tag must carry to pin the server identity a client
// expects to verify its response against. The client calls this when it
// builds a RequestSrv.
func MakeSrvCommitment(pubkey PublicKey) SrvCommitment {
	h := sha512.New()
	h.Write([]byte{HashPrefixSrv})
	h.Write(pubkey[:])
	sum := h.Sum(nil)
	var s SrvCommitment
	copy(s[:], sum[:32])
	return s
}

// MerklePath is the ordered list of sibling hashes proving a leaf's
// inclusion in a Merkle batch. RFC 5.2.4 caps it at 32 elements.
type MerklePath struct {
	data [][32]byte
}

const merklePathElementSize = 32

// MaxPathElements is RFC 5.2.4's 32-hash ceiling on a single PATH.
const MaxPathElements = 32

func NewMerklePath() *MerklePath {
	return &MerklePath{}
}

func (p *MerklePath) Depth() int {
	return len(p.data)
}

func (p *MerklePath) IsEmpty() bool {
	return len(p.data) == 0
}

func (p *MerklePath) Elements() [][32]byte {
	return p.data
}

func (p *MerklePath) Clear() {
	p.data = p.data[:0]
}

// PushElement appends a sibling hash, panicking if the path is already at
// MaxPathElements. Callers build paths from a Merkle engine that never
// exceeds the cap, so this mirrors the original implementation's assertion
// rather than returning an error.
func (p *MerklePath) PushElement(element [32]byte) {
	if len(p.data) >= MaxPathElements {
		panic(fmt.Sprintf("merkle path at max capacity (%d)", MaxPathElements))
	}
	p.data = append(p.data, element)
}

func (p *MerklePath) CopyFrom(other *MerklePath) {
	p.data = append(p.data[:0], other.data...)
}

func (p *MerklePath) WireSize() int {
	return len(p.data) * merklePathElementSize
}

func (p *MerklePath) ToWire(c *Cursor) error {
	if len(p.data) == 0 {
		return nil
	}
	if c.Remaining() < p.WireSize() {
		return NewBufferTooSmall(p.WireSize(), c.Remaining())
	}
	for _, el := range p.data {
		c.PutSlice(el[:])
	}
	return nil
}

// MerklePathFromWireN decodes n bytes (which must be a multiple of 32) worth
// of path elements.
func MerklePathFromWireN(c *Cursor, n int) (*MerklePath, error) {
	if n == 0 {
		return NewMerklePath(), nil
	}
	if n > MaxPathElements*merklePathElementSize {
		return nil, NewBufferTooSmall(n, MaxPathElements*merklePathElementSize)
	}
	if n%merklePathElementSize != 0 {
		return nil, NewInvalidPathLength(uint32(n))
	}
	count := n / merklePathElementSize
	data := make([][32]byte, count)
	for i := 0; i < count; i++ {
		if err := c.TryCopyToSlice(data[i][:]); err != nil {
			return nil, err
		}
	}
	return &MerklePath{data: data}, nil
}

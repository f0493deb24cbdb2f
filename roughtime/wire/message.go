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

// Delegation (DELE) binds an ephemeral online public key to a validity
// window, signed by a long-term key. RFC 5.2.2.
type Delegation struct {
	PublicKey PublicKey
	MinTime   uint64 // seconds since epoch
	MaxTime   uint64 // seconds since epoch
}

// NewDelegation builds a delegation valid from nowEpochSec for
// validitySeconds, saturating MaxTime at the uint64 max instead of
// overflowing.
func NewDelegation(pub PublicKey, nowEpochSec uint64, validitySeconds uint64) Delegation {
	max := nowEpochSec + validitySeconds
	if max < nowEpochSec {
		max = ^uint64(0)
	}
	return Delegation{PublicKey: pub, MinTime: nowEpochSec, MaxTime: max}
}

var deleTags = []Tag{PUBK, MINT, MAXT}

func (d Delegation) WireSize() int {
	h := NewHeader(deleTags, []int{32, 8, 8})
	return h.WireSize() + 32 + 8 + 8
}

func (d Delegation) ToWire(c *Cursor) error {
	h := NewHeader(deleTags, []int{32, 8, 8})
	if err := h.ToWire(c); err != nil {
		return err
	}
	if err := d.PublicKey.ToWire(c); err != nil {
		return err
	}
	if err := c.TryPutU64LE(d.MinTime); err != nil {
		return err
	}
	return c.TryPutU64LE(d.MaxTime)
}

func DelegationFromWire(c *Cursor, totalLen int) (Delegation, error) {
	h, err := HeaderFromWireArity(c, 3, totalLen)
	if err != nil {
		return Delegation{}, err
	}
	if h.Tags[0] != PUBK || h.Tags[1] != MINT || h.Tags[2] != MAXT {
		return Delegation{}, NewUnexpectedTags()
	}
	if h.Offsets[0] != 32 || h.Offsets[1] != 40 {
		return Delegation{}, NewUnexpectedOffsets()
	}
	pub, err := PublicKeyFromWire(c)
	if err != nil {
		return Delegation{}, err
	}
	minTime, err := c.TryGetU64LE()
	if err != nil {
		return Delegation{}, err
	}
	maxTime, err := c.TryGetU64LE()
	if err != nil {
		return Delegation{}, err
	}
	return Delegation{PublicKey: pub, MinTime: minTime, MaxTime: maxTime}, nil
}

// Certificate (CERT) is a long-term signature over a Delegation.
type Certificate struct {
	Signature  Signature
	Delegation Delegation
}

var certTags = []Tag{SIG, DELE}

func (c Certificate) WireSize() int {
	h := NewHeader(certTags, []int{64, c.Delegation.WireSize()})
	return h.WireSize() + 64 + c.Delegation.WireSize()
}

func (c Certificate) ToWire(cur *Cursor) error {
	h := NewHeader(certTags, []int{64, c.Delegation.WireSize()})
	if err := h.ToWire(cur); err != nil {
		return err
	}
	if err := c.Signature.ToWire(cur); err != nil {
		return err
	}
	return c.Delegation.ToWire(cur)
}

func CertificateFromWire(cur *Cursor, totalLen int) (Certificate, error) {
	if cur.Remaining() == 0 {
		return Certificate{}, NewBufferTooSmall(1, 0)
	}
	h, err := HeaderFromWireArity(cur, 2, totalLen)
	if err != nil {
		return Certificate{}, err
	}
	if h.Tags[0] != SIG || h.Tags[1] != DELE {
		return Certificate{}, NewUnexpectedTags()
	}
	if h.Offsets[0] != 64 {
		return Certificate{}, NewUnexpectedOffsets()
	}
	sig, err := SignatureFromWire(cur)
	if err != nil {
		return Certificate{}, err
	}
	dele, err := DelegationFromWire(cur, totalLen-cur.Position())
	if err != nil {
		return Certificate{}, err
	}
	return Certificate{Signature: sig, Delegation: dele}, nil
}

// DefaultRadiSeconds is the default accuracy radius a server advertises when
// no tighter measurement is available.
const DefaultRadiSeconds = 5

// SignedResponse (SREP) is the body an online key signs: the negotiated
// version, advertised radius, midpoint time and Merkle root.
type SignedResponse struct {
	Version   ProtocolVersion
	Radi      uint32
	Midp      uint64
	Supported *VersionList
	Root      MerkleRoot
}

var srepTags = []Tag{VER, RADI, MIDP, VERS, ROOT}

func (s SignedResponse) WireSize() int {
	sizes := []int{4, 4, 8, s.Supported.WireSize(), 32}
	h := NewHeader(srepTags, sizes)
	return h.WireSize() + 4 + 4 + 8 + s.Supported.WireSize() + 32
}

func (s SignedResponse) ToWire(c *Cursor) error {
	sizes := []int{4, 4, 8, s.Supported.WireSize(), 32}
	h := NewHeader(srepTags, sizes)
	if err := h.ToWire(c); err != nil {
		return err
	}
	if err := s.Version.ToWire(c); err != nil {
		return err
	}
	if err := c.TryPutU32LE(s.Radi); err != nil {
		return err
	}
	if err := c.TryPutU64LE(s.Midp); err != nil {
		return err
	}
	if err := s.Supported.ToWire(c); err != nil {
		return err
	}
	return s.Root.ToWire(c)
}

func SignedResponseFromWire(c *Cursor, totalLen int) (SignedResponse, error) {
	h, err := HeaderFromWireArity(c, 5, totalLen)
	if err != nil {
		return SignedResponse{}, err
	}
	if h.Tags[0] != VER || h.Tags[1] != RADI || h.Tags[2] != MIDP || h.Tags[3] != VERS || h.Tags[4] != ROOT {
		return SignedResponse{}, NewUnexpectedTags()
	}
	if h.Offsets[0] != 4 || h.Offsets[1] != 8 || h.Offsets[2] != 16 {
		return SignedResponse{}, NewUnexpectedOffsets()
	}
	if h.Offsets[2] == h.Offsets[3] {
		return SignedResponse{}, NewNoSupportedVersions()
	}
	version, err := ProtocolVersionFromWire(c)
	if err != nil {
		return SignedResponse{}, err
	}
	radi, err := c.TryGetU32LE()
	if err != nil {
		return SignedResponse{}, err
	}
	midp, err := c.TryGetU64LE()
	if err != nil {
		return SignedResponse{}, err
	}
	versBytes := int(h.Offsets[3] - h.Offsets[2])
	supported, err := VersionListFromWireN(c, versBytes)
	if err != nil {
		return SignedResponse{}, err
	}
	root, err := MerkleRootFromWire(c)
	if err != nil {
		return SignedResponse{}, err
	}
	return SignedResponse{Version: version, Radi: radi, Midp: midp, Supported: supported, Root: root}, nil
}

// RequestPlain is a request that does not pin a specific server identity.
type RequestPlain struct {
	Version ProtocolVersion
	Nonce   Nonce
}

var requestPlainTags = []Tag{VER, NONC, TYPE, ZZZZ}

// RequestInnerSize is the fixed size of every request message body, with
// ZZZZ padded out to fill the remainder.
const RequestInnerSize = 1012

// RequestFrameSize is the total on-wire size of a request, including the
// 12-byte frame header.
const RequestFrameSize = 1024

func (r RequestPlain) WireSize() int { return RequestInnerSize }

func (r RequestPlain) ToWire(c *Cursor) error {
	padding := RequestInnerSize - 32 - 4 - 32 - 4
	h := NewHeader(requestPlainTags, []int{4, 32, 4, padding})
	if err := h.ToWire(c); err != nil {
		return err
	}
	if err := r.Version.ToWire(c); err != nil {
		return err
	}
	if err := r.Nonce.ToWire(c); err != nil {
		return err
	}
	if err := MessageRequest.ToWire(c); err != nil {
		return err
	}
	return c.TryPutFixed(make([]byte, padding))
}

func requestPlainFromWire(c *Cursor, totalLen int) (RequestPlain, error) {
	h, err := HeaderFromWireArity(c, 4, totalLen)
	if err != nil {
		return RequestPlain{}, err
	}
	if h.Tags[0] != VER || h.Tags[1] != NONC || h.Tags[2] != TYPE || h.Tags[3] != ZZZZ {
		return RequestPlain{}, NewUnexpectedTags()
	}
	if h.Offsets[0] != 4 || h.Offsets[1] != 36 || h.Offsets[2] != 40 {
		return RequestPlain{}, NewUnexpectedOffsets()
	}
	version, err := ProtocolVersionFromWire(c)
	if err != nil {
		return RequestPlain{}, err
	}
	nonce, err := NonceFromWire(c)
	if err != nil {
		return RequestPlain{}, err
	}
	msgType, err := MessageTypeFromWire(c)
	if err != nil {
		return RequestPlain{}, err
	}
	if msgType != MessageRequest {
		return RequestPlain{}, NewInvalidMessageType(uint32(msgType))
	}
	return RequestPlain{Version: version, Nonce: nonce}, nil
}

// RequestSrv is a request that pins the server identity via SrvCommitment,
// protecting against a server swap-in attack when multiple servers share a
// network path.
type RequestSrv struct {
	Version       ProtocolVersion
	SrvCommitment SrvCommitment
	Nonce         Nonce
}

var requestSrvTags = []Tag{VER, SRV, NONC, TYPE, ZZZZ}

func (r RequestSrv) WireSize() int { return RequestInnerSize }

func (r RequestSrv) ToWire(c *Cursor) error {
	padding := RequestInnerSize - 4 - 32 - 32 - 4
	h := NewHeader(requestSrvTags, []int{4, 32, 32, 4, padding})
	if err := h.ToWire(c); err != nil {
		return err
	}
	if err := r.Version.ToWire(c); err != nil {
		return err
	}
	if err := r.SrvCommitment.ToWire(c); err != nil {
		return err
	}
	if err := r.Nonce.ToWire(c); err != nil {
		return err
	}
	if err := MessageRequest.ToWire(c); err != nil {
		return err
	}
	return c.TryPutFixed(make([]byte, padding))
}

func requestSrvFromWire(c *Cursor, totalLen int) (RequestSrv, error) {
	h, err := HeaderFromWireArity(c, 5, totalLen)
	if err != nil {
		return RequestSrv{}, err
	}
	if h.Tags[0] != VER || h.Tags[1] != SRV || h.Tags[2] != NONC || h.Tags[3] != TYPE || h.Tags[4] != ZZZZ {
		return RequestSrv{}, NewUnexpectedTags()
	}
	if h.Offsets[0] != 4 || h.Offsets[1] != 36 || h.Offsets[2] != 68 || h.Offsets[3] != 72 {
		return RequestSrv{}, NewUnexpectedOffsets()
	}
	version, err := ProtocolVersionFromWire(c)
	if err != nil {
		return RequestSrv{}, err
	}
	srv, err := SrvCommitmentFromWire(c)
	if err != nil {
		return RequestSrv{}, err
	}
	nonce, err := NonceFromWire(c)
	if err != nil {
		return RequestSrv{}, err
	}
	msgType, err := MessageTypeFromWire(c)
	if err != nil {
		return RequestSrv{}, err
	}
	if msgType != MessageRequest {
		return RequestSrv{}, NewInvalidMessageType(uint32(msgType))
	}
	return RequestSrv{Version: version, SrvCommitment: srv, Nonce: nonce}, nil
}

// Request is the dispatch union over RequestPlain and RequestSrv, chosen by
// which of the two num_tags values (4 or 5) the wire header declares.
type Request struct {
	Plain *RequestPlain
	Srv   *RequestSrv
}

func (r Request) NonceValue() Nonce {
	if r.Plain != nil {
		return r.Plain.Nonce
	}
	return r.Srv.Nonce
}

func (r Request) VersionValue() ProtocolVersion {
	if r.Plain != nil {
		return r.Plain.Version
	}
	return r.Srv.Version
}

func (r Request) WireSize() int { return RequestInnerSize }

func (r Request) ToWire(c *Cursor) error {
	if r.Plain != nil {
		return r.Plain.ToWire(c)
	}
	return r.Srv.ToWire(c)
}

// RequestFromWire decodes the RequestInnerSize-byte body of a framed
// request, peeking num_tags to choose between RequestPlain and RequestSrv.
func RequestFromWire(c *Cursor, totalLen int) (Request, error) {
	if totalLen != RequestInnerSize {
		return Request{}, NewBufferTooSmall(RequestInnerSize, totalLen)
	}
	numTags, err := PeekNumTags(c)
	if err != nil {
		return Request{}, err
	}
	switch numTags {
	case 4:
		p, err := requestPlainFromWire(c, totalLen)
		if err != nil {
			return Request{}, err
		}
		return Request{Plain: &p}, nil
	case 5:
		s, err := requestSrvFromWire(c, totalLen)
		if err != nil {
			return Request{}, err
		}
		return Request{Srv: &s}, nil
	default:
		return Request{}, NewMismatchedNumTags(4, int(numTags))
	}
}

// Response (Header7) is the batched, signed reply a server sends for one
// request within a Merkle batch.
type Response struct {
	Signature Signature
	Nonce     Nonce
	Path      *MerklePath
	Srep      SignedResponse
	Cert      Certificate
	Index     uint32
}

// MinimumResponseSize is the smallest possible encoded Response: an empty
// path, a single supported version, and the fixed-size remainder.
const MinimumResponseSize = 404

var responseTags = []Tag{SIG, NONC, TYPE, PATH, SREP, CERT, INDX}

func (r Response) offsets() []uint32 {
	var off uint32
	offsets := make([]uint32, 6)
	off += 64
	offsets[0] = off
	off += 32
	offsets[1] = off
	off += 4
	offsets[2] = off
	off += uint32(r.Path.WireSize())
	offsets[3] = off
	off += uint32(r.Srep.WireSize())
	offsets[4] = off
	off += uint32(r.Cert.WireSize())
	offsets[5] = off
	return offsets
}

func (r Response) WireSize() int {
	offsets := r.offsets()
	h := &Header{Tags: responseTags, Offsets: offsets}
	return h.WireSize() + int(offsets[5]) + 4
}

func (r Response) ToWire(c *Cursor) error {
	offsets := r.offsets()
	h := &Header{Tags: responseTags, Offsets: offsets}
	if err := h.ToWire(c); err != nil {
		return err
	}
	if err := r.Signature.ToWire(c); err != nil {
		return err
	}
	if err := r.Nonce.ToWire(c); err != nil {
		return err
	}
	if err := MessageResponse.ToWire(c); err != nil {
		return err
	}
	if err := r.Path.ToWire(c); err != nil {
		return err
	}
	if err := r.Srep.ToWire(c); err != nil {
		return err
	}
	if err := r.Cert.ToWire(c); err != nil {
		return err
	}
	return c.TryPutU32LE(r.Index)
}

// ResponseFromWire decodes a Response body of totalLen bytes (not including
// any stream frame header).
func ResponseFromWire(c *Cursor, totalLen int) (Response, error) {
	h, err := HeaderFromWireArity(c, 7, totalLen)
	if err != nil {
		return Response{}, err
	}
	for i, want := range responseTags {
		if h.Tags[i] != want {
			return Response{}, NewUnexpectedTags()
		}
	}
	sig, err := SignatureFromWire(c)
	if err != nil {
		return Response{}, err
	}
	nonce, err := NonceFromWire(c)
	if err != nil {
		return Response{}, err
	}
	msgType, err := MessageTypeFromWire(c)
	if err != nil {
		return Response{}, err
	}
	if msgType != MessageResponse {
		return Response{}, NewInvalidMessageType(uint32(msgType))
	}
	pathLen := int(h.Offsets[3] - h.Offsets[2])
	path, err := MerklePathFromWireN(c, pathLen)
	if err != nil {
		return Response{}, err
	}
	srepLen := int(h.Offsets[4] - h.Offsets[3])
	srep, err := SignedResponseFromWire(c, srepLen)
	if err != nil {
		return Response{}, err
	}
	certLen := int(h.Offsets[5] - h.Offsets[4])
	cert, err := CertificateFromWire(c, certLen)
	if err != nil {
		return Response{}, err
	}
	index, err := c.TryGetU32LE()
	if err != nil {
		return Response{}, err
	}
	return Response{
		Signature: sig,
		Nonce:     nonce,
		Path:      path,
		Srep:      srep,
		Cert:      cert,
		Index:     index,
	}, nil
}

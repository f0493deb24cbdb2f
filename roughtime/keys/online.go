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

// Package keys implements the long-term/online Ed25519 key hierarchy: a
// long-term identity signs short-lived delegation certificates, and the
// delegated online key signs each batch's SignedResponse. Keeping the
// long-term key offline and out of the request hot path limits the blast
// radius of a compromised server process to its current delegation window.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/facebook/roughtime/roughtime/wire"
)

// OnlineSigner wraps the ephemeral Ed25519 keypair a server uses to sign
// batch responses for the lifetime of one delegation window.
type OnlineSigner struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// NewOnlineSignerFromRandom generates a fresh online keypair.
func NewOnlineSignerFromRandom() (*OnlineSigner, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating online keypair: %w", err)
	}
	return &OnlineSigner{public: pub, private: priv}, nil
}

func (s *OnlineSigner) PublicKey() wire.PublicKey {
	var pk wire.PublicKey
	copy(pk[:], s.public)
	return pk
}

func (s *OnlineSigner) PublicKeyBytes() ed25519.PublicKey {
	return s.public
}

func (s *OnlineSigner) Sign(data []byte) wire.Signature {
	sig := ed25519.Sign(s.private, data)
	var out wire.Signature
	copy(out[:], sig)
	return out
}

// OnlineKey binds an OnlineSigner to the certificate that delegates it and
// the clock source used to timestamp responses. A template SignedResponse
// and a signing buffer holding the context prefix are kept per delegation
// window; signing a batch fills in the root and midpoint, re-encodes the
// SREP into that buffer after the prefix, and signs it.
type OnlineKey struct {
	signer      *OnlineSigner
	cert        wire.Certificate
	version     wire.ProtocolVersion
	clockSource ClockSource
	template    wire.SignedResponse
	signingBuf  []byte
	prefixLen   int
}

// NewOnlineKey builds an OnlineKey for the given protocol version and clock
// source, generating a fresh online keypair. The returned key is not yet
// delegated; call Delegate with a Certificate issued by a LongTermIdentity
// before using it to sign responses.
func NewOnlineKey(version wire.ProtocolVersion, clockSource ClockSource) (*OnlineKey, error) {
	signer, err := NewOnlineSignerFromRandom()
	if err != nil {
		return nil, err
	}
	template := wire.SignedResponse{
		Version:   version,
		Radi:      wire.DefaultRadiSeconds,
		Supported: wire.NewVersionList([]wire.ProtocolVersion{version}),
	}
	prefix := version.SrepPrefix()
	buf := make([]byte, len(prefix)+template.WireSize())
	copy(buf, prefix)
	return &OnlineKey{
		signer:      signer,
		version:     version,
		clockSource: clockSource,
		template:    template,
		signingBuf:  buf,
		prefixLen:   len(prefix),
	}, nil
}

// Delegate attaches the Certificate that a long-term identity issued for
// this key's public key.
func (k *OnlineKey) Delegate(cert wire.Certificate) {
	k.cert = cert
}

// Certificate returns the delegation certificate attached by Delegate.
func (k *OnlineKey) Certificate() wire.Certificate {
	return k.cert
}

// PublicKey returns the online key's own Ed25519 public key.
func (k *OnlineKey) PublicKey() wire.PublicKey {
	return k.signer.PublicKey()
}

// MakeSrep stamps root and the current time into the template
// SignedResponse, signs the prefixed encoding, and returns both the signed
// body and its signature.
func (k *OnlineKey) MakeSrep(root wire.MerkleRoot) (wire.SignedResponse, wire.Signature, error) {
	srep := k.template
	srep.Root = root
	srep.Midp = k.clockSource.EpochMicros()

	total := k.prefixLen + srep.WireSize()
	if cap(k.signingBuf) < total {
		k.signingBuf = make([]byte, total)
		copy(k.signingBuf, k.version.SrepPrefix())
	}
	buf := k.signingBuf[:total]
	cursor := wire.NewCursor(buf[k.prefixLen:])
	if err := srep.ToWire(cursor); err != nil {
		return wire.SignedResponse{}, wire.Signature{}, err
	}
	sig := k.signer.Sign(buf)
	return srep, sig, nil
}

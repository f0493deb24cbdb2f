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

package keys

import (
	"crypto/ed25519"
	"fmt"

	"github.com/facebook/roughtime/roughtime/wire"
)

// LongTermIdentity is the server operator's durable Ed25519 keypair. It
// never signs a client-facing response directly; its only job is to issue
// Delegation certificates for rotating OnlineKeys, keeping the
// highest-value key off the request-handling hot path.
type LongTermIdentity struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// NewLongTermIdentity wraps an existing Ed25519 private key, typically
// loaded via a SeedSource.
func NewLongTermIdentity(priv ed25519.PrivateKey) *LongTermIdentity {
	return &LongTermIdentity{public: priv.Public().(ed25519.PublicKey), private: priv}
}

func (l *LongTermIdentity) PublicKey() wire.PublicKey {
	var pk wire.PublicKey
	copy(pk[:], l.public)
	return pk
}

// DelegateTo issues a Certificate binding onlineKey's public key to the
// window [now, now+validity] (both ends inclusive), signed under version's
// delegation prefix.
func (l *LongTermIdentity) DelegateTo(onlineKey wire.PublicKey, version wire.ProtocolVersion, now uint64, validitySeconds uint64) wire.Certificate {
	dele := wire.NewDelegation(onlineKey, now, validitySeconds)
	size := dele.WireSize()
	buf := make([]byte, size)
	cursor := wire.NewCursor(buf)
	if err := dele.ToWire(cursor); err != nil {
		panic(fmt.Sprintf("keys: encoding delegation for signing: %v", err))
	}
	prefix := version.DelePrefix()
	signed := append(append([]byte{}, prefix...), buf...)
	sig := ed25519.Sign(l.private, signed)
	var wireSig wire.Signature
	copy(wireSig[:], sig)
	return wire.Certificate{Signature: wireSig, Delegation: dele}
}

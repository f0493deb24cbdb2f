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

// Package validator checks a server's Response against the nonce a client
// sent and the long-term public key it expects to have signed the
// delegation chain, then checks causality across a chained sequence of
// measurements against multiple servers.
package validator

import (
	"crypto/ed25519"
	"fmt"

	"github.com/facebook/roughtime/roughtime/merkle"
	"github.com/facebook/roughtime/roughtime/wire"
)

// Validator verifies one Response against the long-term public key the
// client expects this server to use.
type Validator struct {
	LongTermPublicKey ed25519.PublicKey
}

// New builds a Validator pinned to a server's long-term public key.
func New(longTermPublicKey ed25519.PublicKey) *Validator {
	return &Validator{LongTermPublicKey: longTermPublicKey}
}

// Validate runs the four checks RFC 5.2 requires of a client before it may
// trust a response: the Merkle path must reproduce the SREP root from the
// request nonce, the certificate must be properly delegated and signed by
// the pinned long-term key, the online key must be the one that signed the
// response, and the delegation's validity window must contain the
// response's own midpoint.
func (v *Validator) Validate(requestNonce wire.Nonce, resp wire.Response) error {
	root := merkle.RootFromPath(int(resp.Index), requestNonce[:], resp.Path)
	if root != resp.Srep.Root {
		return fmt.Errorf("validator: merkle path does not reproduce SREP root")
	}

	dele := resp.Cert.Delegation
	if resp.Srep.Midp/1_000_000 < dele.MinTime || resp.Srep.Midp/1_000_000 > dele.MaxTime {
		return fmt.Errorf("validator: response midpoint outside delegation validity window")
	}

	deleBuf := make([]byte, dele.WireSize())
	cursor := wire.NewCursor(deleBuf)
	if err := dele.ToWire(cursor); err != nil {
		return fmt.Errorf("validator: re-encoding delegation: %w", err)
	}
	delePrefix := wire.RfcDraft14.DelePrefix()
	signed := append(append([]byte{}, delePrefix...), deleBuf...)
	if !ed25519.Verify(v.LongTermPublicKey, signed, resp.Cert.Signature[:]) {
		delePrefix = wire.Google.DelePrefix()
		signed = append(append([]byte{}, delePrefix...), deleBuf...)
		if !ed25519.Verify(v.LongTermPublicKey, signed, resp.Cert.Signature[:]) {
			return fmt.Errorf("validator: certificate signature does not verify under pinned long-term key")
		}
	}

	srepBuf := make([]byte, resp.Srep.WireSize())
	srepCursor := wire.NewCursor(srepBuf)
	if err := resp.Srep.ToWire(srepCursor); err != nil {
		return fmt.Errorf("validator: re-encoding SREP: %w", err)
	}
	srepPrefix := resp.Srep.Version.SrepPrefix()
	srepSigned := append(append([]byte{}, srepPrefix...), srepBuf...)
	onlinePub := dele.PublicKey
	if !ed25519.Verify(onlinePub[:], srepSigned, resp.Signature[:]) {
		return fmt.Errorf("validator: response signature does not verify under delegated online key")
	}

	return nil
}

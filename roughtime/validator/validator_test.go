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

package validator

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facebook/roughtime/roughtime/keys"
	"github.com/facebook/roughtime/roughtime/merkle"
	"github.com/facebook/roughtime/roughtime/wire"
)

// buildValidResponse assembles a single-leaf-batch Response signed by a
// freshly generated long-term/online key pair, mirroring the path a real
// server's responder takes for a batch of one.
func buildValidResponse(t *testing.T) (wire.Nonce, wire.Response, ed25519.PublicKey) {
	t.Helper()
	longTermPub, longTermPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	identity := keys.NewLongTermIdentity(longTermPriv)

	online, err := keys.NewOnlineKey(wire.RfcDraft14, keys.FixedOffsetClock{})
	require.NoError(t, err)
	cert := identity.DelegateTo(online.PublicKey(), wire.RfcDraft14, 0, 1<<40)
	online.Delegate(cert)

	var nonce wire.Nonce
	nonce[0] = 0x42

	tree := merkle.New()
	tree.PushLeaf(nonce[:])
	root := tree.ComputeRoot()
	path := tree.GetPaths(0)

	srep, sig, err := online.MakeSrep(root)
	require.NoError(t, err)

	resp := wire.Response{
		Signature: sig,
		Nonce:     nonce,
		Path:      path,
		Srep:      srep,
		Cert:      online.Certificate(),
		Index:     0,
	}
	return nonce, resp, longTermPub
}

func TestValidateAcceptsWellFormedResponse(t *testing.T) {
	nonce, resp, longTermPub := buildValidResponse(t)
	v := New(longTermPub)
	require.NoError(t, v.Validate(nonce, resp))
}

func TestValidateRejectsWrongLongTermKey(t *testing.T) {
	nonce, resp, _ := buildValidResponse(t)
	wrongPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	v := New(wrongPub)
	require.Error(t, v.Validate(nonce, resp))
}

func TestValidateRejectsTamperedMerklePath(t *testing.T) {
	nonce, resp, longTermPub := buildValidResponse(t)
	resp.Path.PushElement([32]byte{0xff})

	v := New(longTermPub)
	require.Error(t, v.Validate(nonce, resp))
}

func TestValidateRejectsMidpointOutsideDelegationWindow(t *testing.T) {
	nonce, resp, longTermPub := buildValidResponse(t)
	resp.Srep.Midp = (resp.Cert.Delegation.MaxTime + 1) * 1_000_000

	v := New(longTermPub)
	require.Error(t, v.Validate(nonce, resp))
}

func TestValidateRejectsTamperedSignature(t *testing.T) {
	nonce, resp, longTermPub := buildValidResponse(t)
	resp.Signature[0] ^= 0xff

	v := New(longTermPub)
	require.Error(t, v.Validate(nonce, resp))
}

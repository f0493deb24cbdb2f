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

package server

import (
	"crypto/ed25519"
	"crypto/rand"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facebook/roughtime/roughtime/keys"
	"github.com/facebook/roughtime/roughtime/validator"
	"github.com/facebook/roughtime/roughtime/wire"
)

func newTestResponder(t *testing.T) (*Responder, ed25519.PublicKey) {
	t.Helper()
	longTermPub, longTermPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	identity := keys.NewLongTermIdentity(longTermPriv)

	online, err := keys.NewOnlineKey(wire.RfcDraft14, keys.FixedOffsetClock{})
	require.NoError(t, err)
	cert := identity.DelegateTo(online.PublicKey(), wire.RfcDraft14, 0, 1<<40)
	online.Delegate(cert)

	return NewResponder(online), longTermPub
}

func addrFor(port int) net.Addr {
	return &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: port}
}

func TestResponderSingleRequestBatch(t *testing.T) {
	r, longTermPub := newTestResponder(t)
	var nonce wire.Nonce
	nonce[0] = 1
	require.NoError(t, r.AddRequest(addrFor(1), nonce))
	require.Equal(t, 1, r.Len())

	out, err := r.ProcessResponses()
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, 0, r.Len())

	c, length, err := wire.DecodeFrame(out[0].Frame)
	require.NoError(t, err)
	resp, err := wire.ResponseFromWire(c, length)
	require.NoError(t, err)

	v := validator.New(longTermPub)
	require.NoError(t, v.Validate(nonce, resp))
}

func TestResponderMultiRequestBatchEachVerifies(t *testing.T) {
	r, longTermPub := newTestResponder(t)
	nonces := make([]wire.Nonce, 5)
	for i := range nonces {
		nonces[i][0] = byte(i + 1)
		require.NoError(t, r.AddRequest(addrFor(i), nonces[i]))
	}

	out, err := r.ProcessResponses()
	require.NoError(t, err)
	require.Len(t, out, 5)

	v := validator.New(longTermPub)
	for i, o := range out {
		c, length, err := wire.DecodeFrame(o.Frame)
		require.NoError(t, err)
		resp, err := wire.ResponseFromWire(c, length)
		require.NoError(t, err)
		require.NoError(t, v.Validate(nonces[i], resp))
	}
}

func TestResponderProcessResponsesOnEmptyBatchIsNoop(t *testing.T) {
	r, _ := newTestResponder(t)
	out, err := r.ProcessResponses()
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestResponderRejectsRequestWhenFull(t *testing.T) {
	r, _ := newTestResponder(t)
	for i := 0; i < MaxBatchSize; i++ {
		var nonce wire.Nonce
		nonce[0] = byte(i)
		require.NoError(t, r.AddRequest(addrFor(i), nonce))
	}
	require.True(t, r.Full())

	var extra wire.Nonce
	err := r.AddRequest(addrFor(MaxBatchSize), extra)
	require.Error(t, err)
}

func TestReplaceOnlineKeyFlushesPendingBatch(t *testing.T) {
	r, longTermPub := newTestResponder(t)
	var nonce wire.Nonce
	nonce[0] = 9
	require.NoError(t, r.AddRequest(addrFor(1), nonce))

	identity := keys.NewLongTermIdentity(mustGenerateKey(t))
	newOnline, err := keys.NewOnlineKey(wire.RfcDraft14, keys.FixedOffsetClock{})
	require.NoError(t, err)
	newOnline.Delegate(identity.DelegateTo(newOnline.PublicKey(), wire.RfcDraft14, 0, 1<<40))

	flushed, err := r.ReplaceOnlineKey(newOnline)
	require.NoError(t, err)
	require.Len(t, flushed, 1)
	require.Equal(t, 0, r.Len())
}

func mustGenerateKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return priv
}

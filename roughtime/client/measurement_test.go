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

package client

import (
	"crypto/ed25519"
	"crypto/rand"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/facebook/roughtime/roughtime/keys"
	"github.com/facebook/roughtime/roughtime/server"
	"github.com/facebook/roughtime/roughtime/wire"
)

// loopbackServer answers one request at a time over a real loopback UDP
// socket, using a batching Responder of size 1. It runs until Close.
type loopbackServer struct {
	conn      *net.UDPConn
	responder *server.Responder
	done      chan struct{}
}

func startLoopbackServer(t *testing.T) (*loopbackServer, ed25519.PublicKey) {
	t.Helper()
	longTermPub, longTermPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	identity := keys.NewLongTermIdentity(longTermPriv)

	online, err := keys.NewOnlineKey(wire.RfcDraft14, keys.FixedOffsetClock{})
	require.NoError(t, err)
	online.Delegate(identity.DelegateTo(online.PublicKey(), wire.RfcDraft14, 0, 1<<40))

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)

	ls := &loopbackServer{
		conn:      conn,
		responder: server.NewResponder(online),
		done:      make(chan struct{}),
	}
	go ls.run()
	t.Cleanup(ls.close)
	return ls, longTermPub
}

func (ls *loopbackServer) run() {
	buf := make([]byte, 4096)
	for {
		n, addr, err := ls.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ls.done:
				return
			default:
				continue
			}
		}
		c, length, err := wire.DecodeFrame(buf[:n])
		if err != nil {
			continue
		}
		req, err := wire.RequestFromWire(c, length)
		if err != nil {
			continue
		}
		if err := ls.responder.AddRequest(addr, req.NonceValue()); err != nil {
			continue
		}
		out, err := ls.responder.ProcessResponses()
		if err != nil || len(out) == 0 {
			continue
		}
		_, _ = ls.conn.WriteToUDP(out[0].Frame, addr)
	}
}

func (ls *loopbackServer) addr() string {
	return ls.conn.LocalAddr().String()
}

func (ls *loopbackServer) close() {
	close(ls.done)
	_ = ls.conn.Close()
}

func TestRunSequenceEmptyListIsError(t *testing.T) {
	_, err := RunSequence(nil)
	require.Error(t, err)
}

func TestRunSequenceChainsAcrossServers(t *testing.T) {
	serverA, pubA := startLoopbackServer(t)
	serverB, pubB := startLoopbackServer(t)

	servers := []ServerEntry{
		{Name: "a", Addr: serverA.addr(), PublicKey: pubA},
		{Name: "b", Addr: serverB.addr(), PublicKey: pubB},
	}

	measurements, err := RunSequence(servers)
	require.NoError(t, err)
	require.Len(t, measurements, 2)
	require.Equal(t, "a", measurements[0].Server)
	require.Equal(t, "b", measurements[1].Server)
	require.NotEqual(t, measurements[0].RequestNonce, measurements[1].RequestNonce)
}

func TestRunSequenceFailsWhenAServerIsUnreachable(t *testing.T) {
	serverA, pubA := startLoopbackServer(t)
	servers := []ServerEntry{
		{Name: "a", Addr: serverA.addr(), PublicKey: pubA},
		{Name: "unreachable", Addr: "127.0.0.1:1", PublicKey: pubA},
	}

	_, err := RunSequence(servers)
	require.Error(t, err)
}

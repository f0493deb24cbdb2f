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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPortableBackendReceiveBatchTimesOutWithNoTraffic(t *testing.T) {
	backend, err := NewPortableBackend("127.0.0.1:0")
	require.NoError(t, err)
	defer backend.Close()

	packets, err := backend.ReceiveBatch(time.Now().Add(20 * time.Millisecond))
	require.NoError(t, err)
	require.Empty(t, packets)
}

func TestPortableBackendSendAndReceiveRoundTrip(t *testing.T) {
	server, err := NewPortableBackend("127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()

	client, err := NewPortableBackend("127.0.0.1:0")
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.SendBatch([]Outgoing{{Addr: server.LocalAddr(), Frame: []byte("hello")}}))

	packets, err := server.ReceiveBatch(time.Now().Add(time.Second))
	require.NoError(t, err)
	require.Len(t, packets, 1)
	require.Equal(t, []byte("hello"), packets[0].Data)
}

func TestPortableBackendReceiveBatchDrainsBurst(t *testing.T) {
	server, err := NewPortableBackend("127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()

	client, err := NewPortableBackend("127.0.0.1:0")
	require.NoError(t, err)
	defer client.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, client.SendBatch([]Outgoing{{Addr: server.LocalAddr(), Frame: []byte{byte(i)}}}))
	}
	// Give the kernel a moment to queue every datagram before the first read.
	time.Sleep(50 * time.Millisecond)

	packets, err := server.ReceiveBatch(time.Now().Add(time.Second))
	require.NoError(t, err)
	require.Len(t, packets, 5)
}

func TestPortableBackendSendBatchReturnsFirstErrorButSendsAll(t *testing.T) {
	server, err := NewPortableBackend("127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()

	client, err := NewPortableBackend("127.0.0.1:0")
	require.NoError(t, err)
	defer client.Close()

	// The first frame has no destination address, so writing it fails; the
	// second must still be sent.
	out := []Outgoing{
		{Addr: nil, Frame: []byte("a")},
		{Addr: server.LocalAddr(), Frame: []byte("b")},
	}
	require.Error(t, client.SendBatch(out))

	packets, err := server.ReceiveBatch(time.Now().Add(time.Second))
	require.NoError(t, err)
	require.Len(t, packets, 1)
	require.Equal(t, []byte("b"), packets[0].Data)
}

func TestPortableBackendLocalAddr(t *testing.T) {
	backend, err := NewPortableBackend("127.0.0.1:0")
	require.NoError(t, err)
	defer backend.Close()

	require.NotEmpty(t, backend.LocalAddr().String())
}

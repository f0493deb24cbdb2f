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

func TestLinuxBatchedBackendSendAndReceiveRoundTrip(t *testing.T) {
	server, err := NewLinuxBatchedBackend("127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()

	client, err := NewLinuxBatchedBackend("127.0.0.1:0")
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.SendBatch([]Outgoing{{Addr: server.LocalAddr(), Frame: []byte("hello")}}))

	packets, err := server.ReceiveBatch(time.Now().Add(time.Second))
	require.NoError(t, err)
	require.Len(t, packets, 1)
	require.Equal(t, []byte("hello"), packets[0].Data)
}

func TestLinuxBatchedBackendReceiveBatchTimesOutWithNoTraffic(t *testing.T) {
	backend, err := NewLinuxBatchedBackend("127.0.0.1:0")
	require.NoError(t, err)
	defer backend.Close()

	packets, err := backend.ReceiveBatch(time.Now().Add(20 * time.Millisecond))
	require.NoError(t, err)
	require.Empty(t, packets)
}

func TestLinuxBatchedBackendReceivesMultipleDatagramsInOneCall(t *testing.T) {
	server, err := NewLinuxBatchedBackend("127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()

	client, err := NewLinuxBatchedBackend("127.0.0.1:0")
	require.NoError(t, err)
	defer client.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, client.SendBatch([]Outgoing{{Addr: server.LocalAddr(), Frame: []byte{byte(i)}}}))
	}
	time.Sleep(50 * time.Millisecond)

	packets, err := server.ReceiveBatch(time.Now().Add(time.Second))
	require.NoError(t, err)
	require.Len(t, packets, 3)
}

func TestNewBackendUsesLinuxBatchedBackend(t *testing.T) {
	backend, err := NewBackend("127.0.0.1:0")
	require.NoError(t, err)
	defer backend.Close()

	_, ok := backend.(*linuxBatchedBackend)
	require.True(t, ok)
}

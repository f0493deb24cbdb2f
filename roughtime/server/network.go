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
	"net"
	"time"
)

// ReceivedPacket is one inbound datagram read off a Backend.
type ReceivedPacket struct {
	Addr net.Addr
	Data []byte
}

// Backend abstracts how a worker reads requests and writes responses off
// the wire. The portable implementation wraps a single net.PacketConn; the
// Linux implementation batches many datagrams per syscall via recvmmsg and
// sendmmsg, cutting per-packet syscall overhead under high request rates.
type Backend interface {
	// ReceiveBatch blocks up to deadline for at least one datagram, then
	// returns as many as arrived without further blocking.
	ReceiveBatch(deadline time.Time) ([]ReceivedPacket, error)
	// SendBatch writes every outgoing frame, best-effort: a failure to
	// send one packet does not abort the others.
	SendBatch(out []Outgoing) error
	Close() error
	LocalAddr() net.Addr
}

// portableBackend is the net.PacketConn-based Backend used on platforms
// without a batched socket syscall, and as the default backend everywhere
// recvmmsg/sendmmsg either aren't available or aren't worth the complexity.
type portableBackend struct {
	conn net.PacketConn
}

// NewPortableBackend binds a UDP socket at addr using the standard library
// networking stack.
func NewPortableBackend(addr string) (Backend, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}
	return &portableBackend{conn: conn}, nil
}

const portableBatchSize = 64
const maxDatagramSize = 1500

func (b *portableBackend) ReceiveBatch(deadline time.Time) ([]ReceivedPacket, error) {
	if err := b.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	buf := make([]byte, maxDatagramSize)
	n, addr, err := b.conn.ReadFrom(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, nil
		}
		return nil, err
	}
	packet := ReceivedPacket{Addr: addr, Data: append([]byte{}, buf[:n]...)}
	packets := []ReceivedPacket{packet}

	// Opportunistically drain any further datagrams already queued in the
	// kernel socket buffer without blocking, up to portableBatchSize, so a
	// burst of requests still gets batched into one Merkle tree even on
	// this simpler backend.
	if err := b.conn.SetReadDeadline(time.Now()); err != nil {
		return packets, nil
	}
	for len(packets) < portableBatchSize {
		n, addr, err := b.conn.ReadFrom(buf)
		if err != nil {
			break
		}
		packets = append(packets, ReceivedPacket{Addr: addr, Data: append([]byte{}, buf[:n]...)})
	}
	return packets, nil
}

func (b *portableBackend) SendBatch(out []Outgoing) error {
	var firstErr error
	for _, o := range out {
		if _, err := b.conn.WriteTo(o.Frame, o.Addr); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (b *portableBackend) Close() error {
	return b.conn.Close()
}

func (b *portableBackend) LocalAddr() net.Addr {
	return b.conn.LocalAddr()
}

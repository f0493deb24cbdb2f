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
	"fmt"
	"net"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// linuxBatchedBackend reads and writes many datagrams per syscall via
// recvmmsg(2)/sendmmsg(2), avoiding a syscall per request under the request
// rates a shared public Roughtime server sees. It is only wired in on
// Linux; every other platform falls back to portableBackend.
type linuxBatchedBackend struct {
	conn *net.UDPConn
	fd   int

	bufs [linuxBatchSize][maxDatagramSize]byte
	msgs [linuxBatchSize]unix.Mmsghdr
	iovs [linuxBatchSize]unix.Iovec
	rsa  [linuxBatchSize]unix.RawSockaddrInet6
}

const linuxBatchSize = 64

// NewBackend binds the batched recvmmsg/sendmmsg backend on Linux.
func NewBackend(addr string) (Backend, error) {
	return NewLinuxBatchedBackend(addr)
}

// NewLinuxBatchedBackend binds a UDP socket at addr and prepares the
// recvmmsg/sendmmsg message headers used for every subsequent batch.
func NewLinuxBatchedBackend(addr string) (Backend, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	sc, err := conn.SyscallConn()
	if err != nil {
		conn.Close()
		return nil, err
	}
	var fd int
	var ctrlErr error
	err = sc.Control(func(f uintptr) {
		fd = int(f)
	})
	if err != nil || ctrlErr != nil {
		conn.Close()
		return nil, fmt.Errorf("server: obtaining socket fd: %w", err)
	}

	b := &linuxBatchedBackend{conn: conn, fd: fd}
	for i := range b.msgs {
		b.iovs[i].Base = &b.bufs[i][0]
		b.iovs[i].SetLen(maxDatagramSize)
		b.msgs[i].Hdr.Iov = &b.iovs[i]
		b.msgs[i].Hdr.Iovlen = 1
		b.msgs[i].Hdr.Name = (*byte)(unsafe.Pointer(&b.rsa[i]))
		b.msgs[i].Hdr.Namelen = uint32(unsafe.Sizeof(b.rsa[i]))
	}
	return b, nil
}

func (b *linuxBatchedBackend) ReceiveBatch(deadline time.Time) ([]ReceivedPacket, error) {
	if err := b.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	timeout := time.Until(deadline)
	if timeout < 0 {
		timeout = 0
	}
	ts := unix.NsecToTimespec(timeout.Nanoseconds())

	n, err := unix.Recvmmsg(b.fd, b.msgs[:], 0, &ts)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
			return nil, nil
		}
		return nil, err
	}

	out := make([]ReceivedPacket, 0, n)
	for i := 0; i < n; i++ {
		length := int(b.msgs[i].Len)
		data := append([]byte{}, b.bufs[i][:length]...)
		addr := sockaddrToUDPAddr(&b.rsa[i])
		out = append(out, ReceivedPacket{Addr: addr, Data: data})
	}
	return out, nil
}

func (b *linuxBatchedBackend) SendBatch(out []Outgoing) error {
	if len(out) == 0 {
		return nil
	}
	msgs := make([]unix.Mmsghdr, len(out))
	iovs := make([]unix.Iovec, len(out))
	addrs := make([]unix.RawSockaddrInet6, len(out))
	for i, o := range out {
		iovs[i].Base = &o.Frame[0]
		iovs[i].SetLen(len(o.Frame))
		udpAddr, ok := o.Addr.(*net.UDPAddr)
		if !ok {
			continue
		}
		udpAddrToSockaddr(udpAddr, &addrs[i])
		msgs[i].Hdr.Iov = &iovs[i]
		msgs[i].Hdr.Iovlen = 1
		msgs[i].Hdr.Name = (*byte)(unsafe.Pointer(&addrs[i]))
		msgs[i].Hdr.Namelen = uint32(unsafe.Sizeof(addrs[i]))
	}
	var firstErr error
	sent := 0
	for sent < len(msgs) {
		n, err := unix.Sendmmsg(b.fd, msgs[sent:], 0)
		if err != nil {
			// The message at msgs[sent] failed; skip it and send the rest.
			if firstErr == nil {
				firstErr = fmt.Errorf("server: sendmmsg: %w", err)
			}
			sent++
			continue
		}
		if n == 0 {
			return fmt.Errorf("server: sendmmsg made no progress")
		}
		sent += n
	}
	return firstErr
}

func (b *linuxBatchedBackend) Close() error {
	return b.conn.Close()
}

func (b *linuxBatchedBackend) LocalAddr() net.Addr {
	return b.conn.LocalAddr()
}

func sockaddrToUDPAddr(rsa *unix.RawSockaddrInet6) *net.UDPAddr {
	switch rsa.Family {
	case unix.AF_INET6:
		port := int(rsa.Port>>8) | int(rsa.Port&0xff)<<8
		return &net.UDPAddr{IP: net.IP(rsa.Addr[:]), Port: port}
	default:
		rsa4 := (*unix.RawSockaddrInet4)(unsafe.Pointer(rsa))
		port := int(rsa4.Port>>8) | int(rsa4.Port&0xff)<<8
		return &net.UDPAddr{IP: net.IP(rsa4.Addr[:]), Port: port}
	}
}

func udpAddrToSockaddr(addr *net.UDPAddr, out *unix.RawSockaddrInet6) {
	if ip4 := addr.IP.To4(); ip4 != nil {
		out4 := (*unix.RawSockaddrInet4)(unsafe.Pointer(out))
		out4.Family = unix.AF_INET
		out4.Port = uint16(addr.Port>>8) | uint16(addr.Port&0xff)<<8
		copy(out4.Addr[:], ip4)
		return
	}
	out.Family = unix.AF_INET6
	out.Port = uint16(addr.Port>>8) | uint16(addr.Port&0xff)<<8
	copy(out.Addr[:], addr.IP.To16())
}

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

// Package client implements a Roughtime query client: a single
// request/response round trip against one server, plus the chained
// multi-server measurement sequence built on top of it.
package client

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net"
	"time"

	"github.com/facebook/roughtime/roughtime/validator"
	"github.com/facebook/roughtime/roughtime/wire"
)

// Transport abstracts how a query's request/response round trip is carried,
// so tests can substitute an in-memory transport for a real UDP socket.
type Transport interface {
	Query(addr string, frame []byte, timeout time.Duration) ([]byte, error)
}

// udpTransport is the default Transport, a single UDP datagram exchange.
type udpTransport struct{}

func (udpTransport) Query(addr string, frame []byte, timeout time.Duration) ([]byte, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: dialing %s: %w", addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	if _, err := conn.Write(frame); err != nil {
		return nil, fmt.Errorf("client: sending request: %w", err)
	}
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("client: reading response: %w", err)
	}
	return buf[:n], nil
}

// Client queries a single Roughtime server.
type Client struct {
	Addr              string
	LongTermPublicKey ed25519.PublicKey
	// ServerIdentityKey, if set, pins the request to a specific server
	// identity: the SRV tag is filled with wire.MakeSrvCommitment of this
	// key rather than left out, protecting against a server swap-in
	// attack when multiple servers share a network path.
	ServerIdentityKey *wire.PublicKey
	Timeout           time.Duration
	Version           wire.ProtocolVersion
	Transport         Transport
}

// NewClient builds a Client for addr, validating responses against
// longTermPublicKey.
func NewClient(addr string, longTermPublicKey ed25519.PublicKey) *Client {
	return &Client{
		Addr:              addr,
		LongTermPublicKey: longTermPublicKey,
		Timeout:           5 * time.Second,
		Version:           wire.DefaultProtocolVersion,
		Transport:         udpTransport{},
	}
}

// Query runs one request/response round trip, using nonce as the request
// nonce (random, unless this is a chained follow-up query) and returning a
// validated Measurement alongside the raw response wire bytes so a caller
// building a chained sequence can derive the next nonce from them.
func (c *Client) Query(nonce wire.Nonce) (validator.Measurement, []byte, error) {
	req, err := c.buildRequest(nonce)
	if err != nil {
		return validator.Measurement{}, nil, err
	}
	frame, err := wire.EncodeFrame(req)
	if err != nil {
		return validator.Measurement{}, nil, fmt.Errorf("client: encoding request: %w", err)
	}

	sendTime := time.Now()
	raw, err := c.Transport.Query(c.Addr, frame, c.Timeout)
	recvTime := time.Now()
	if err != nil {
		return validator.Measurement{}, nil, err
	}

	cursor, length, err := wire.DecodeFrame(raw)
	if err != nil {
		return validator.Measurement{}, nil, fmt.Errorf("client: bad response framing: %w", err)
	}
	resp, err := wire.ResponseFromWire(cursor, length)
	if err != nil {
		return validator.Measurement{}, nil, fmt.Errorf("client: decoding response: %w", err)
	}

	if resp.Nonce != nonce {
		return validator.Measurement{}, nil, fmt.Errorf("client: response nonce does not match request")
	}

	v := validator.New(c.LongTermPublicKey)
	if err := v.Validate(nonce, resp); err != nil {
		return validator.Measurement{}, nil, err
	}

	m := validator.Measurement{
		Server:          c.Addr,
		LocalSendMicros: uint64(sendTime.UnixMicro()),
		LocalRecvMicros: uint64(recvTime.UnixMicro()),
		Response:        resp,
		RequestNonce:    nonce,
	}
	return m, raw, nil
}

func (c *Client) buildRequest(nonce wire.Nonce) (wire.Request, error) {
	if c.ServerIdentityKey != nil {
		return wire.Request{Srv: &wire.RequestSrv{
			Version:       c.Version,
			SrvCommitment: wire.MakeSrvCommitment(*c.ServerIdentityKey),
			Nonce:         nonce,
		}}, nil
	}
	return wire.Request{Plain: &wire.RequestPlain{
		Version: c.Version,
		Nonce:   nonce,
	}}, nil
}

// RandomNonce generates a fresh 32-byte nonce for a non-chained (first)
// query.
func RandomNonce() (wire.Nonce, error) {
	var n wire.Nonce
	if _, err := rand.Read(n[:]); err != nil {
		return n, fmt.Errorf("client: generating nonce: %w", err)
	}
	return n, nil
}

// Query is a convenience one-shot: it resolves the server's long-term
// public key from the caller, runs a single round trip with a fresh
// nonce, and returns the validated Measurement.
func Query(addr string, longTermPublicKey ed25519.PublicKey) (validator.Measurement, error) {
	c := NewClient(addr, longTermPublicKey)
	nonce, err := RandomNonce()
	if err != nil {
		return validator.Measurement{}, err
	}
	m, _, err := c.Query(nonce)
	return m, err
}

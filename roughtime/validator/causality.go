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
	"crypto/sha512"
	"fmt"

	"github.com/facebook/roughtime/roughtime/wire"
)

// Measurement is one validated round-trip against a single server within a
// chained measurement sequence.
type Measurement struct {
	Server string
	// LocalSendMicros and LocalRecvMicros bound the request/response
	// round trip on the client's own clock, in microseconds since the
	// Unix epoch.
	LocalSendMicros uint64
	LocalRecvMicros uint64
	Response        wire.Response
	// RequestNonce is the nonce actually sent: either fresh randomness
	// (the first measurement in a sequence) or the hash of the prior
	// response (every subsequent measurement).
	RequestNonce wire.Nonce
}

// Midpoint returns the server-claimed midpoint time in microseconds.
func (m Measurement) Midpoint() uint64 {
	return m.Response.Srep.Midp
}

// RadiusMicros returns the server's advertised accuracy radius converted to
// microseconds, RADI being encoded in whole seconds.
func (m Measurement) RadiusMicros() uint64 {
	return uint64(m.Response.Srep.Radi) * 1_000_000
}

// ChainNonce derives the nonce the next measurement in a sequence must use:
// the first 32 bytes of SHA-512 over the prior response's encoded bytes.
// This is what lets a client prove to a third party that it queried server
// B strictly after receiving server A's reply, since B's signed response
// embeds a value that could only have been computed after A replied.
func ChainNonce(priorResponseWire []byte) wire.Nonce {
	sum := sha512.Sum512(priorResponseWire)
	var n wire.Nonce
	copy(n[:], sum[:32])
	return n
}

// CheckCausality verifies a chained sequence of measurements is internally
// consistent:
//
//  1. each measurement (other than the first) used the chained nonce
//     derived from the prior measurement's response bytes, proving it was
//     sent no earlier than the prior response was received;
//  2. each measurement's local send/receive window is wide enough to
//     contain the server's claimed midpoint plus its advertised radius,
//     catching a server whose clock disagrees with the client's own
//     round-trip bound;
//  3. midpoints are non-decreasing across the sequence once the combined
//     accuracy radii of consecutive measurements are taken into account,
//     catching a server that claims a time earlier than an already-proven
//     later event.
func CheckCausality(measurements []Measurement, priorResponseWires [][]byte) error {
	if len(measurements) == 0 {
		return fmt.Errorf("validator: empty measurement sequence")
	}

	for i, m := range measurements {
		if i > 0 {
			want := ChainNonce(priorResponseWires[i-1])
			if m.RequestNonce != want {
				return fmt.Errorf("validator: measurement %d (%s) did not chain from measurement %d's response", i, m.Server, i-1)
			}
		}

		lower := m.Midpoint() - m.RadiusMicros()
		upper := m.Midpoint() + m.RadiusMicros()
		if upper < m.LocalSendMicros || lower > m.LocalRecvMicros {
			return fmt.Errorf("validator: measurement %d (%s) claimed midpoint %d outside local round-trip window [%d, %d] widened by radius", i, m.Server, m.Midpoint(), m.LocalSendMicros, m.LocalRecvMicros)
		}

		if i > 0 {
			prev := measurements[i-1]
			if m.Midpoint()+m.RadiusMicros() < prev.Midpoint()-prev.RadiusMicros() {
				return fmt.Errorf("validator: measurement %d (%s) claims a time before measurement %d (%s), violating causality", i, m.Server, i-1, prev.Server)
			}
		}
	}
	return nil
}

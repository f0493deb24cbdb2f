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
	"fmt"

	"github.com/facebook/roughtime/roughtime/validator"
	"github.com/facebook/roughtime/roughtime/wire"
)

// MalfeasanceReport bundles two responses from the same server, each
// independently verifiable, whose claimed midpoints violate causality
// relative to a client's own local send/receive window. A third party can
// check the report without trusting the reporter: it re-verifies both
// signatures against the server's published long-term key and only then
// recomputes the causality violation.
type MalfeasanceReport struct {
	Server            string
	FirstNonce        wire.Nonce
	FirstResponse     wire.Response
	FirstLocalSend    uint64
	FirstLocalRecv    uint64
	SecondNonce       wire.Nonce
	SecondResponse    wire.Response
	SecondLocalSend   uint64
	SecondLocalRecv   uint64
}

// NewMalfeasanceReport builds a report from two measurements taken against
// the same server, returning an error if they don't in fact demonstrate a
// causality violation (a report is only worth publishing if it proves
// something).
func NewMalfeasanceReport(first, second validator.Measurement) (*MalfeasanceReport, error) {
	if first.Server != second.Server {
		return nil, fmt.Errorf("client: malfeasance report requires both measurements from the same server")
	}
	report := &MalfeasanceReport{
		Server:          first.Server,
		FirstNonce:      first.RequestNonce,
		FirstResponse:   first.Response,
		FirstLocalSend:  first.LocalSendMicros,
		FirstLocalRecv:  first.LocalRecvMicros,
		SecondNonce:     second.RequestNonce,
		SecondResponse:  second.Response,
		SecondLocalSend: second.LocalSendMicros,
		SecondLocalRecv: second.LocalRecvMicros,
	}
	if err := report.findViolation(); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *MalfeasanceReport) findViolation() error {
	first := validator.Measurement{Response: r.FirstResponse, LocalSendMicros: r.FirstLocalSend, LocalRecvMicros: r.FirstLocalRecv, Server: r.Server, RequestNonce: r.FirstNonce}
	second := validator.Measurement{Response: r.SecondResponse, LocalSendMicros: r.SecondLocalSend, LocalRecvMicros: r.SecondLocalRecv, Server: r.Server, RequestNonce: r.SecondNonce}

	if r.SecondLocalSend < r.FirstLocalRecv {
		// The two requests overlapped in time; a causality violation
		// between them wouldn't be provable, so there's nothing to report.
		return fmt.Errorf("client: measurements do not establish a happens-before relationship")
	}

	if second.Midpoint()+second.RadiusMicros() < first.Midpoint()-first.RadiusMicros() {
		return nil
	}
	return fmt.Errorf("client: no causality violation between the two measurements")
}

// Verify independently checks both responses against longTermPublicKey and
// confirms the second response's claimed midpoint precedes the first's,
// despite having been requested strictly after the first was received.
func (r *MalfeasanceReport) Verify(longTermPublicKey ed25519.PublicKey) error {
	v := validator.New(longTermPublicKey)
	if err := v.Validate(r.FirstNonce, r.FirstResponse); err != nil {
		return fmt.Errorf("client: first response failed validation: %w", err)
	}
	if err := v.Validate(r.SecondNonce, r.SecondResponse); err != nil {
		return fmt.Errorf("client: second response failed validation: %w", err)
	}
	if r.SecondLocalSend < r.FirstLocalRecv {
		return fmt.Errorf("client: reported measurements do not establish a happens-before relationship")
	}

	firstRadius := uint64(r.FirstResponse.Srep.Radi) * 1_000_000
	secondRadius := uint64(r.SecondResponse.Srep.Radi) * 1_000_000
	if r.SecondResponse.Srep.Midp+secondRadius >= r.FirstResponse.Srep.Midp-firstRadius {
		return fmt.Errorf("client: reported responses do not actually violate causality")
	}
	return nil
}

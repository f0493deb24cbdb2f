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
)

// ServerEntry is one server a measurement sequence will query, in order.
type ServerEntry struct {
	Name      string
	Addr      string
	PublicKey ed25519.PublicKey
}

// RunSequence queries each server in servers in order, chaining each
// request's nonce from the previous response so the resulting
// Measurements can later prove to a third party that server[i+1] was
// queried no earlier than server[i] replied. It stops and returns an error
// at the first server that fails to respond or validate.
func RunSequence(servers []ServerEntry) ([]validator.Measurement, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("client: empty server sequence")
	}

	measurements := make([]validator.Measurement, 0, len(servers))
	wires := make([][]byte, 0, len(servers))

	nonce, err := RandomNonce()
	if err != nil {
		return nil, err
	}

	for _, s := range servers {
		c := NewClient(s.Addr, s.PublicKey)
		m, raw, err := c.Query(nonce)
		if err != nil {
			return nil, fmt.Errorf("client: querying %s (%s): %w", s.Name, s.Addr, err)
		}
		m.Server = s.Name
		measurements = append(measurements, m)
		wires = append(wires, raw)
		nonce = validator.ChainNonce(raw)
	}

	if err := validator.CheckCausality(measurements, wires[:len(wires)-1]); err != nil {
		return nil, err
	}
	return measurements, nil
}

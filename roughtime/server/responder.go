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

// Package server implements the batching responder, network backends and
// worker loop that together form the roughtimed daemon.
package server

import (
	"fmt"
	"net"

	"github.com/facebook/roughtime/roughtime/keys"
	"github.com/facebook/roughtime/roughtime/merkle"
	"github.com/facebook/roughtime/roughtime/wire"
)

// MaxBatchSize is the largest number of requests signed together in one
// batch. 64 leaves give a Merkle tree of depth 6, far below RFC 5.2.4's
// 32-element path ceiling, and bound per-packet response latency.
const MaxBatchSize = 64

// pendingRequest is one request accumulated into the current batch,
// alongside enough context to build its eventual Response.
type pendingRequest struct {
	addr  net.Addr
	nonce wire.Nonce
}

// Responder accumulates requests into a Merkle batch and, once flushed,
// produces one Response per accumulated request sharing a single online-key
// signature over the batch root.
type Responder struct {
	onlineKey *keys.OnlineKey
	tree      *merkle.Tree
	pending   []pendingRequest
}

// NewResponder creates an empty batching responder bound to onlineKey.
func NewResponder(onlineKey *keys.OnlineKey) *Responder {
	return &Responder{
		onlineKey: onlineKey,
		tree:      merkle.New(),
		pending:   make([]pendingRequest, 0, MaxBatchSize),
	}
}

// ReplaceOnlineKey swaps in a freshly delegated online key, used when a
// delegation window rotates. Any requests already accumulated in the
// current batch are flushed against the outgoing key before the swap so no
// request is ever signed by a key it wasn't batched under.
func (r *Responder) ReplaceOnlineKey(onlineKey *keys.OnlineKey) ([]Outgoing, error) {
	out, err := r.ProcessResponses()
	if err != nil {
		return nil, err
	}
	r.onlineKey = onlineKey
	return out, nil
}

// Len reports how many requests are pending in the current batch.
func (r *Responder) Len() int {
	return len(r.pending)
}

// Full reports whether the batch has reached MaxBatchSize and must be
// flushed before another request can be added.
func (r *Responder) Full() bool {
	return len(r.pending) >= MaxBatchSize
}

// AddRequest appends addr's request nonce to the current batch. Once the
// batch holds MaxBatchSize requests it returns an error until the caller
// flushes with ProcessResponses.
func (r *Responder) AddRequest(addr net.Addr, nonce wire.Nonce) error {
	if r.Full() {
		return fmt.Errorf("server: batch is full (%d requests)", MaxBatchSize)
	}
	r.tree.PushLeaf(nonce[:])
	r.pending = append(r.pending, pendingRequest{addr: addr, nonce: nonce})
	return nil
}

// Outgoing pairs an encoded Response with the address it must be sent to.
type Outgoing struct {
	Addr  net.Addr
	Frame []byte
}

// ProcessResponses seals the current batch: it computes the Merkle root,
// signs one SignedResponse for the whole batch, then builds and encodes one
// Response per pending request carrying that request's own inclusion path.
// The batch is cleared afterward so the Responder is ready for the next
// round.
func (r *Responder) ProcessResponses() ([]Outgoing, error) {
	if len(r.pending) == 0 {
		return nil, nil
	}

	root := r.tree.ComputeRoot()
	srep, sig, err := r.onlineKey.MakeSrep(root)
	if err != nil {
		return nil, fmt.Errorf("server: signing batch: %w", err)
	}
	cert := r.onlineKey.Certificate()

	out := make([]Outgoing, 0, len(r.pending))
	for i, p := range r.pending {
		resp := wire.Response{
			Signature: sig,
			Nonce:     p.nonce,
			Path:      r.tree.GetPaths(i),
			Srep:      srep,
			Cert:      cert,
			Index:     uint32(i),
		}
		frame, err := wire.EncodeFrame(resp)
		if err != nil {
			return nil, fmt.Errorf("server: encoding response %d: %w", i, err)
		}
		out = append(out, Outgoing{Addr: p.addr, Frame: frame})
	}

	r.clear()
	return out, nil
}

func (r *Responder) clear() {
	r.tree.Clear()
	r.pending = r.pending[:0]
}

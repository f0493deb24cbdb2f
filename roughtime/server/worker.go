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
	log "github.com/sirupsen/logrus"
	"time"

	"github.com/facebook/roughtime/roughtime/keys"
	"github.com/facebook/roughtime/roughtime/wire"
)

// KeySource issues freshly delegated OnlineKeys on a rotation schedule and
// is shared, read-mostly, across every worker so all of them sign under the
// same delegation window at any given moment.
type KeySource struct {
	identity  *keys.LongTermIdentity
	config    Config
	clock     keys.ClockSource

	mu      chanMutex
	current *keys.OnlineKey
}

// chanMutex is a channel-backed mutex, matching the reference server's
// preference for channel primitives over sync.Mutex at coordination points
// that are also natural select targets (rotation ticking, shutdown).
type chanMutex chan struct{}

func newChanMutex() chanMutex {
	c := make(chanMutex, 1)
	c <- struct{}{}
	return c
}

func (m chanMutex) Lock()   { <-m }
func (m chanMutex) Unlock() { m <- struct{}{} }

// NewKeySource builds the first delegated OnlineKey and returns a KeySource
// ready to rotate it on config.RotationInterval.
func NewKeySource(identity *keys.LongTermIdentity, config Config, clock keys.ClockSource) (*KeySource, error) {
	ks := &KeySource{identity: identity, config: config, clock: clock, mu: newChanMutex()}
	if err := ks.rotate(); err != nil {
		return nil, err
	}
	return ks, nil
}

func (ks *KeySource) rotate() error {
	online, err := keys.NewOnlineKey(ks.config.ProtocolVersion, ks.clock)
	if err != nil {
		return err
	}
	cert := ks.identity.DelegateTo(online.PublicKey(), ks.config.ProtocolVersion, ks.clock.EpochSeconds(), uint64(ks.config.DelegationValidity.Seconds()))
	online.Delegate(cert)

	ks.mu.Lock()
	ks.current = online
	ks.mu.Unlock()
	return nil
}

// Current returns the OnlineKey in effect right now.
func (ks *KeySource) Current() *keys.OnlineKey {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.current
}

// RunRotation rotates the delegated key every RotationInterval until stop
// is closed.
func (ks *KeySource) RunRotation(stop <-chan struct{}) {
	ticker := time.NewTicker(ks.config.RotationInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := ks.rotate(); err != nil {
				log.Errorf("roughtime: key rotation failed: %v", err)
			} else {
				log.Info("roughtime: rotated online key")
			}
		case <-stop:
			return
		}
	}
}

// Worker owns one network Backend and drives the receive/batch/sign/send
// loop for it. Multiple workers can share a Backend bound with SO_REUSEPORT
// semantics (or, on the portable backend, can each bind their own ephemeral
// port behind a shared listener at the caller's discretion) to spread
// packet processing across cores.
type Worker struct {
	id        int
	backend   Backend
	keySource *KeySource
	metrics   *Metrics
	config    Config
}

// NewWorker builds a Worker bound to backend.
func NewWorker(id int, backend Backend, keySource *KeySource, metrics *Metrics, config Config) *Worker {
	return &Worker{id: id, backend: backend, keySource: keySource, metrics: metrics, config: config}
}

// Run reads requests, batches them, and emits signed responses until stop
// is closed. It never returns an error for a single malformed request; it
// only returns when the backend itself fails or stop fires.
func (w *Worker) Run(stop <-chan struct{}) error {
	responder := NewResponder(w.keySource.Current())
	lastKey := w.keySource.Current()
	var batchOpened time.Time

	for {
		select {
		case <-stop:
			return nil
		default:
		}

		if cur := w.keySource.Current(); cur != lastKey {
			if out, err := responder.ReplaceOnlineKey(cur); err != nil {
				log.Errorf("worker %d: flushing batch before key rotation: %v", w.id, err)
			} else if len(out) > 0 {
				w.flush(out, batchOpened)
			}
			lastKey = cur
		}

		deadline := time.Now().Add(w.config.BatchWindow)
		packets, err := w.backend.ReceiveBatch(deadline)
		if err != nil {
			return err
		}

		for _, p := range packets {
			if responder.Len() == 0 {
				batchOpened = time.Now()
			}
			nonce, ok := w.decodeRequest(p)
			if !ok {
				continue
			}
			w.metrics.ObserveRequest()
			if err := responder.AddRequest(p.Addr, nonce); err != nil {
				log.Warnf("worker %d: %v", w.id, err)
				continue
			}
			if responder.Full() || responder.Len() >= w.config.BatchSize {
				out, err := responder.ProcessResponses()
				if err != nil {
					log.Errorf("worker %d: sealing full batch: %v", w.id, err)
					continue
				}
				w.flush(out, batchOpened)
			}
		}

		if responder.Len() > 0 && time.Since(batchOpened) >= w.config.BatchWindow {
			out, err := responder.ProcessResponses()
			if err != nil {
				log.Errorf("worker %d: sealing timed-out batch: %v", w.id, err)
				continue
			}
			w.flush(out, batchOpened)
		}
	}
}

func (w *Worker) decodeRequest(p ReceivedPacket) (wire.Nonce, bool) {
	cursor, length, err := wire.DecodeFrame(p.Data)
	if err != nil {
		w.metrics.ObserveMalformed()
		log.Debugf("worker %d: discarding unframed packet from %s: %v", w.id, p.Addr, err)
		return wire.Nonce{}, false
	}
	req, err := wire.RequestFromWire(cursor, length)
	if err != nil {
		w.metrics.ObserveMalformed()
		log.Debugf("worker %d: discarding malformed request from %s: %v", w.id, p.Addr, err)
		return wire.Nonce{}, false
	}
	return req.NonceValue(), true
}

func (w *Worker) flush(out []Outgoing, opened time.Time) {
	if err := w.backend.SendBatch(out); err != nil {
		log.Errorf("worker %d: sending batch: %v", w.id, err)
	}
	if !opened.IsZero() {
		w.metrics.ObserveBatch(len(out), time.Since(opened))
	}
}

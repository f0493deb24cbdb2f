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

package keys

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// SeedSource loads the 32-byte Ed25519 seed a long-term identity is derived
// from. Only local, dependency-free backends are implemented; KMS, PKCS11
// and OS-keyring backends are out of scope (see DESIGN.md) since none of
// this repository's dependencies provide them and fabricating a client for
// a cloud KMS would not be grounded in anything this codebase imports.
type SeedSource interface {
	LoadSeed() (ed25519.PrivateKey, error)
}

// LiteralSeed carries the hex-encoded seed directly, typically from a
// command-line flag. It exists mainly for tests and local experimentation;
// operators should prefer FileSeed or EnvVarSeed in production.
type LiteralSeed struct {
	HexSeed string
}

func (s LiteralSeed) LoadSeed() (ed25519.PrivateKey, error) {
	return seedFromHex(s.HexSeed)
}

// EnvVarSeed reads the hex-encoded seed from an environment variable.
type EnvVarSeed struct {
	Name string
}

func (s EnvVarSeed) LoadSeed() (ed25519.PrivateKey, error) {
	val, ok := os.LookupEnv(s.Name)
	if !ok {
		return nil, fmt.Errorf("keys: environment variable %s is not set", s.Name)
	}
	return seedFromHex(val)
}

// FileSeed reads the hex-encoded seed from a file on disk, trimming
// trailing whitespace.
type FileSeed struct {
	Path string
}

func (s FileSeed) LoadSeed() (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("keys: reading seed file %s: %w", s.Path, err)
	}
	return seedFromHex(strings.TrimSpace(string(raw)))
}

func seedFromHex(s string) (ed25519.PrivateKey, error) {
	seed, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("keys: decoding hex seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("keys: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// serverListDoc is the on-disk shape of a server list: a small JSON or YAML
// document naming each server's address and base64-encoded long-term
// Ed25519 public key.
type serverListDoc struct {
	Servers []serverListEntry `json:"servers" yaml:"servers"`
}

type serverListEntry struct {
	Name      string `json:"name" yaml:"name"`
	Addr      string `json:"addr" yaml:"addr"`
	PublicKey string `json:"publicKey" yaml:"publicKey"`
}

// LoadServerList reads a server list from path. JSON and YAML are both
// accepted; the format is chosen by the .json/.yaml/.yml extension,
// defaulting to YAML for anything else since the command-line client's own
// config is YAML.
func LoadServerList(path string) ([]ServerEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("client: reading server list %s: %w", path, err)
	}

	var doc serverListDoc
	if isJSONExt(path) {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("client: parsing server list %s as JSON: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("client: parsing server list %s as YAML: %w", path, err)
		}
	}

	entries := make([]ServerEntry, 0, len(doc.Servers))
	for _, e := range doc.Servers {
		pub, err := base64.StdEncoding.DecodeString(e.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("client: decoding public key for server %s: %w", e.Name, err)
		}
		entries = append(entries, ServerEntry{Name: e.Name, Addr: e.Addr, PublicKey: pub})
	}
	return entries, nil
}

func isJSONExt(path string) bool {
	n := len(path)
	return n >= 5 && path[n-5:] == ".json"
}

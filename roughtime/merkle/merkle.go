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

// Package merkle builds and proves membership in the binary Merkle tree a
// server batches client nonces into before issuing one signature per batch.
package merkle

import (
	"crypto/sha512"
	"math/bits"

	"github.com/facebook/roughtime/roughtime/wire"
)

const (
	leafTweak   = 0x00
	nodeTweak   = 0x01
	outputLen   = 32
)

// Tree accumulates leaves level by level and, once sealed with ComputeRoot, can
// produce an inclusion path for any leaf index.
type Tree struct {
	levels [][][outputLen]byte
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{levels: [][][outputLen]byte{{}}}
}

// Reserve precomputes level capacities for numLeaves so that PushLeaf never
// needs to reallocate a level's backing slice mid-batch.
func (t *Tree) Reserve(numLeaves int) {
	if numLeaves == 0 {
		return
	}
	depth := bits.Len(uint(numLeaves - 1))
	for len(t.levels) <= depth+1 {
		t.levels = append(t.levels, nil)
	}
	cap0 := numLeaves
	for i := 0; i <= depth && i < len(t.levels); i++ {
		if cap(t.levels[i]) < cap0 {
			grown := make([][outputLen]byte, len(t.levels[i]), cap0)
			copy(grown, t.levels[i])
			t.levels[i] = grown
		}
		cap0 = (cap0 + 1) / 2
	}
}

// IsEmpty reports whether any leaves have been pushed.
func (t *Tree) IsEmpty() bool {
	return len(t.levels[0]) == 0
}

// Clear resets every level to empty without discarding the level slices
// themselves, so a subsequent batch can reuse their capacity.
func (t *Tree) Clear() {
	for i := range t.levels {
		t.levels[i] = t.levels[i][:0]
	}
}

// PushLeaf hashes data as a tree leaf and appends it to level 0.
func (t *Tree) PushLeaf(data []byte) {
	t.levels[0] = append(t.levels[0], hashLeaf(data))
}

func hashLeaf(data []byte) [outputLen]byte {
	return hashTweaked(leafTweak, data)
}

func hashNode(left, right []byte) [outputLen]byte {
	buf := make([]byte, 0, len(left)+len(right))
	buf = append(buf, left...)
	buf = append(buf, right...)
	return hashTweaked(nodeTweak, buf)
}

func hashTweaked(tweak byte, data []byte) [outputLen]byte {
	h := sha512.New()
	h.Write([]byte{tweak})
	h.Write(data)
	sum := h.Sum(nil)
	var out [outputLen]byte
	copy(out[:], sum[:outputLen])
	return out
}

// ComputeRoot folds every level up to a single root hash, padding odd levels
// with a zero node so every level pairs evenly. It panics if no leaves have
// been pushed, matching the precondition that a batch always contains at
// least one request.
func (t *Tree) ComputeRoot() wire.MerkleRoot {
	if t.IsEmpty() {
		panic("merkle: must have at least one leaf to hash")
	}
	level := 0
	for len(t.levels[level]) > 1 {
		cur := t.levels[level]
		if len(cur)%2 != 0 {
			cur = append(cur, [outputLen]byte{})
			t.levels[level] = cur
		}
		if level+1 >= len(t.levels) {
			t.levels = append(t.levels, nil)
		}
		next := t.levels[level+1][:0]
		for i := 0; i < len(cur); i += 2 {
			next = append(next, hashNode(cur[i][:], cur[i+1][:]))
		}
		t.levels[level+1] = next
		level++
	}
	return wire.MerkleRoot(t.levels[level][0])
}

// GetPaths returns the inclusion path for leaf index, walking up the tree
// and recording each level's sibling hash until the sibling index falls out
// of bounds (the root has been reached).
func (t *Tree) GetPaths(index int) *wire.MerklePath {
	path := wire.NewMerklePath()
	level := 0
	for {
		cur := t.levels[level]
		var sibling int
		if index%2 == 0 {
			sibling = index + 1
		} else {
			sibling = index - 1
		}
		if sibling >= len(cur) {
			break
		}
		path.PushElement(cur[sibling])
		index /= 2
		level++
		if level > 32 {
			panic("merkle: path depth exceeded 32")
		}
	}
	return path
}

// RootFromPath recomputes the root hash a leaf's data and inclusion path
// imply, without requiring the full tree. A validator calls this to confirm
// a response's PATH is consistent with its SREP root.
func RootFromPath(index int, data []byte, path *wire.MerklePath) wire.MerkleRoot {
	cur := hashLeaf(data)
	for _, sibling := range path.Elements() {
		if index%2 == 0 {
			cur = hashNode(cur[:], sibling[:])
		} else {
			cur = hashNode(sibling[:], cur[:])
		}
		index >>= 1
	}
	return wire.MerkleRoot(cur)
}

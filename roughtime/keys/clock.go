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

import "time"

// ClockSource supplies the midpoint time a server stamps into each response.
// It is an interface rather than a bare time.Now call so tests can pin a
// deterministic clock, matching how the reference server lets an operator
// choose between the system clock and a fixed offset for testing.
type ClockSource interface {
	// EpochMicros returns the current time as microseconds since the Unix
	// epoch, the unit MIDP is encoded in.
	EpochMicros() uint64
	// EpochSeconds returns the current time as seconds since the Unix
	// epoch, the unit MINT/MAXT are encoded in.
	EpochSeconds() uint64
}

// SystemClock reads the wall clock via time.Now.
type SystemClock struct{}

func (SystemClock) EpochMicros() uint64 {
	return uint64(time.Now().UnixMicro())
}

func (SystemClock) EpochSeconds() uint64 {
	return uint64(time.Now().Unix())
}

// FixedOffsetClock reports time.Now shifted by a constant offset, used in
// tests that need MIDP/MINT/MAXT values at a known distance from the wall
// clock without mocking the system clock globally.
type FixedOffsetClock struct {
	Offset time.Duration
}

func (c FixedOffsetClock) EpochMicros() uint64 {
	return uint64(time.Now().Add(c.Offset).UnixMicro())
}

func (c FixedOffsetClock) EpochSeconds() uint64 {
	return uint64(time.Now().Add(c.Offset).Unix())
}

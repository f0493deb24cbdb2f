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
	"fmt"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/facebook/roughtime/roughtime/wire"
)

// Config is a server config structure.
type Config struct {
	Addr            string
	Workers         int
	BatchSize       int
	BatchWindow     time.Duration
	DelegationValidity time.Duration
	RotationInterval   time.Duration
	ProtocolVersion wire.ProtocolVersion
	LogLevel        string
	MetricInterval  time.Duration
	MonitoringPort  int

	// BatchSizeOverrideExpr, if set, is a govaluate expression that
	// ResolveBatchSize evaluates to scale BatchSize. It sees a single
	// variable, subnetLoad, supplied by the caller of ResolveBatchSize.
	// The worker does not call ResolveBatchSize: it batches up to BatchSize
	// whether or not this is set, and nothing measures per-subnet load.
	BatchSizeOverrideExpr string
}

// ResolveBatchSize applies BatchSizeOverrideExpr (if set) against the
// observed load fraction for one source subnet, falling back to the static
// BatchSize on any evaluation error so a malformed expression never breaks
// batching.
func (c Config) ResolveBatchSize(subnetLoad float64) int {
	if c.BatchSizeOverrideExpr == "" {
		return c.BatchSize
	}
	expr, err := govaluate.NewEvaluableExpression(c.BatchSizeOverrideExpr)
	if err != nil {
		return c.BatchSize
	}
	result, err := expr.Evaluate(map[string]interface{}{"subnetLoad": subnetLoad})
	if err != nil {
		return c.BatchSize
	}
	size, ok := result.(float64)
	if !ok || size <= 0 {
		return c.BatchSize
	}
	if int(size) > MaxBatchSize {
		return MaxBatchSize
	}
	return int(size)
}

// Validate reports a descriptive error for any configuration combination
// that would make the server unable to start.
func (c Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("server: workers must be positive, got %d", c.Workers)
	}
	if c.BatchSize <= 0 || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("server: batch size must be in (0, %d], got %d", MaxBatchSize, c.BatchSize)
	}
	return nil
}

// DefaultConfig returns a Config with the values the daemon runs under when
// no override is given on the command line.
func DefaultConfig() Config {
	return Config{
		Addr:               ":2002",
		Workers:            4,
		BatchSize:          MaxBatchSize,
		BatchWindow:        100 * time.Millisecond,
		DelegationValidity: 24 * time.Hour,
		RotationInterval:   12 * time.Hour,
		ProtocolVersion:    wire.DefaultProtocolVersion,
		LogLevel:           "info",
		MetricInterval:     10 * time.Second,
		MonitoringPort:     9002,
	}
}

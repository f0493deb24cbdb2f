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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsNonPositiveWorkers(t *testing.T) {
	c := DefaultConfig()
	c.Workers = 0
	require.Error(t, c.Validate())
}

func TestValidateRejectsBatchSizeOutOfRange(t *testing.T) {
	c := DefaultConfig()
	c.BatchSize = MaxBatchSize + 1
	require.Error(t, c.Validate())

	c.BatchSize = 0
	require.Error(t, c.Validate())
}

func TestResolveBatchSizeWithoutOverrideReturnsStatic(t *testing.T) {
	c := DefaultConfig()
	c.BatchSize = 16
	require.Equal(t, 16, c.ResolveBatchSize(0.9))
}

func TestResolveBatchSizeEvaluatesExpression(t *testing.T) {
	c := DefaultConfig()
	c.BatchSize = 8
	c.BatchSizeOverrideExpr = "subnetLoad > 0.5 ? 32 : 8"
	require.Equal(t, 32, c.ResolveBatchSize(0.9))
	require.Equal(t, 8, c.ResolveBatchSize(0.1))
}

func TestResolveBatchSizeClampsToMax(t *testing.T) {
	c := DefaultConfig()
	c.BatchSizeOverrideExpr = "1000"
	require.Equal(t, MaxBatchSize, c.ResolveBatchSize(1.0))
}

func TestResolveBatchSizeFallsBackOnMalformedExpression(t *testing.T) {
	c := DefaultConfig()
	c.BatchSize = 12
	c.BatchSizeOverrideExpr = "((("
	require.Equal(t, 12, c.ResolveBatchSize(1.0))
}

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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetricsObserveRequestIncrementsCounter(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveRequest()
	m.ObserveRequest()
	require.Equal(t, float64(2), counterValue(t, m.requestsTotal))
}

func TestMetricsObserveMalformedIncrementsCounter(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveMalformed()
	require.Equal(t, float64(1), counterValue(t, m.malformedTotal))
}

func TestMetricsObserveBatchUpdatesSnapshot(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveBatch(10, 5*time.Millisecond)
	m.ObserveBatch(20, 15*time.Millisecond)

	require.Equal(t, float64(2), counterValue(t, m.batchesTotal))
	require.Equal(t, float64(30), counterValue(t, m.responsesTotal))

	snap := m.Snapshot()
	require.Equal(t, 20, snap.LastBatchSize)
	require.InDelta(t, 0.01, snap.BatchLatencyMeanSeconds, 0.001)
}

func TestMetricsSnapshotIncludesProcessFigures(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	snap := m.Snapshot()
	// The running test binary is itself a readable process, so gopsutil
	// should be able to report at least a non-zero RSS.
	require.NotZero(t, snap.ProcessRSSBytes)
}

func TestNewMetricsPanicsOnDoubleRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetrics(registry)
	require.Panics(t, func() { NewMetrics(registry) })
}

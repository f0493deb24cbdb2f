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
	"os"
	"sync"
	"time"

	"github.com/eclesh/welford"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/process"
)

// Metrics aggregates per-worker counters into the process-wide view exposed
// over Prometheus and the JSON snapshot endpoint.
type Metrics struct {
	requestsTotal   prometheus.Counter
	responsesTotal  prometheus.Counter
	batchesTotal    prometheus.Counter
	malformedTotal  prometheus.Counter
	batchSize       prometheus.Histogram

	mu            sync.Mutex
	batchLatency  *welford.Stats
	lastBatchSize int
}

// NewMetrics creates and registers the server's Prometheus collectors.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roughtime_requests_total",
			Help: "Total number of requests received.",
		}),
		responsesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roughtime_responses_total",
			Help: "Total number of responses sent.",
		}),
		batchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roughtime_batches_total",
			Help: "Total number of batches sealed and signed.",
		}),
		malformedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roughtime_malformed_requests_total",
			Help: "Total number of requests rejected during decode.",
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "roughtime_batch_size",
			Help:    "Distribution of request count per sealed batch.",
			Buckets: prometheus.LinearBuckets(1, 4, 16),
		}),
		batchLatency: welford.New(),
	}
	registry.MustRegister(m.requestsTotal, m.responsesTotal, m.batchesTotal, m.malformedTotal, m.batchSize)
	return m
}

func (m *Metrics) ObserveRequest() {
	m.requestsTotal.Inc()
}

func (m *Metrics) ObserveMalformed() {
	m.malformedTotal.Inc()
}

// ObserveBatch records one sealed batch's size and how long it took from
// the first accumulated request until its responses were handed to the
// backend for sending.
func (m *Metrics) ObserveBatch(size int, latency time.Duration) {
	m.batchesTotal.Inc()
	m.responsesTotal.Add(float64(size))
	m.batchSize.Observe(float64(size))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchLatency.Add(latency.Seconds())
	m.lastBatchSize = size
}

// Snapshot is the JSON-serializable view of current server health exposed
// alongside the Prometheus scrape endpoint, for operators who prefer a
// single curl over a metrics scraper.
type Snapshot struct {
	BatchLatencyMeanSeconds float64 `json:"batch_latency_mean_seconds"`
	BatchLatencyStddev      float64 `json:"batch_latency_stddev_seconds"`
	LastBatchSize           int     `json:"last_batch_size"`
	ProcessRSSBytes         uint64  `json:"process_rss_bytes,omitempty"`
	ProcessCPUPercent       float64 `json:"process_cpu_percent,omitempty"`
}

// Snapshot renders the current aggregate state, enriching it with
// process-level figures (RSS, CPU) when they can be read from /proc.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	snap := Snapshot{
		BatchLatencyMeanSeconds: m.batchLatency.Mean(),
		BatchLatencyStddev:      m.batchLatency.Stddev(),
		LastBatchSize:           m.lastBatchSize,
	}
	m.mu.Unlock()

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			snap.ProcessRSSBytes = mem.RSS
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			snap.ProcessCPUPercent = cpu
		}
	}
	return snap
}

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

// roughtimed is a batching Roughtime time-synchronization responder.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/facebook/roughtime/roughtime/keys"
	"github.com/facebook/roughtime/roughtime/server"
	"github.com/facebook/roughtime/roughtime/wire"
)

var keepRunning atomic.Bool

func main() {
	addr := flag.String("addr", server.DefaultConfig().Addr, "UDP address to listen on")
	workers := flag.Int("workers", server.DefaultConfig().Workers, "number of worker goroutines")
	batchSize := flag.Int("batchsize", server.DefaultConfig().BatchSize, "maximum requests per signed batch")
	batchWindow := flag.Duration("batchwindow", server.DefaultConfig().BatchWindow, "maximum time to hold a batch open before sealing it")
	rotationInterval := flag.Duration("rotation", server.DefaultConfig().RotationInterval, "how often to rotate the delegated online key")
	delegationValidity := flag.Duration("delegation-validity", server.DefaultConfig().DelegationValidity, "validity window granted to each delegated online key")
	protocolVersion := flag.String("version", "ietf-roughtime", "protocol version to serve: google-roughtime or ietf-roughtime")
	seedEnv := flag.String("seed-env", "ROUGHTIMED_SEED", "environment variable holding the hex-encoded long-term Ed25519 seed")
	seedFile := flag.String("seed-file", "", "file holding the hex-encoded long-term Ed25519 seed; overrides -seed-env if set")
	monitoringAddr := flag.String("monitoring-addr", fmt.Sprintf(":%d", server.DefaultConfig().MonitoringPort), "address to serve Prometheus metrics and the JSON snapshot on")
	loglevel := flag.String("loglevel", "info", "logging level: debug, info, warning, error")
	flag.Parse()

	level, err := log.ParseLevel(*loglevel)
	if err != nil {
		log.Fatalf("Unrecognized log level %q: %v", *loglevel, err)
	}
	log.SetLevel(level)

	version, err := parseVersion(*protocolVersion)
	if err != nil {
		log.Fatalf("%v", err)
	}

	config := server.DefaultConfig()
	config.Addr = *addr
	config.Workers = *workers
	config.BatchSize = *batchSize
	config.BatchWindow = *batchWindow
	config.RotationInterval = *rotationInterval
	config.DelegationValidity = *delegationValidity
	config.ProtocolVersion = version
	if err := config.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	var seedSource keys.SeedSource
	if *seedFile != "" {
		seedSource = keys.FileSeed{Path: *seedFile}
	} else {
		seedSource = keys.EnvVarSeed{Name: *seedEnv}
	}
	seed, err := seedSource.LoadSeed()
	if err != nil {
		log.Fatalf("Loading long-term key seed: %v", err)
	}
	identity := keys.NewLongTermIdentity(seed)
	log.Infof("Long-term public key: %x", identity.PublicKey())

	clock := keys.SystemClock{}
	keySource, err := server.NewKeySource(identity, config, clock)
	if err != nil {
		log.Fatalf("Building initial delegated key: %v", err)
	}

	registry := prometheus.NewRegistry()
	metrics := server.NewMetrics(registry)

	keepRunning.Store(true)
	setSignalHandler()

	stop := make(chan struct{})
	go keySource.RunRotation(stop)

	var wg sync.WaitGroup
	for i := 0; i < config.Workers; i++ {
		backend, err := server.NewBackend(config.Addr)
		if err != nil {
			log.Fatalf("Binding worker %d: %v", i, err)
		}
		worker := server.NewWorker(i, backend, keySource, metrics, config)
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := worker.Run(stop); err != nil {
				log.Errorf("worker %d exited: %v", id, err)
			}
		}(i)
	}

	serveMonitoring(*monitoringAddr, registry, metrics)

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Debugf("sd_notify READY failed: %v", err)
	} else if sent {
		log.Debug("sent sd_notify READY")
	}

	for keepRunning.Load() {
		time.Sleep(200 * time.Millisecond)
	}

	log.Info("shutting down")
	close(stop)
	wg.Wait()
}

func parseVersion(s string) (wire.ProtocolVersion, error) {
	return wire.ParseProtocolVersion(s)
}

func setSignalHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		keepRunning.Store(false)
	}()
}

func serveMonitoring(addr string, registry *prometheus.Registry, metrics *server.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(metrics.Snapshot()); err != nil {
			log.Errorf("encoding snapshot: %v", err)
		}
	})
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorf("monitoring server exited: %v", err)
		}
	}()
}

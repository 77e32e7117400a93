// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"tracesynth/internal/config"
	"tracesynth/internal/ingest"
	"tracesynth/internal/persistence"
	"tracesynth/internal/sinks"
	"tracesynth/internal/telemetry"
	"tracesynth/synth"
	"tracesynth/timing"
)

func main() {
	// In plain words (what this tool does):
	//   - tracegen reads an observed pcap and a fitted (or hand-written)
	//     model, then synthesizes a new trace whose time and address-space
	//     statistics match the model's targets:
	//       • every observed flow gets a fresh Pareto on/off burst schedule
	//         carrying exactly its observed packet count;
	//       • every observed address is replaced by its rank-preserving image
	//         in a fresh logit-normal cascade at the target sigma;
	//       • packets from all flows are emitted in one globally time-ordered
	//         CSV stream.
	//   - The run is fully deterministic for a given seed, model and input.
	//
	// Metrics (when -metrics is set): packet/burst counters and the
	// packets-per-burst histogram under /metrics.
	var (
		pcapPath  = flag.String("pcap", "", "observed pcap file (required)")
		cfgPath   = flag.String("config", "", "optional JSON run config")
		modelName = flag.String("model", "", "optional fitted model name to load parameters from")
		modelsDir = flag.String("models", "models", "directory of the model store")
		redisAddr = flag.String("redis", "", "load the model from Redis at this address instead of the file store")
		outPath   = flag.String("out", "trace.csv", "output CSV trace")
		seed      = flag.Int64("seed", 0, "PRNG seed override (0 keeps the config seed)")
		metrics   = flag.String("metrics", "", "optional address to serve Prometheus /metrics on")
	)
	flag.Parse()
	if *pcapPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *modelName != "" {
		model, err := loadModel(*modelName, *modelsDir, *redisAddr)
		if err != nil {
			log.Fatalf("load model: %v", err)
		}
		cfg.BurstTimeout = model.BurstTimeout
		cfg.Time = model.Time
		cfg.Addr = model.Addr
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	if *metrics != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(*metrics, mux); err != nil {
				log.Fatalf("metrics: %v", err)
			}
		}()
		log.Printf("serving metrics on %s", *metrics)
	}

	f, err := os.Open(*pcapPath)
	if err != nil {
		log.Fatalf("open pcap: %v", err)
	}
	an := timing.NewAnalyzer(cfg.BurstTimeout)
	n, err := ingest.Load(f, an)
	f.Close()
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
	if n == 0 {
		log.Fatalf("no IPv4 packets in %s", *pcapPath)
	}
	telemetry.RecordIngest(n)
	telemetry.SetFlowsTracked(an.NumFlows())

	rng := rand.New(rand.NewSource(cfg.Seed))
	gen := synth.NewGenerator(an, cfg.Time, cfg.Addr, rng)
	for _, pkts := range gen.BurstSizes() {
		telemetry.ObserveBurst(pkts)
	}

	sink, err := sinks.NewCSVTraceSink(*outPath)
	if err != nil {
		log.Fatalf("open %s: %v", *outPath, err)
	}
	emitted := 0
	for {
		key, pkt, ok := gen.NextPacket()
		if !ok {
			break
		}
		if err := sink.Write(key, pkt); err != nil {
			log.Fatalf("write %s: %v", *outPath, err)
		}
		telemetry.RecordEmit()
		emitted++
	}
	if err := sink.Close(); err != nil {
		log.Fatalf("close %s: %v", *outPath, err)
	}

	log.Printf("generated %d packets in %d bursts across %d flows -> %s (seed %d)",
		emitted, len(gen.BurstSizes()), an.NumFlows(), *outPath, cfg.Seed)
}

func loadModel(name, dir, redisAddr string) (*persistence.Model, error) {
	ctx := context.Background()
	if redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer client.Close()
		return persistence.NewRedisStore(client).Load(ctx, name)
	}
	store, err := persistence.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return store.Load(ctx, name)
}

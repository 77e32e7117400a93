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
	"math"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"tracesynth"
	"tracesynth/addrspace"
	"tracesynth/internal/ingest"
	"tracesynth/internal/persistence"
	"tracesynth/internal/telemetry"
	"tracesynth/timing"
)

func main() {
	// In plain words (what this tool does):
	//   - tracefit reads an observed pcap and fits the two halves of the
	//     trace model:
	//       • time: packets are grouped into per-flow bursts by an inactivity
	//         timeout, and Pareto shapes are fitted to the on/off durations.
	//       • address space: distinct source and destination addresses are
	//         loaded into weighted prefix trees and a logit-normal spread
	//         sigma is fitted to each.
	//   - The result is a small JSON model that tracegen can replay at the
	//     fitted (or any other) targets.
	//
	// What to look for in the output:
	//   - a_on / a_off near or below 1 indicate heavy-tailed burst behavior.
	//   - sigma grows with the clustering of the address set: dense scan-like
	//     sets fit small sigmas, sparse multifractal sets fit large ones.
	var (
		pcapPath  = flag.String("pcap", "", "observed pcap file (required)")
		timeout   = flag.Float64("timeout", tracesynth.DefaultBurstTimeout, "burst inactivity timeout in seconds")
		duration  = flag.Float64("duration", 1.0, "total duration recorded in the model, in seconds")
		name      = flag.String("name", "default", "model name")
		outDir    = flag.String("out", "models", "directory for the model JSON file")
		redisAddr = flag.String("redis", "", "optional Redis address to also persist the model to")
	)
	flag.Parse()
	if *pcapPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*pcapPath)
	if err != nil {
		log.Fatalf("open pcap: %v", err)
	}
	defer f.Close()

	an := timing.NewAnalyzer(*timeout)
	n, err := ingest.Load(f, an)
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
	if n == 0 {
		log.Fatalf("no IPv4 packets in %s", *pcapPath)
	}
	telemetry.RecordIngest(n)
	telemetry.SetFlowsTracked(an.NumFlows())

	srcTree, dstTree := addrspace.NewPrefixTree(), addrspace.NewPrefixTree()
	for _, key := range an.Keys() {
		srcTree.Add(key.SAddr, 1.0)
		dstTree.Add(key.DAddr, 1.0)
	}
	srcSigma := srcTree.FitLogitNormal()
	dstSigma := dstTree.FitLogitNormal()
	alphaOn, alphaOff := an.ParetoFit()

	for label, v := range map[string]float64{
		"a_on": alphaOn, "a_off": alphaOff, "src_sigma": srcSigma, "dst_sigma": dstSigma,
	} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			log.Fatalf("fit produced non-finite %s = %v; the trace is too small to model", label, v)
		}
	}

	model := &persistence.Model{
		Name:         *name,
		BurstTimeout: *timeout,
		Time: tracesynth.TimeParameters{
			AOn:           alphaOn,
			MOn:           *timeout,
			AOff:          alphaOff,
			MOff:          *timeout,
			TotalDuration: *duration,
		},
		Addr:       tracesynth.AddrParameters{SrcSigma: srcSigma, DstSigma: dstSigma},
		SourceFile: filepath.Base(*pcapPath),
		NumPackets: n,
		NumFlows:   an.NumFlows(),
	}

	ctx := context.Background()
	store, err := persistence.NewFileStore(*outDir)
	if err != nil {
		log.Fatalf("open model store: %v", err)
	}
	if err := store.Save(ctx, model); err != nil {
		log.Fatalf("save model: %v", err)
	}
	log.Printf("wrote %s", store.Path(*name))

	if *redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: *redisAddr})
		defer client.Close()
		if err := persistence.NewRedisStore(client).Save(ctx, model); err != nil {
			log.Fatalf("save model to redis: %v", err)
		}
		log.Printf("wrote %s to redis at %s", persistence.RedisModelKey(*name), *redisAddr)
	}

	log.Printf("fit %q: %d packets, %d flows, a_on=%.4f a_off=%.4f src_sigma=%.4f dst_sigma=%.4f",
		*name, n, an.NumFlows(), alphaOn, alphaOff, srcSigma, dstSigma)
}

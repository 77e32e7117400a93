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

// Package telemetry exposes process-level Prometheus metrics for the fit
// and generation tools. Metrics are global only — no per-flow or per-address
// labels, which would have unbounded cardinality.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

var (
	packetsIngested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracesynth_packets_ingested_total",
		Help: "Total IPv4 packets ingested from observed traces",
	})
	flowsTracked = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracesynth_flows_tracked",
		Help: "Distinct flow keys in the current analyzer",
	})
	packetsEmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracesynth_packets_emitted_total",
		Help: "Total synthetic packets emitted by the generator",
	})
	burstsSynthesized = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tracesynth_bursts_synthesized_total",
		Help: "Total synthetic bursts scheduled across all flows",
	})
	burstPackets = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracesynth_burst_packets",
		Help:    "Distribution of packets per synthetic burst",
		Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024},
	})
)

func init() {
	// Register eagerly. If no endpoint is exposed, the registration is harmless.
	prometheus.MustRegister(packetsIngested, flowsTracked, packetsEmitted, burstsSynthesized, burstPackets)
}

// RecordIngest counts n ingested packets.
func RecordIngest(n int) {
	if n > 0 {
		packetsIngested.Add(float64(n))
	}
}

// SetFlowsTracked publishes the analyzer's current flow count.
func SetFlowsTracked(n int) { flowsTracked.Set(float64(n)) }

// RecordEmit counts one emitted synthetic packet.
func RecordEmit() { packetsEmitted.Inc() }

// ObserveBurst counts one synthetic burst and its packet allotment.
func ObserveBurst(pkts int) {
	burstsSynthesized.Inc()
	burstPackets.Observe(float64(pkts))
}

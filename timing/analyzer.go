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

// Package timing models the temporal side of a packet trace as a per-flow
// on/off burst process: the Analyzer groups observed packets into bursts and
// fits Pareto shape parameters to the on- and off-durations, and the
// BurstGenerator runs the renewal process forward to produce synthetic burst
// schedules with exact packet budgets.
package timing

import (
	"math"

	"tracesynth"
)

// Analyzer ingests a time-ordered packet stream and maintains the per-flow
// burst structure. Packets are assumed to arrive in non-decreasing time
// order per flow key; violating that is not guarded.
//
// Flow iteration follows key insertion order so that downstream generation
// is reproducible run to run.
type Analyzer struct {
	timeout float64
	flows   map[tracesynth.FlowKey][]*tracesynth.Burst
	order   []tracesynth.FlowKey
}

// NewAnalyzer returns an Analyzer with the given burst timeout in seconds.
// Non-positive timeouts fall back to tracesynth.DefaultBurstTimeout.
func NewAnalyzer(burstTimeout float64) *Analyzer {
	if burstTimeout <= 0 {
		burstTimeout = tracesynth.DefaultBurstTimeout
	}
	return &Analyzer{
		timeout: burstTimeout,
		flows:   make(map[tracesynth.FlowKey][]*tracesynth.Burst),
	}
}

// BurstTimeout returns the configured inactivity gap, in seconds.
func (a *Analyzer) BurstTimeout() float64 { return a.timeout }

// Add appends pkt to the flow for key: a gap of at least the burst timeout
// since the flow's last packet opens a new burst, anything shorter extends
// the current one.
func (a *Analyzer) Add(key tracesynth.FlowKey, pkt tracesynth.Packet) {
	bursts, ok := a.flows[key]
	if !ok {
		a.order = append(a.order, key)
		a.flows[key] = []*tracesynth.Burst{newBurst(pkt)}
		return
	}
	last := bursts[len(bursts)-1]
	if pkt.Time-last.End >= a.timeout {
		a.flows[key] = append(bursts, newBurst(pkt))
		return
	}
	last.Packets = append(last.Packets, pkt)
	last.End = pkt.Time
}

func newBurst(pkt tracesynth.Packet) *tracesynth.Burst {
	return &tracesynth.Burst{Start: pkt.Time, End: pkt.Time, Packets: []tracesynth.Packet{pkt}}
}

// Keys returns the flow keys in insertion order. The returned slice is
// shared; callers must not mutate it.
func (a *Analyzer) Keys() []tracesynth.FlowKey { return a.order }

// Bursts returns the burst list for key, ordered by start time, or nil for
// an unknown key. The bursts are borrowed, not copied.
func (a *Analyzer) Bursts(key tracesynth.FlowKey) []*tracesynth.Burst { return a.flows[key] }

// NumFlows returns the number of distinct flow keys seen.
func (a *Analyzer) NumFlows() int { return len(a.flows) }

// OnDurations returns End-Start for every burst of every flow, in flow
// insertion order.
func (a *Analyzer) OnDurations() []float64 {
	var out []float64
	for _, key := range a.order {
		for _, b := range a.flows[key] {
			out = append(out, b.Duration())
		}
	}
	return out
}

// OffDurations returns the gap between every pair of consecutive bursts of
// the same flow, in flow insertion order.
func (a *Analyzer) OffDurations() []float64 {
	var out []float64
	for _, key := range a.order {
		bursts := a.flows[key]
		for i := 1; i < len(bursts); i++ {
			out = append(out, bursts[i].Start-bursts[i-1].End)
		}
	}
	return out
}

// ParetoFit estimates the Pareto shape parameters of the on- and
// off-duration distributions by maximum likelihood, taking the minimum
// position m equal to the burst timeout: alpha = 1/mean(ln(x/m)) over the
// samples with x >= m.
//
// With no qualifying samples (or all samples exactly at m) the mean is zero
// and the corresponding shape is +Inf.
func (a *Analyzer) ParetoFit() (alphaOn, alphaOff float64) {
	return a.fitShape(a.OnDurations()), a.fitShape(a.OffDurations())
}

func (a *Analyzer) fitShape(samples []float64) float64 {
	var acc tracesynth.Welford
	for _, x := range samples {
		if x >= a.timeout {
			acc.Add(math.Log(x / a.timeout))
		}
	}
	return 1 / acc.Mean()
}
